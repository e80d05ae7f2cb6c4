package services

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"sitegear-custody/internal/core/domain"
)

// NotificationService delivers workflow events to a site-office webhook.
// Delivery is fire-and-forget: transitions never wait on, or roll back for,
// a notification.
type NotificationService struct {
	webhookURL string
	client     *http.Client
	enabled    bool
}

// NewNotificationService creates a new notification service
func NewNotificationService(webhookURL string) *NotificationService {
	return &NotificationService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		enabled:    webhookURL != "",
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// Publish posts one event to the webhook in the background.
func (s *NotificationService) Publish(event domain.Event) {
	if !s.enabled {
		return
	}
	go s.post(event)
}

func (s *NotificationService) post(event domain.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s event for request %s: %v", event.Type, event.RequestNo, err)
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️ Failed to deliver %s event for request %s: %v", event.Type, event.RequestNo, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ Webhook rejected %s event for request %s: HTTP %d", event.Type, event.RequestNo, resp.StatusCode)
	}
}
