package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"sitegear-custody/internal/adapters/persistence/repositories"
	"sitegear-custody/internal/core/domain"
)

// OverdueService runs the scheduled overdue sweep. Overdue is never written
// to a request: the sweep only reads, computes against the clock and
// notifies. The same computation backs the overdue listing endpoint, so the
// two can never disagree.
type OverdueService struct {
	requestRepo repositories.RequestRepository
	notify      *NotificationService
	scheduler   *cron.Cron
	spec        string
}

// NewOverdueService creates a new overdue service
func NewOverdueService(requestRepo repositories.RequestRepository, notify *NotificationService, cronSpec string) *OverdueService {
	return &OverdueService{
		requestRepo: requestRepo,
		notify:      notify,
		scheduler:   cron.New(),
		spec:        cronSpec,
	}
}

// Start schedules the sweep
func (s *OverdueService) Start() error {
	if _, err := s.scheduler.AddFunc(s.spec, s.Sweep); err != nil {
		return err
	}
	s.scheduler.Start()
	log.Printf("🚀 Overdue sweep scheduled [%s]", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *OverdueService) Stop() {
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	log.Println("🛑 Overdue sweep stopped")
}

// Sweep finds every active request past its expected return and emits one
// overdue event per request.
func (s *OverdueService) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	requests, err := s.requestRepo.ListActiveDueBefore(ctx, now)
	if err != nil {
		log.Printf("❌ Overdue sweep query error: %v", err)
		return
	}

	for _, request := range requests {
		if !domain.IsOverdue(request.Status, request.ExpectedReturn, now) {
			continue
		}
		days := domain.DaysOverdue(request.ExpectedReturn, now)
		log.Printf("⚠️ Request %s is %d day(s) overdue", request.RequestNo, days)
		if s.notify != nil {
			s.notify.Publish(domain.Event{
				Type:       domain.EventRequestOverdue,
				RequestID:  request.ID,
				RequestNo:  request.RequestNo,
				Kind:       request.Kind,
				Status:     request.Status,
				Actor:      domain.SystemActorName,
				Detail:     request.ExpectedReturn.Format("2006-01-02"),
				OccurredAt: now,
			})
		}
	}

	if len(requests) > 0 {
		log.Printf("✅ Overdue sweep completed: %d request(s) flagged", len(requests))
	}
}
