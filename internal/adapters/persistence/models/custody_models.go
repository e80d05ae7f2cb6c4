package models

import (
	"time"

	"gorm.io/gorm"

	"sitegear-custody/internal/core/domain"
)

// ============================================================
// Custody Request Tables
// ============================================================

// CustodyRequest is the main table: one workflowable unit (single borrow, batch
// borrow, or maintenance). Version backs optimistic locking: every status
// write goes through a compare-and-set on (id, version, status).
type CustodyRequest struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	RequestNo      string             `gorm:"uniqueIndex;size:40;not null" json:"request_no"`
	Kind           domain.Kind        `gorm:"size:20;not null;index" json:"kind"`
	Status         domain.Status      `gorm:"size:30;not null;index" json:"status"`
	Criticality    domain.Criticality `gorm:"size:10;not null" json:"criticality"`
	Version        int                `gorm:"not null;default:1" json:"version"`
	RequesterID    uint               `gorm:"not null;index" json:"requester_id"`
	SiteCode       string             `gorm:"size:30;not null;index" json:"site_code"`
	Purpose        string             `gorm:"type:text" json:"purpose"`
	TotalValue     float64            `gorm:"type:decimal(15,2);not null" json:"total_value"`
	ExpectedReturn time.Time          `gorm:"not null;index" json:"expected_return"`
	ExtensionCount int                `gorm:"not null;default:0" json:"extension_count"`
	VerifiedBy     *string            `gorm:"size:50" json:"verified_by"`
	VerifiedAt     *time.Time         `json:"verified_at"`
	ApprovedBy     *string            `gorm:"size:50" json:"approved_by"`
	ApprovedAt     *time.Time         `json:"approved_at"`
	ActivatedAt    *time.Time         `json:"activated_at"`
	ClosedAt       *time.Time         `json:"closed_at"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relations
	Requester *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Items     []LineItem       `gorm:"foreignKey:RequestID" json:"items,omitempty"`
	Notes     []TransitionNote `gorm:"foreignKey:RequestID" json:"notes,omitempty"`
}

func (CustodyRequest) TableName() string {
	return "custody_requests"
}

// Ledger maps the request's line items to the quantity ledger's view.
// Canceled members never went out, so they carry no ledger entry and a
// return naming one is rejected.
func (r *CustodyRequest) Ledger() []domain.Line {
	lines := make([]domain.Line, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Status == domain.StatusCanceled {
			continue
		}
		lines = append(lines, domain.Line{ID: it.ID, Requested: it.Quantity, Returned: it.ReturnedQty})
	}
	return lines
}

// ItemValues maps line items to the classifier's view using snapshot fields.
func (r *CustodyRequest) ItemValues() []domain.ItemValue {
	items := make([]domain.ItemValue, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.ItemValue{UnitValue: it.UnitValue, Category: it.Category})
	}
	return items
}

// BatchStates maps line items to the batch aggregator's view.
func (r *CustodyRequest) BatchStates() []domain.ItemState {
	states := make([]domain.ItemState, 0, len(r.Items))
	for _, it := range r.Items {
		states = append(states, domain.ItemState{Status: it.Status, Remaining: it.Quantity - it.ReturnedQty})
	}
	return states
}

// LineItem is one asset position inside a request. UnitValue and Category
// are snapshots taken from the asset catalog at creation time.
type LineItem struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	RequestID    uint          `gorm:"not null;index" json:"request_id"`
	AssetID      uint          `gorm:"not null" json:"asset_id"`
	AssetCode    string        `gorm:"size:30;not null" json:"asset_code"`
	AssetName    string        `gorm:"size:150;not null" json:"asset_name"`
	Category     string        `gorm:"size:50;not null" json:"category"`
	UnitValue    float64       `gorm:"type:decimal(15,2);not null" json:"unit_value"`
	Quantity     int           `gorm:"not null" json:"quantity"`
	ReturnedQty  int           `gorm:"not null;default:0" json:"returned_qty"`
	Status       domain.Status `gorm:"size:30;not null" json:"status"`
	ConditionOut string        `gorm:"size:100" json:"condition_out"`
	ConditionIn  string        `gorm:"size:100" json:"condition_in"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Asset *Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}

func (LineItem) TableName() string {
	return "line_items"
}

func (li *LineItem) Remaining() int {
	return li.Quantity - li.ReturnedQty
}

// TransitionNote is the audit table: one append-only row per applied workflow
// action. Rows are never updated or deleted.
type TransitionNote struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	RequestID  uint          `gorm:"not null;index" json:"request_id"`
	Action     domain.Action `gorm:"size:20;not null" json:"action"`
	FromStatus domain.Status `gorm:"size:30;not null" json:"from_status"`
	ToStatus   domain.Status `gorm:"size:30;not null" json:"to_status"`
	ActorName  string        `gorm:"size:50;not null" json:"actor_name"`
	Note       string        `gorm:"type:text" json:"note"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (TransitionNote) TableName() string {
	return "transition_notes"
}

// ReturnEvent records one applied return submission. The unique index on
// (request_id, submission_id) makes replays of the same submission no-ops:
// a duplicate insert fails and the stored event is replayed to the caller.
type ReturnEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestID    uint      `gorm:"not null;uniqueIndex:idx_return_submission" json:"request_id"`
	SubmissionID string    `gorm:"size:64;not null;uniqueIndex:idx_return_submission" json:"submission_id"`
	ActorName    string    `gorm:"size:50;not null" json:"actor_name"`
	Payload      string    `gorm:"type:text;not null" json:"payload"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReturnEvent) TableName() string {
	return "return_events"
}

// ============================================================
// DTOs
// ============================================================

// LineItemResponse DTO
type LineItemResponse struct {
	ID           uint    `json:"id"`
	AssetID      uint    `json:"asset_id"`
	AssetCode    string  `json:"asset_code"`
	AssetName    string  `json:"asset_name"`
	Category     string  `json:"category"`
	UnitValue    float64 `json:"unit_value"`
	Quantity     int     `json:"quantity"`
	ReturnedQty  int     `json:"returned_qty"`
	Remaining    int     `json:"remaining"`
	Status       string  `json:"status"`
	ConditionOut string  `json:"condition_out,omitempty"`
	ConditionIn  string  `json:"condition_in,omitempty"`
}

func (li *LineItem) ToResponse() *LineItemResponse {
	return &LineItemResponse{
		ID:           li.ID,
		AssetID:      li.AssetID,
		AssetCode:    li.AssetCode,
		AssetName:    li.AssetName,
		Category:     li.Category,
		UnitValue:    li.UnitValue,
		Quantity:     li.Quantity,
		ReturnedQty:  li.ReturnedQty,
		Remaining:    li.Remaining(),
		Status:       string(li.Status),
		ConditionOut: li.ConditionOut,
		ConditionIn:  li.ConditionIn,
	}
}

// TransitionNoteResponse DTO
type TransitionNoteResponse struct {
	ID         uint      `json:"id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorName  string    `json:"actor_name"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (n *TransitionNote) ToResponse() *TransitionNoteResponse {
	return &TransitionNoteResponse{
		ID:         n.ID,
		Action:     string(n.Action),
		FromStatus: string(n.FromStatus),
		ToStatus:   string(n.ToStatus),
		ActorName:  n.ActorName,
		Note:       n.Note,
		CreatedAt:  n.CreatedAt,
	}
}

// CustodyRequestResponse DTO
type CustodyRequestResponse struct {
	ID             uint                      `json:"id"`
	RequestNo      string                    `json:"request_no"`
	Kind           string                    `json:"kind"`
	Status         string                    `json:"status"`
	StatusLabel    string                    `json:"status_label"`
	Criticality    string                    `json:"criticality"`
	Version        int                       `json:"version"`
	RequesterID    uint                      `json:"requester_id"`
	RequesterName  string                    `json:"requester_name,omitempty"`
	SiteCode       string                    `json:"site_code"`
	Purpose        string                    `json:"purpose"`
	TotalValue     float64                   `json:"total_value"`
	ExpectedReturn time.Time                 `json:"expected_return"`
	ExtensionCount int                       `json:"extension_count"`
	IsOverdue      bool                      `json:"is_overdue"`
	DaysOverdue    int                       `json:"days_overdue"`
	VerifiedBy     *string                   `json:"verified_by"`
	VerifiedAt     *time.Time                `json:"verified_at"`
	ApprovedBy     *string                   `json:"approved_by"`
	ApprovedAt     *time.Time                `json:"approved_at"`
	ActivatedAt    *time.Time                `json:"activated_at"`
	ClosedAt       *time.Time                `json:"closed_at"`
	Items          []*LineItemResponse       `json:"items,omitempty"`
	Notes          []*TransitionNoteResponse `json:"notes,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// ToResponse builds the DTO. Overdue is computed against the given clock at
// read time, it is never stored.
func (r *CustodyRequest) ToResponse(now time.Time) *CustodyRequestResponse {
	resp := &CustodyRequestResponse{
		ID:             r.ID,
		RequestNo:      r.RequestNo,
		Kind:           string(r.Kind),
		Status:         string(r.Status),
		StatusLabel:    r.Status.Label(r.Kind),
		Criticality:    string(r.Criticality),
		Version:        r.Version,
		RequesterID:    r.RequesterID,
		SiteCode:       r.SiteCode,
		Purpose:        r.Purpose,
		TotalValue:     r.TotalValue,
		ExpectedReturn: r.ExpectedReturn,
		ExtensionCount: r.ExtensionCount,
		IsOverdue:      domain.IsOverdue(r.Status, r.ExpectedReturn, now),
		VerifiedBy:     r.VerifiedBy,
		VerifiedAt:     r.VerifiedAt,
		ApprovedBy:     r.ApprovedBy,
		ApprovedAt:     r.ApprovedAt,
		ActivatedAt:    r.ActivatedAt,
		ClosedAt:       r.ClosedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if resp.IsOverdue {
		resp.DaysOverdue = domain.DaysOverdue(r.ExpectedReturn, now)
	}
	if r.Requester != nil {
		resp.RequesterName = r.Requester.Username
	}
	for i := range r.Items {
		resp.Items = append(resp.Items, r.Items[i].ToResponse())
	}
	for i := range r.Notes {
		resp.Notes = append(resp.Notes, r.Notes[i].ToResponse())
	}
	return resp
}
