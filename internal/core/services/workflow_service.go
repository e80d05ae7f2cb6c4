package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/adapters/persistence/repositories"
	"sitegear-custody/internal/config"
	"sitegear-custody/internal/core/domain"
)

// Workflow service errors
var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrAssetInactive = errors.New("asset is not active")
)

// WorkflowService drives custody requests through their lifecycle. Every
// command is load, decide in the domain, then one compare-and-set write;
// a version conflict triggers a bounded re-read and retry.
type WorkflowService struct {
	requestRepo      repositories.RequestRepository
	assetRepo        repositories.AssetRepository
	notify           *NotificationService
	borrowPolicy     domain.CriticalityPolicy
	maintPolicy      domain.CriticalityPolicy
	extPolicy        domain.ExtensionPolicy
	verifyChecklist  []string
	approveChecklist []string
	criticalApprove  []string
	casRetries       int
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	requestRepo repositories.RequestRepository,
	assetRepo repositories.AssetRepository,
	notify *NotificationService,
	cfg config.WorkflowConfig,
) *WorkflowService {
	categories := make(map[string]bool, len(cfg.CriticalCategories))
	for _, c := range cfg.CriticalCategories {
		categories[c] = true
	}

	return &WorkflowService{
		requestRepo:      requestRepo,
		assetRepo:        assetRepo,
		notify:           notify,
		borrowPolicy:     domain.CriticalityPolicy{CostThreshold: cfg.BorrowCriticalValue, CriticalCategories: categories},
		maintPolicy:      domain.CriticalityPolicy{CostThreshold: cfg.MaintCriticalValue, CriticalCategories: categories},
		extPolicy:        domain.ExtensionPolicy{MaxExtensions: cfg.MaxExtensions, MaxExtensionDays: cfg.MaxExtensionDays},
		verifyChecklist:  cfg.VerifyChecklist,
		approveChecklist: cfg.ApproveChecklist,
		criticalApprove:  cfg.CriticalApproveList,
		casRetries:       cfg.CasRetries,
	}
}

func (s *WorkflowService) policyFor(kind domain.Kind) domain.CriticalityPolicy {
	if kind == domain.KindMaintenance {
		return s.maintPolicy
	}
	return s.borrowPolicy
}

// withRetry re-runs a load-decide-write cycle while it loses version races.
// Each attempt re-reads, so stale guards are re-evaluated before retrying.
func (s *WorkflowService) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.casRetries; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

// ============================================================
// Create
// ============================================================

// CreateItemInput represents one requested asset position
type CreateItemInput struct {
	AssetID  uint `json:"asset_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,gt=0"`
}

// CreateRequestInput represents create request input
type CreateRequestInput struct {
	Kind           domain.Kind       `json:"kind" validate:"required"`
	SiteCode       string            `json:"site_code" validate:"required"`
	Purpose        string            `json:"purpose,omitempty"`
	ExpectedReturn time.Time         `json:"expected_return" validate:"required"`
	Items          []CreateItemInput `json:"items" validate:"required,dive"`
}

// Create creates a new request in DRAFT. Criticality is classified here from
// asset snapshots and never recomputed afterwards.
func (s *WorkflowService) Create(ctx context.Context, input *CreateRequestInput, actor domain.Actor) (*models.CustodyRequest, error) {
	switch input.Kind {
	case domain.KindBorrowSingle, domain.KindBorrowBatch, domain.KindMaintenance:
	default:
		return nil, &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", input.Kind)}
	}
	if len(input.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	if input.Kind != domain.KindBorrowBatch && len(input.Items) != 1 {
		return nil, &domain.ValidationError{Field: "items", Reason: "only batch requests may carry multiple items"}
	}
	if !input.ExpectedReturn.After(time.Now()) {
		return nil, &domain.ValidationError{Field: "expected_return", Reason: "expected return must be in the future"}
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, &domain.ValidationError{Field: "items", Reason: fmt.Sprintf("quantity %d must be positive", it.Quantity)}
		}
	}

	// Snapshot assets
	ids := make([]uint, 0, len(input.Items))
	for _, it := range input.Items {
		ids = append(ids, it.AssetID)
	}
	assets, err := s.assetRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	var (
		items      []models.LineItem
		values     []domain.ItemValue
		totalValue float64
	)
	for _, it := range input.Items {
		asset, ok := byID[it.AssetID]
		if !ok {
			return nil, ErrAssetNotFound
		}
		if !asset.IsActive {
			return nil, ErrAssetInactive
		}
		items = append(items, models.LineItem{
			AssetID:   asset.ID,
			AssetCode: asset.AssetCode,
			AssetName: asset.Name,
			Category:  asset.Category,
			UnitValue: asset.UnitValue,
			Quantity:  it.Quantity,
			Status:    domain.StatusDraft,
		})
		values = append(values, domain.ItemValue{UnitValue: asset.UnitValue, Category: asset.Category})
		totalValue += asset.UnitValue * float64(it.Quantity)
	}

	request := &models.CustodyRequest{
		RequestNo:      "REQ-" + strings.ToUpper(uuid.NewString()[:8]),
		Kind:           input.Kind,
		Status:         domain.StatusDraft,
		Criticality:    s.policyFor(input.Kind).Classify(values),
		Version:        1,
		RequesterID:    actor.ID,
		SiteCode:       input.SiteCode,
		Purpose:        input.Purpose,
		TotalValue:     totalValue,
		ExpectedReturn: input.ExpectedReturn,
		Items:          items,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ============================================================
// Workflow commands
// ============================================================

// Submit moves a draft into the approval pipeline. Basic requests traverse
// verification and approval in the same write with the system actor recorded
// as both verifier and approver; Critical requests enter the full chain.
func (s *WorkflowService) Submit(ctx context.Context, id uint, actor domain.Actor) (*models.CustodyRequest, error) {
	var out *models.CustodyRequest
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Authorize(domain.ActionSubmit, request.Status, actor); err != nil {
			return err
		}

		target := domain.NextOnSubmit(request.Criticality)
		now := time.Now()
		fields := map[string]interface{}{"status": target}
		itemFields := map[uint]map[string]interface{}{}
		for _, it := range request.Items {
			// A canceled member stays canceled; terminal line states are
			// never left again.
			if it.Status.IsTerminal() {
				continue
			}
			itemFields[it.ID] = map[string]interface{}{"status": target}
		}

		note := &models.TransitionNote{
			RequestID:  request.ID,
			Action:     domain.ActionSubmit,
			FromStatus: request.Status,
			ToStatus:   target,
			ActorName:  actor.Name,
		}
		if target == domain.StatusApproved {
			// Streamlined path: the auto-traversed steps are attributed to
			// the system actor, never to the submitting user.
			sys := domain.SystemActorName
			fields["verified_by"] = sys
			fields["verified_at"] = now
			fields["approved_by"] = sys
			fields["approved_at"] = now
			note.Note = "auto-approved on submission (basic criticality)"
		}

		if err := s.requestRepo.UpdateStatus(ctx, repositories.StatusUpdate{
			RequestID:       request.ID,
			ExpectedStatus:  request.Status,
			ExpectedVersion: request.Version,
			Fields:          fields,
			ItemUpdates:     itemFields,
			Note:            note,
		}); err != nil {
			return err
		}

		out, err = s.requestRepo.GetByID(ctx, id)
		if err == nil {
			s.emit(domain.EventRequestSubmitted, out, actor.Name, "")
			if target == domain.StatusApproved {
				s.emit(domain.EventRequestApproved, out, domain.SystemActorName, "auto-approved")
			}
		}
		return err
	})
	return out, err
}

// Verify records the verifier's checklist pass and advances to approval.
func (s *WorkflowService) Verify(ctx context.Context, id uint, actor domain.Actor, checklist map[string]bool, note string) (*models.CustodyRequest, error) {
	return s.advance(ctx, id, actor, domain.ActionVerify, func(request *models.CustodyRequest) (map[string]interface{}, string, error) {
		if err := domain.CheckChecklist(domain.ActionVerify, s.verifyChecklist, checklist); err != nil {
			return nil, "", err
		}
		now := time.Now()
		return map[string]interface{}{
			"status":      domain.Next(domain.ActionVerify),
			"verified_by": actor.Name,
			"verified_at": now,
		}, note, nil
	})
}

// Approve records the authorizer's decision. Critical requests carry extra
// required checklist flags, and high-value maintenance work requires a
// written justification on the approval itself.
func (s *WorkflowService) Approve(ctx context.Context, id uint, actor domain.Actor, checklist map[string]bool, note string) (*models.CustodyRequest, error) {
	return s.advance(ctx, id, actor, domain.ActionApprove, func(request *models.CustodyRequest) (map[string]interface{}, string, error) {
		required := s.approveChecklist
		if request.Criticality == domain.CriticalityCritical {
			required = append(append([]string{}, required...), s.criticalApprove...)
		}
		if err := domain.CheckChecklist(domain.ActionApprove, required, checklist); err != nil {
			return nil, "", err
		}
		if request.Kind == domain.KindMaintenance &&
			request.TotalValue > s.maintPolicy.CostThreshold &&
			strings.TrimSpace(note) == "" {
			return nil, "", &domain.BusinessRuleError{
				Rule:   domain.RuleReasonRequired,
				Detail: fmt.Sprintf("maintenance above %.2f requires an approval note", s.maintPolicy.CostThreshold),
			}
		}
		now := time.Now()
		return map[string]interface{}{
			"status":      domain.Next(domain.ActionApprove),
			"approved_by": actor.Name,
			"approved_at": now,
		}, note, nil
	})
}

// Activate hands the equipment over. ConditionOut notes per line are
// recorded at the moment custody actually transfers.
func (s *WorkflowService) Activate(ctx context.Context, id uint, actor domain.Actor, conditionOut map[uint]string) (*models.CustodyRequest, error) {
	var out *models.CustodyRequest
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Authorize(domain.ActionActivate, request.Status, actor); err != nil {
			return err
		}

		now := time.Now()
		itemFields := map[uint]map[string]interface{}{}
		for _, it := range request.Items {
			if it.Status.IsTerminal() {
				continue
			}
			fields := map[string]interface{}{"status": domain.StatusActive}
			if cond, ok := conditionOut[it.ID]; ok {
				fields["condition_out"] = cond
			}
			itemFields[it.ID] = fields
		}

		if err := s.requestRepo.UpdateStatus(ctx, repositories.StatusUpdate{
			RequestID:       request.ID,
			ExpectedStatus:  request.Status,
			ExpectedVersion: request.Version,
			Fields: map[string]interface{}{
				"status":       domain.StatusActive,
				"activated_at": now,
			},
			ItemUpdates: itemFields,
			Note: &models.TransitionNote{
				RequestID:  request.ID,
				Action:     domain.ActionActivate,
				FromStatus: request.Status,
				ToStatus:   domain.StatusActive,
				ActorName:  actor.Name,
			},
		}); err != nil {
			return err
		}

		out, err = s.requestRepo.GetByID(ctx, id)
		if err == nil {
			s.emit(domain.EventRequestActivated, out, actor.Name, "")
		}
		return err
	})
	return out, err
}

// ReturnLineInput is one line of a return submission
type ReturnLineInput struct {
	LineItemID  uint   `json:"line_item_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required"`
	ConditionIn string `json:"condition_in,omitempty"`
}

// ReturnInput represents a return submission. SubmissionID is the caller's
// idempotency key: replaying the same key applies nothing and returns the
// already-recorded outcome.
type ReturnInput struct {
	SubmissionID string            `json:"submission_id" validate:"required"`
	Lines        []ReturnLineInput `json:"lines" validate:"required,dive"`
	Note         string            `json:"note,omitempty"`
}

// ReturnResult carries the post-return request plus a replay marker.
type ReturnResult struct {
	Request  *models.CustodyRequest
	Replayed bool
}

// Return applies a (possibly partial) return. Validation is all-or-nothing
// across every submitted line; the ledger, line statuses, request status and
// audit note land in one transaction.
func (s *WorkflowService) Return(ctx context.Context, id uint, actor domain.Actor, input *ReturnInput) (*ReturnResult, error) {
	if strings.TrimSpace(input.SubmissionID) == "" {
		return nil, &domain.ValidationError{Field: "submission_id", Reason: "submission id is required"}
	}
	if len(input.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "at least one line is required"}
	}

	// Replay check before doing any work.
	if _, err := s.requestRepo.GetReturnEvent(ctx, id, input.SubmissionID); err == nil {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ReturnResult{Request: request, Replayed: true}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var out *ReturnResult
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Authorize(domain.ActionReturn, request.Status, actor); err != nil {
			return err
		}

		submission := make([]domain.ReturnLine, 0, len(input.Lines))
		for _, l := range input.Lines {
			submission = append(submission, domain.ReturnLine{
				LineItemID:  l.LineItemID,
				Quantity:    l.Quantity,
				ConditionIn: l.ConditionIn,
			})
		}

		updated, err := domain.ApplyReturns(request.Ledger(), submission)
		if err != nil {
			return err
		}

		conditionIn := make(map[uint]string, len(input.Lines))
		for _, l := range input.Lines {
			conditionIn[l.LineItemID] = l.ConditionIn
		}

		// Only lines named in the submission are written.
		lineUpdates := make(map[uint]repositories.LineUpdate)
		for _, line := range updated {
			cond, submitted := conditionIn[line.ID]
			if !submitted {
				continue
			}
			lu := repositories.LineUpdate{ReturnedQty: line.Returned, Status: domain.StatusActive, ConditionIn: cond}
			if line.IsFullyReturned() {
				lu.Status = domain.StatusClosed
			}
			lineUpdates[line.ID] = lu
		}

		// Fold the submission into the member states and re-derive the
		// request status from them; it is never set independently.
		for i := range request.Items {
			if lu, ok := lineUpdates[request.Items[i].ID]; ok {
				request.Items[i].ReturnedQty = lu.ReturnedQty
				request.Items[i].Status = lu.Status
			}
		}
		target := domain.DeriveBatchStatus(request.BatchStates())

		now := time.Now()
		fields := map[string]interface{}{"status": target}
		if target == domain.StatusClosed {
			fields["closed_at"] = now
		}

		payload, _ := json.Marshal(input.Lines)
		app := &repositories.ReturnApplication{
			Update: repositories.StatusUpdate{
				RequestID:       request.ID,
				ExpectedStatus:  request.Status,
				ExpectedVersion: request.Version,
				Fields:          fields,
				Note: &models.TransitionNote{
					RequestID:  request.ID,
					Action:     domain.ActionReturn,
					FromStatus: request.Status,
					ToStatus:   target,
					ActorName:  actor.Name,
					Note:       input.Note,
				},
			},
			Event: &models.ReturnEvent{
				RequestID:    request.ID,
				SubmissionID: input.SubmissionID,
				ActorName:    actor.Name,
				Payload:      string(payload),
			},
			LineUpdates: lineUpdates,
		}

		if err := s.requestRepo.ApplyReturn(ctx, app); err != nil {
			// A concurrent replay of the same submission may have landed
			// between our check and this write.
			if _, replayErr := s.requestRepo.GetReturnEvent(ctx, id, input.SubmissionID); replayErr == nil {
				request, err := s.requestRepo.GetByID(ctx, id)
				if err != nil {
					return err
				}
				out = &ReturnResult{Request: request, Replayed: true}
				return nil
			}
			return err
		}

		request, err = s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = &ReturnResult{Request: request}
		s.emit(domain.EventRequestReturned, request, actor.Name, fmt.Sprintf("submission %s", input.SubmissionID))
		return nil
	})
	return out, err
}

// Extend pushes the expected return date out, bounded by the extension
// policy. The extension counter only moves forward with the date in the
// same compare-and-set write.
func (s *WorkflowService) Extend(ctx context.Context, id uint, actor domain.Actor, newDate time.Time, reason string) (*models.CustodyRequest, error) {
	var out *models.CustodyRequest
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Authorize(domain.ActionExtend, request.Status, actor); err != nil {
			return err
		}
		if err := s.extPolicy.Validate(domain.ExtensionState{
			Status:         request.Status,
			ExpectedReturn: request.ExpectedReturn,
			ExtensionCount: request.ExtensionCount,
		}, newDate, reason); err != nil {
			return err
		}

		if err := s.requestRepo.UpdateStatus(ctx, repositories.StatusUpdate{
			RequestID:       request.ID,
			ExpectedStatus:  request.Status,
			ExpectedVersion: request.Version,
			Fields: map[string]interface{}{
				"expected_return": newDate,
				"extension_count": request.ExtensionCount + 1,
			},
			Note: &models.TransitionNote{
				RequestID:  request.ID,
				Action:     domain.ActionExtend,
				FromStatus: request.Status,
				ToStatus:   request.Status,
				ActorName:  actor.Name,
				Note:       reason,
			},
		}); err != nil {
			return err
		}

		out, err = s.requestRepo.GetByID(ctx, id)
		if err == nil {
			s.emit(domain.EventRequestExtended, out, actor.Name, fmt.Sprintf("new date %s", newDate.Format("2006-01-02")))
		}
		return err
	})
	return out, err
}

// Cancel aborts a request that has not yet gone active.
func (s *WorkflowService) Cancel(ctx context.Context, id uint, actor domain.Actor, reason string) (*models.CustodyRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &domain.BusinessRuleError{Rule: domain.RuleReasonRequired, Detail: "a cancellation reason must be provided"}
	}

	var out *models.CustodyRequest
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Authorize(domain.ActionCancel, request.Status, actor); err != nil {
			return err
		}

		itemFields := map[uint]map[string]interface{}{}
		for _, it := range request.Items {
			if it.Status.IsTerminal() {
				continue
			}
			itemFields[it.ID] = map[string]interface{}{"status": domain.StatusCanceled}
		}

		if err := s.requestRepo.UpdateStatus(ctx, repositories.StatusUpdate{
			RequestID:       request.ID,
			ExpectedStatus:  request.Status,
			ExpectedVersion: request.Version,
			Fields:          map[string]interface{}{"status": domain.StatusCanceled},
			ItemUpdates:     itemFields,
			Note: &models.TransitionNote{
				RequestID:  request.ID,
				Action:     domain.ActionCancel,
				FromStatus: request.Status,
				ToStatus:   domain.StatusCanceled,
				ActorName:  actor.Name,
				Note:       reason,
			},
		}); err != nil {
			return err
		}

		out, err = s.requestRepo.GetByID(ctx, id)
		if err == nil {
			s.emit(domain.EventRequestCanceled, out, actor.Name, reason)
		}
		return err
	})
	return out, err
}

// CancelItem aborts one member of a batch before activation. The batch
// status is re-derived from the surviving members in the same write.
func (s *WorkflowService) CancelItem(ctx context.Context, id, lineItemID uint, actor domain.Actor, reason string) (*models.CustodyRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &domain.BusinessRuleError{Rule: domain.RuleReasonRequired, Detail: "a cancellation reason must be provided"}
	}

	var out *models.CustodyRequest
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if request.Kind != domain.KindBorrowBatch {
			return &domain.ValidationError{Field: "line_item_id", Reason: "only batch members can be canceled individually"}
		}
		if err := domain.Authorize(domain.ActionCancel, request.Status, actor); err != nil {
			return err
		}

		found := false
		states := make([]domain.ItemState, 0, len(request.Items))
		for _, it := range request.Items {
			st := it.Status
			if it.ID == lineItemID {
				found = true
				st = domain.StatusCanceled
			}
			states = append(states, domain.ItemState{Status: st, Remaining: it.Remaining()})
		}
		if !found {
			return domain.ErrNotFound
		}

		target := domain.DeriveBatchStatus(states)
		if err := s.requestRepo.UpdateStatus(ctx, repositories.StatusUpdate{
			RequestID:       request.ID,
			ExpectedStatus:  request.Status,
			ExpectedVersion: request.Version,
			Fields:          map[string]interface{}{"status": target},
			ItemUpdates: map[uint]map[string]interface{}{
				lineItemID: {"status": domain.StatusCanceled},
			},
			Note: &models.TransitionNote{
				RequestID:  request.ID,
				Action:     domain.ActionCancel,
				FromStatus: request.Status,
				ToStatus:   target,
				ActorName:  actor.Name,
				Note:       fmt.Sprintf("line %d canceled: %s", lineItemID, reason),
			},
		}); err != nil {
			return err
		}

		out, err = s.requestRepo.GetByID(ctx, id)
		if err == nil {
			s.emit(domain.EventRequestCanceled, out, actor.Name, fmt.Sprintf("line %d: %s", lineItemID, reason))
		}
		return err
	})
	return out, err
}

// advance is the shared shape of verify and approve: authorize, compute
// fields, one CAS write, reload.
func (s *WorkflowService) advance(
	ctx context.Context,
	id uint,
	actor domain.Actor,
	action domain.Action,
	decide func(*models.CustodyRequest) (map[string]interface{}, string, error),
) (*models.CustodyRequest, error) {
	var out *models.CustodyRequest
	err := s.withRetry(func() error {
		request, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Authorize(action, request.Status, actor); err != nil {
			return err
		}

		fields, note, err := decide(request)
		if err != nil {
			return err
		}
		target := fields["status"].(domain.Status)

		itemFields := map[uint]map[string]interface{}{}
		for _, it := range request.Items {
			if it.Status.IsTerminal() {
				continue
			}
			itemFields[it.ID] = map[string]interface{}{"status": target}
		}

		if err := s.requestRepo.UpdateStatus(ctx, repositories.StatusUpdate{
			RequestID:       request.ID,
			ExpectedStatus:  request.Status,
			ExpectedVersion: request.Version,
			Fields:          fields,
			ItemUpdates:     itemFields,
			Note: &models.TransitionNote{
				RequestID:  request.ID,
				Action:     action,
				FromStatus: request.Status,
				ToStatus:   target,
				ActorName:  actor.Name,
				Note:       note,
			},
		}); err != nil {
			return err
		}

		out, err = s.requestRepo.GetByID(ctx, id)
		if err == nil {
			switch action {
			case domain.ActionVerify:
				s.emit(domain.EventRequestVerified, out, actor.Name, note)
			case domain.ActionApprove:
				s.emit(domain.EventRequestApproved, out, actor.Name, note)
			}
		}
		return err
	})
	return out, err
}

// ============================================================
// Queries
// ============================================================

// GetByID gets a request by ID
func (s *WorkflowService) GetByID(ctx context.Context, id uint) (*models.CustodyRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// GetByRequestNo gets a request by its request number
func (s *WorkflowService) GetByRequestNo(ctx context.Context, requestNo string) (*models.CustodyRequest, error) {
	return s.requestRepo.GetByRequestNo(ctx, requestNo)
}

// ListInput represents list input
type ListInput struct {
	Page        int
	Limit       int
	Kind        domain.Kind
	Status      domain.Status
	SiteCode    string
	RequesterID uint
}

// List lists requests with pagination
func (s *WorkflowService) List(ctx context.Context, input *ListInput) ([]*models.CustodyRequest, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 || input.Limit > 100 {
		input.Limit = 20
	}
	offset := (input.Page - 1) * input.Limit

	return s.requestRepo.List(ctx, repositories.RequestFilter{
		Kind:        input.Kind,
		Status:      input.Status,
		SiteCode:    input.SiteCode,
		RequesterID: input.RequesterID,
	}, offset, input.Limit)
}

// ListOverdue lists active requests past their expected return as of now.
func (s *WorkflowService) ListOverdue(ctx context.Context, now time.Time) ([]*models.CustodyRequest, error) {
	return s.requestRepo.ListActiveDueBefore(ctx, now)
}

// GetHistory gets the audit trail of a request, oldest first
func (s *WorkflowService) GetHistory(ctx context.Context, id uint) ([]*models.TransitionNote, error) {
	if _, err := s.requestRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.requestRepo.GetNotes(ctx, id)
}

func (s *WorkflowService) emit(eventType domain.EventType, request *models.CustodyRequest, actorName, detail string) {
	if s.notify == nil {
		return
	}
	s.notify.Publish(domain.Event{
		Type:       eventType,
		RequestID:  request.ID,
		RequestNo:  request.RequestNo,
		Kind:       request.Kind,
		Status:     request.Status,
		Actor:      actorName,
		Detail:     detail,
		OccurredAt: time.Now(),
	})
}
