package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/adapters/persistence/repositories"
	"sitegear-custody/internal/config"
	"sitegear-custody/internal/core/domain"
)

// ============================================================
// In-memory fakes
// ============================================================

type fakeRequestRepo struct {
	mu        sync.Mutex
	seq       uint
	lineSeq   uint
	requests  map[uint]*models.CustodyRequest
	events    map[uint]map[string]*models.ReturnEvent
	notes     map[uint][]*models.TransitionNote
	conflicts int // number of CAS writes to reject before accepting
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[uint]*models.CustodyRequest),
		events:   make(map[uint]map[string]*models.ReturnEvent),
		notes:    make(map[uint][]*models.TransitionNote),
	}
}

func cloneRequest(r *models.CustodyRequest) *models.CustodyRequest {
	out := *r
	out.Items = make([]models.LineItem, len(r.Items))
	copy(out.Items, r.Items)
	return &out
}

func (f *fakeRequestRepo) Create(_ context.Context, request *models.CustodyRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	request.ID = f.seq
	for i := range request.Items {
		f.lineSeq++
		request.Items[i].ID = f.lineSeq
		request.Items[i].RequestID = request.ID
	}
	f.requests[request.ID] = cloneRequest(request)
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id uint) (*models.CustodyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRequest(r), nil
}

func (f *fakeRequestRepo) GetByRequestNo(_ context.Context, requestNo string) (*models.CustodyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.RequestNo == requestNo {
			return cloneRequest(r), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRequestRepo) List(_ context.Context, filter repositories.RequestFilter, _, _ int) ([]*models.CustodyRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CustodyRequest
	for _, r := range f.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequestRepo) ListActiveDueBefore(_ context.Context, deadline time.Time) ([]*models.CustodyRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CustodyRequest
	for _, r := range f.requests {
		if r.Status.IsActive() && r.ExpectedReturn.Before(deadline) {
			out = append(out, cloneRequest(r))
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) applyLocked(update repositories.StatusUpdate) error {
	if f.conflicts > 0 {
		f.conflicts--
		return domain.ErrConflict
	}
	r, ok := f.requests[update.RequestID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Version != update.ExpectedVersion || r.Status != update.ExpectedStatus {
		return domain.ErrConflict
	}

	for k, v := range update.Fields {
		switch k {
		case "status":
			r.Status = v.(domain.Status)
		case "verified_by":
			s := v.(string)
			r.VerifiedBy = &s
		case "verified_at":
			t := v.(time.Time)
			r.VerifiedAt = &t
		case "approved_by":
			s := v.(string)
			r.ApprovedBy = &s
		case "approved_at":
			t := v.(time.Time)
			r.ApprovedAt = &t
		case "activated_at":
			t := v.(time.Time)
			r.ActivatedAt = &t
		case "closed_at":
			t := v.(time.Time)
			r.ClosedAt = &t
		case "expected_return":
			r.ExpectedReturn = v.(time.Time)
		case "extension_count":
			r.ExtensionCount = v.(int)
		}
	}
	r.Version = update.ExpectedVersion + 1

	for lineID, fields := range update.ItemUpdates {
		for i := range r.Items {
			if r.Items[i].ID != lineID {
				continue
			}
			for k, v := range fields {
				switch k {
				case "status":
					r.Items[i].Status = v.(domain.Status)
				case "condition_out":
					r.Items[i].ConditionOut = v.(string)
				}
			}
		}
	}

	if update.Note != nil {
		f.notes[update.RequestID] = append(f.notes[update.RequestID], update.Note)
	}
	return nil
}

func (f *fakeRequestRepo) UpdateStatus(_ context.Context, update repositories.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyLocked(update)
}

func (f *fakeRequestRepo) ApplyReturn(_ context.Context, app *repositories.ReturnApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.events[app.Event.RequestID][app.Event.SubmissionID]; ok {
		return errors.New("duplicate submission")
	}
	if err := f.applyLocked(app.Update); err != nil {
		return err
	}

	r := f.requests[app.Update.RequestID]
	for lineID, lu := range app.LineUpdates {
		for i := range r.Items {
			if r.Items[i].ID != lineID {
				continue
			}
			r.Items[i].ReturnedQty = lu.ReturnedQty
			r.Items[i].Status = lu.Status
			// Condition-in accumulates across partial returns.
			if lu.ConditionIn != "" {
				if r.Items[i].ConditionIn == "" {
					r.Items[i].ConditionIn = lu.ConditionIn
				} else {
					r.Items[i].ConditionIn += "\n" + lu.ConditionIn
				}
			}
		}
	}

	if f.events[app.Event.RequestID] == nil {
		f.events[app.Event.RequestID] = make(map[string]*models.ReturnEvent)
	}
	f.events[app.Event.RequestID][app.Event.SubmissionID] = app.Event
	return nil
}

func (f *fakeRequestRepo) GetReturnEvent(_ context.Context, requestID uint, submissionID string) (*models.ReturnEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.events[requestID][submissionID]; ok {
		return ev, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRequestRepo) GetNotes(_ context.Context, requestID uint) ([]*models.TransitionNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notes[requestID], nil
}

type fakeAssetRepo struct {
	assets map[uint]*models.Asset
}

func (f *fakeAssetRepo) Create(_ context.Context, asset *models.Asset) error {
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeAssetRepo) GetByID(_ context.Context, id uint) (*models.Asset, error) {
	if a, ok := f.assets[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAssetRepo) GetByIDs(_ context.Context, ids []uint) ([]*models.Asset, error) {
	var out []*models.Asset
	for _, id := range ids {
		if a, ok := f.assets[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) GetByCode(_ context.Context, code string) (*models.Asset, error) {
	for _, a := range f.assets {
		if a.AssetCode == code {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAssetRepo) Update(_ context.Context, asset *models.Asset) error {
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeAssetRepo) Delete(_ context.Context, id uint) error {
	delete(f.assets, id)
	return nil
}

func (f *fakeAssetRepo) List(_ context.Context, _ string, _, _ int) ([]*models.Asset, int64, error) {
	var out []*models.Asset
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

// ============================================================
// Fixtures
// ============================================================

var (
	maker    = domain.Actor{ID: 1, Name: "mark", Roles: []domain.Role{domain.RoleMaker}}
	verifier = domain.Actor{ID: 2, Name: "vera", Roles: []domain.Role{domain.RoleVerifier}}
	approver = domain.Actor{ID: 3, Name: "ana", Roles: []domain.Role{domain.RoleAuthorizer}}
	keeper   = domain.Actor{ID: 4, Name: "wally", Roles: []domain.Role{domain.RoleWarehouseman}}
)

func passChecklist() map[string]bool {
	return map[string]bool{"items_inspected": true, "quantities_match": true}
}

func passApproveChecklist() map[string]bool {
	return map[string]bool{"budget_confirmed": true}
}

func testWorkflowConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		BorrowCriticalValue: 50000,
		MaintCriticalValue:  100000,
		CriticalCategories:  []string{"HEAVY_EQUIPMENT", "SURVEYING"},
		MaxExtensions:       2,
		MaxExtensionDays:    30,
		CasRetries:          3,
		VerifyChecklist:     []string{"items_inspected", "quantities_match"},
		CriticalApproveList: []string{"budget_confirmed"},
	}
}

func newTestService() (*WorkflowService, *fakeRequestRepo) {
	requestRepo := newFakeRequestRepo()
	assetRepo := &fakeAssetRepo{assets: map[uint]*models.Asset{
		1: {ID: 1, AssetCode: "PT-001", Name: "Impact Drill", Category: "POWER_TOOL", UnitValue: 10000, IsActive: true},
		2: {ID: 2, AssetCode: "GEN-001", Name: "Diesel Generator", Category: "POWER_TOOL", UnitValue: 75000, IsActive: true},
		3: {ID: 3, AssetCode: "HT-001", Name: "Sledgehammer", Category: "HAND_TOOL", UnitValue: 1500, IsActive: true},
		4: {ID: 4, AssetCode: "RET-001", Name: "Retired Mixer", Category: "POWER_TOOL", UnitValue: 20000, IsActive: false},
		5: {ID: 5, AssetCode: "EXC-001", Name: "Mini Excavator", Category: "HEAVY_EQUIPMENT", UnitValue: 75000, IsActive: true},
	}}
	svc := NewWorkflowService(requestRepo, assetRepo, nil, testWorkflowConfig())
	return svc, requestRepo
}

func createRequest(t *testing.T, svc *WorkflowService, kind domain.Kind, items []CreateItemInput) *models.CustodyRequest {
	t.Helper()
	request, err := svc.Create(context.Background(), &CreateRequestInput{
		Kind:           kind,
		SiteCode:       "SITE-A",
		Purpose:        "tower foundation works",
		ExpectedReturn: time.Now().AddDate(0, 0, 14),
		Items:          items,
	}, maker)
	require.NoError(t, err)
	return request
}

func activateRequest(t *testing.T, svc *WorkflowService, id uint) *models.CustodyRequest {
	t.Helper()
	ctx := context.Background()
	request, err := svc.GetByID(ctx, id)
	require.NoError(t, err)

	if request.Status == domain.StatusPendingVerification {
		_, err = svc.Verify(ctx, id, verifier, passChecklist(), "checked")
		require.NoError(t, err)
		_, err = svc.Approve(ctx, id, approver, passApproveChecklist(), "approved")
		require.NoError(t, err)
	}
	request, err = svc.Activate(ctx, id, keeper, nil)
	require.NoError(t, err)
	return request
}

// ============================================================
// Tests
// ============================================================

func TestSubmit_BasicAutoApproves(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 2}})
	assert.Equal(t, domain.CriticalityBasic, request.Criticality)
	assert.Equal(t, domain.StatusDraft, request.Status)

	request, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, request.Status)

	// Auto-traversed steps are attributed to the system actor.
	require.NotNil(t, request.VerifiedBy)
	require.NotNil(t, request.ApprovedBy)
	assert.Equal(t, domain.SystemActorName, *request.VerifiedBy)
	assert.Equal(t, domain.SystemActorName, *request.ApprovedBy)

	notes := repo.notes[request.ID]
	require.Len(t, notes, 1)
	assert.Equal(t, domain.ActionSubmit, notes[0].Action)
	assert.Equal(t, maker.Name, notes[0].ActorName)
}

func TestSubmit_CriticalEntersFullChain(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 2, Quantity: 1}})
	assert.Equal(t, domain.CriticalityCritical, request.Criticality)

	request, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingVerification, request.Status)
	assert.Nil(t, request.VerifiedBy)

	// A maker cannot verify; the request must not move.
	_, err = svc.Verify(ctx, request.ID, maker, passChecklist(), "")
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))

	request, err = svc.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingVerification, request.Status)

	request, err = svc.Verify(ctx, request.ID, verifier, passChecklist(), "all good")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, request.Status)
	require.NotNil(t, request.VerifiedBy)
	assert.Equal(t, verifier.Name, *request.VerifiedBy)

	// The critical approval checklist gates the last step.
	_, err = svc.Approve(ctx, request.ID, approver, nil, "")
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
	assert.Contains(t, err.Error(), "budget_confirmed")

	request, err = svc.Approve(ctx, request.ID, approver, passApproveChecklist(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, request.Status)
}

func TestVerify_IncompleteChecklistRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 2, Quantity: 1}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, request.ID, verifier, map[string]bool{"items_inspected": true}, "")
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
	assert.Contains(t, err.Error(), "quantities_match")
}

func TestApprove_HighValueMaintenanceNeedsNote(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	// Heavy equipment keeps the full chain; 2 x 75,000 = 150,000 puts the
	// job above the maintenance cost threshold.
	request := createRequest(t, svc, domain.KindMaintenance, []CreateItemInput{{AssetID: 5, Quantity: 2}})
	assert.Equal(t, domain.CriticalityCritical, request.Criticality)
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, request.ID, verifier, passChecklist(), "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, approver, passApproveChecklist(), "   ")
	require.Error(t, err)
	var bre *domain.BusinessRuleError
	require.True(t, errors.As(err, &bre))
	assert.Equal(t, domain.RuleReasonRequired, bre.Rule)

	request, err = svc.Approve(ctx, request.ID, approver, passApproveChecklist(), "urgent excavator overhaul before pour")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, request.Status)
}

func TestCreate_RejectsInactiveAssetAndBadShapes(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateRequestInput{
		Kind:           domain.KindBorrowSingle,
		SiteCode:       "SITE-A",
		ExpectedReturn: time.Now().AddDate(0, 0, 7),
		Items:          []CreateItemInput{{AssetID: 4, Quantity: 1}},
	}, maker)
	assert.ErrorIs(t, err, ErrAssetInactive)

	_, err = svc.Create(ctx, &CreateRequestInput{
		Kind:           domain.KindBorrowSingle,
		SiteCode:       "SITE-A",
		ExpectedReturn: time.Now().AddDate(0, 0, 7),
		Items:          []CreateItemInput{{AssetID: 1, Quantity: 1}, {AssetID: 3, Quantity: 1}},
	}, maker)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Create(ctx, &CreateRequestInput{
		Kind:           domain.KindBorrowSingle,
		SiteCode:       "SITE-A",
		ExpectedReturn: time.Now().AddDate(0, 0, -1),
		Items:          []CreateItemInput{{AssetID: 1, Quantity: 1}},
	}, maker)
	assert.True(t, domain.IsValidation(err))
}

func TestReturn_PartialThenFull(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 5}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	request = activateRequest(t, svc, request.ID)
	lineID := request.Items[0].ID

	// A partial return with units still out keeps the request ACTIVE.
	result, err := svc.Return(ctx, request.ID, keeper, &ReturnInput{
		SubmissionID: "sub-1",
		Lines:        []ReturnLineInput{{LineItemID: lineID, Quantity: 3, ConditionIn: "good"}},
	})
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, domain.StatusActive, result.Request.Status)
	assert.Equal(t, 3, result.Request.Items[0].ReturnedQty)

	result, err = svc.Return(ctx, request.ID, keeper, &ReturnInput{
		SubmissionID: "sub-2",
		Lines:        []ReturnLineInput{{LineItemID: lineID, Quantity: 2, ConditionIn: "scratched"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, result.Request.Status)
	require.NotNil(t, result.Request.ClosedAt)
	assert.Equal(t, domain.StatusClosed, result.Request.Items[0].Status)
	// Condition-in keeps one entry per return submission.
	assert.Equal(t, "good\nscratched", result.Request.Items[0].ConditionIn)
}

func TestReturn_OverReturnRejectedAtomically(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 5}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	request = activateRequest(t, svc, request.ID)
	lineID := request.Items[0].ID

	_, err = svc.Return(ctx, request.ID, keeper, &ReturnInput{
		SubmissionID: "sub-over",
		Lines:        []ReturnLineInput{{LineItemID: lineID, Quantity: 6}},
	})
	require.Error(t, err)
	var rve *domain.ReturnValidationError
	require.True(t, errors.As(err, &rve))
	require.Len(t, rve.Lines, 1)
	assert.Equal(t, domain.RuleOverReturn, rve.Lines[0].Rule)

	// Nothing was applied.
	request, err = svc.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, request.Status)
	assert.Equal(t, 0, request.Items[0].ReturnedQty)
}

func TestReturn_ReplaySameSubmissionIsNoOp(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 5}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	request = activateRequest(t, svc, request.ID)
	lineID := request.Items[0].ID

	input := &ReturnInput{
		SubmissionID: "sub-dup",
		Lines:        []ReturnLineInput{{LineItemID: lineID, Quantity: 2}},
	}

	first, err := svc.Return(ctx, request.ID, keeper, input)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := svc.Return(ctx, request.ID, keeper, input)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	// The ledger moved exactly once.
	assert.Equal(t, 2, second.Request.Items[0].ReturnedQty)
	assert.Equal(t, first.Request.Version, second.Request.Version)
}

func TestReturn_BatchMixedState(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowBatch, []CreateItemInput{
		{AssetID: 1, Quantity: 5},
		{AssetID: 3, Quantity: 3},
	})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	request = activateRequest(t, svc, request.ID)

	// Return the whole second line, leave the first fully out.
	result, err := svc.Return(ctx, request.ID, keeper, &ReturnInput{
		SubmissionID: "sub-batch",
		Lines:        []ReturnLineInput{{LineItemID: request.Items[1].ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartiallyReturned, result.Request.Status)
	assert.Equal(t, domain.StatusClosed, result.Request.Items[1].Status)
	assert.Equal(t, domain.StatusActive, result.Request.Items[0].Status)
}

func TestSubmit_CanceledMemberIsNotResurrected(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowBatch, []CreateItemInput{
		{AssetID: 1, Quantity: 2},
		{AssetID: 3, Quantity: 1},
	})
	canceledID := request.Items[1].ID

	request, err := svc.CancelItem(ctx, request.ID, canceledID, maker, "wrong tool picked")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, request.Items[1].Status)

	// Submit and activate move only the live member.
	request, err = svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, request.Items[0].Status)
	assert.Equal(t, domain.StatusCanceled, request.Items[1].Status)

	request, err = svc.Activate(ctx, request.ID, keeper, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, request.Items[0].Status)
	assert.Equal(t, domain.StatusCanceled, request.Items[1].Status)
}

func TestReturn_BatchWithCanceledMemberCloses(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowBatch, []CreateItemInput{
		{AssetID: 1, Quantity: 2},
		{AssetID: 3, Quantity: 1},
	})
	liveID := request.Items[0].ID
	canceledID := request.Items[1].ID

	_, err := svc.CancelItem(ctx, request.ID, canceledID, maker, "wrong tool picked")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, request.ID, keeper, nil)
	require.NoError(t, err)

	// A canceled member carries no ledger entry.
	_, err = svc.Return(ctx, request.ID, keeper, &ReturnInput{
		SubmissionID: "sub-canceled-line",
		Lines:        []ReturnLineInput{{LineItemID: canceledID, Quantity: 1}},
	})
	require.Error(t, err)
	var rve *domain.ReturnValidationError
	require.True(t, errors.As(err, &rve))

	// Fully returning the live member closes the batch.
	result, err := svc.Return(ctx, request.ID, keeper, &ReturnInput{
		SubmissionID: "sub-live-line",
		Lines:        []ReturnLineInput{{LineItemID: liveID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, result.Request.Status)
	require.NotNil(t, result.Request.ClosedAt)
	assert.Equal(t, domain.StatusCanceled, result.Request.Items[1].Status)
}

func TestExtend_LimitAndConflictRetry(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	request = activateRequest(t, svc, request.ID)

	due := request.ExpectedReturn

	// A transient version conflict is retried away.
	repo.mu.Lock()
	repo.conflicts = 2
	repo.mu.Unlock()
	request, err = svc.Extend(ctx, request.ID, maker, due.AddDate(0, 0, 7), "phase slip")
	require.NoError(t, err)
	assert.Equal(t, 1, request.ExtensionCount)

	request, err = svc.Extend(ctx, request.ID, maker, due.AddDate(0, 0, 14), "weather hold")
	require.NoError(t, err)
	assert.Equal(t, 2, request.ExtensionCount)

	_, err = svc.Extend(ctx, request.ID, maker, due.AddDate(0, 0, 21), "still needed")
	require.Error(t, err)
	var bre *domain.BusinessRuleError
	require.True(t, errors.As(err, &bre))
	assert.Equal(t, domain.RuleExtensionLimit, bre.Rule)
}

func TestExtend_ExhaustedRetriesSurfaceConflict(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	request = activateRequest(t, svc, request.ID)

	repo.mu.Lock()
	repo.conflicts = 10
	repo.mu.Unlock()

	_, err = svc.Extend(ctx, request.ID, maker, request.ExpectedReturn.AddDate(0, 0, 7), "phase slip")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancel_OnlyBeforeActivation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})
	request, err := svc.Cancel(ctx, request.ID, maker, "no longer needed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, request.Status)
	assert.Equal(t, domain.StatusCanceled, request.Items[0].Status)

	active := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})
	_, err = svc.Submit(ctx, active.ID, maker)
	require.NoError(t, err)
	activateRequest(t, svc, active.ID)

	_, err = svc.Cancel(ctx, active.ID, maker, "too late")
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
}

func TestCancel_RequiresReason(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})
	_, err := svc.Cancel(ctx, request.ID, maker, "  ")
	require.Error(t, err)
	var bre *domain.BusinessRuleError
	require.True(t, errors.As(err, &bre))
	assert.Equal(t, domain.RuleReasonRequired, bre.Rule)
}

func TestCancelItem_RederivesBatchStatus(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowBatch, []CreateItemInput{
		{AssetID: 1, Quantity: 2},
		{AssetID: 3, Quantity: 1},
	})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)

	request, err = svc.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, request.Status)

	request, err = svc.CancelItem(ctx, request.ID, request.Items[1].ID, maker, "wrong tool picked")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, request.Items[1].Status)
	// The surviving member keeps the batch at its own stage.
	assert.Equal(t, domain.StatusApproved, request.Status)
}

func TestGetByRequestNo(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})

	found, err := svc.GetByRequestNo(ctx, request.RequestNo)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)

	_, err = svc.GetByRequestNo(ctx, "REQ-NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOverdue(t *testing.T) {
	t.Parallel()
	svc, repo := newTestService()
	ctx := context.Background()

	request := createRequest(t, svc, domain.KindBorrowSingle, []CreateItemInput{{AssetID: 1, Quantity: 1}})
	_, err := svc.Submit(ctx, request.ID, maker)
	require.NoError(t, err)
	activateRequest(t, svc, request.ID)

	// Nothing is overdue yet.
	overdue, err := svc.ListOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// Push the due date into the past directly; overdue is read-time only.
	repo.mu.Lock()
	repo.requests[request.ID].ExpectedReturn = time.Now().AddDate(0, 0, -2)
	repo.mu.Unlock()

	overdue, err = svc.ListOverdue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, request.ID, overdue[0].ID)

	// The persisted status never became an overdue state.
	stored, err := svc.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stored.Status)
}
