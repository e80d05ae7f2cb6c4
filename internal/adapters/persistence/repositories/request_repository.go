package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/core/domain"
)

// requestRepository implements RequestRepository interface
type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new custody request repository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create creates a new request with its line items
func (r *requestRepository) Create(ctx context.Context, request *models.CustodyRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetByID gets a request by ID with relations
func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.CustodyRequest, error) {
	var request models.CustodyRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Items").
		First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByRequestNo gets a request by its request number
func (r *requestRepository) GetByRequestNo(ctx context.Context, requestNo string) (*models.CustodyRequest, error) {
	var request models.CustodyRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Items").
		Where("request_no = ?", requestNo).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// List lists requests matching the filter with pagination
func (r *requestRepository) List(ctx context.Context, filter RequestFilter, offset, limit int) ([]*models.CustodyRequest, int64, error) {
	var requests []*models.CustodyRequest
	var total int64

	q := r.db.WithContext(ctx).Model(&models.CustodyRequest{})
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SiteCode != "" {
		q = q.Where("site_code = ?", filter.SiteCode)
	}
	if filter.RequesterID != 0 {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("Requester").
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&requests).Error

	return requests, total, err
}

// ListActiveDueBefore lists active requests whose expected return falls
// before the deadline. Used by the overdue sweep and the overdue listing.
func (r *requestRepository) ListActiveDueBefore(ctx context.Context, deadline time.Time) ([]*models.CustodyRequest, error) {
	var requests []*models.CustodyRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Items").
		Where("status IN ?", []domain.Status{domain.StatusActive, domain.StatusPartiallyReturned}).
		Where("expected_return < ?", deadline).
		Order("expected_return ASC").
		Find(&requests).Error
	return requests, err
}

// UpdateStatus performs the compare-and-set write. The WHERE clause pins the
// version and status the caller read; zero affected rows means another writer
// got there first and the caller must re-read.
func (r *requestRepository) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casUpdate(tx, update); err != nil {
			return err
		}
		for lineID, fields := range update.ItemUpdates {
			res := tx.Model(&models.LineItem{}).
				Where("id = ? AND request_id = ?", lineID, update.RequestID).
				Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrNotFound
			}
		}
		if update.Note != nil {
			if err := tx.Create(update.Note).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyReturn applies one return submission in a single transaction: the
// idempotency event, every line update, the status CAS and the audit note
// commit together or not at all.
func (r *requestRepository) ApplyReturn(ctx context.Context, app *ReturnApplication) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app.Event).Error; err != nil {
			// The unique (request_id, submission_id) index turns a replay
			// into a conflict here; the service replays the stored event.
			return err
		}
		for lineID, lu := range app.LineUpdates {
			fields := map[string]interface{}{
				"returned_qty": lu.ReturnedQty,
				"status":       lu.Status,
			}
			if lu.ConditionIn != "" {
				// Condition-in accumulates across partial returns, one
				// entry per submission.
				fields["condition_in"] = gorm.Expr(
					"CASE WHEN condition_in = '' THEN ? ELSE CONCAT(condition_in, '\n', ?) END",
					lu.ConditionIn, lu.ConditionIn,
				)
			}
			res := tx.Model(&models.LineItem{}).
				Where("id = ? AND request_id = ?", lineID, app.Update.RequestID).
				Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrNotFound
			}
		}
		if err := casUpdate(tx, app.Update); err != nil {
			return err
		}
		if app.Update.Note != nil {
			if err := tx.Create(app.Update.Note).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetReturnEvent looks up a prior return submission for replay detection.
func (r *requestRepository) GetReturnEvent(ctx context.Context, requestID uint, submissionID string) (*models.ReturnEvent, error) {
	var event models.ReturnEvent
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND submission_id = ?", requestID, submissionID).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetNotes gets the audit trail for a request, oldest first
func (r *requestRepository) GetNotes(ctx context.Context, requestID uint) ([]*models.TransitionNote, error) {
	var notes []*models.TransitionNote
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&notes).Error
	return notes, err
}

func casUpdate(tx *gorm.DB, update StatusUpdate) error {
	fields := make(map[string]interface{}, len(update.Fields)+1)
	for k, v := range update.Fields {
		fields[k] = v
	}
	fields["version"] = update.ExpectedVersion + 1

	res := tx.Model(&models.CustodyRequest{}).
		Where("id = ? AND version = ? AND status = ?",
			update.RequestID, update.ExpectedVersion, update.ExpectedStatus).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
