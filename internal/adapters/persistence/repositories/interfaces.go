package repositories

import (
	"context"
	"time"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/core/domain"
)

// RequestFilter narrows request listings.
type RequestFilter struct {
	Kind        domain.Kind
	Status      domain.Status
	SiteCode    string
	RequesterID uint
}

// StatusUpdate is one compare-and-set write against a request row. The write
// only lands when the row still carries ExpectedStatus and ExpectedVersion;
// otherwise the repository reports domain.ErrConflict and nothing changes.
type StatusUpdate struct {
	RequestID       uint
	ExpectedStatus  domain.Status
	ExpectedVersion int
	Fields          map[string]interface{}
	ItemUpdates     map[uint]map[string]interface{}
	Note            *models.TransitionNote
}

// ReturnApplication is one return submission applied atomically: the event
// insert, every line update, the status CAS and the audit note commit or
// roll back together.
type ReturnApplication struct {
	Update      StatusUpdate
	Event       *models.ReturnEvent
	LineUpdates map[uint]LineUpdate
}

// LineUpdate carries the new ledger state for one line item.
type LineUpdate struct {
	ReturnedQty int
	Status      domain.Status
	ConditionIn string
}

// RequestRepository defines custody request data access
type RequestRepository interface {
	Create(ctx context.Context, request *models.CustodyRequest) error
	GetByID(ctx context.Context, id uint) (*models.CustodyRequest, error)
	GetByRequestNo(ctx context.Context, requestNo string) (*models.CustodyRequest, error)
	List(ctx context.Context, filter RequestFilter, offset, limit int) ([]*models.CustodyRequest, int64, error)
	ListActiveDueBefore(ctx context.Context, deadline time.Time) ([]*models.CustodyRequest, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	ApplyReturn(ctx context.Context, app *ReturnApplication) error
	GetReturnEvent(ctx context.Context, requestID uint, submissionID string) (*models.ReturnEvent, error)
	GetNotes(ctx context.Context, requestID uint) ([]*models.TransitionNote, error)
}

// AssetRepository defines asset catalog data access
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id uint) (*models.Asset, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Asset, error)
	GetByCode(ctx context.Context, code string) (*models.Asset, error)
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, category string, offset, limit int) ([]*models.Asset, int64, error)
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmployeeNo(ctx context.Context, employeeNo string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmployeeNo(ctx context.Context, employeeNo string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}
