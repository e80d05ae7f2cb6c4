package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"sitegear-custody/internal/core/domain"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	EmployeeNo string         `gorm:"uniqueIndex;size:20;not null" json:"employee_no"`
	Username   string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email      string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password   string         `gorm:"size:255;not null" json:"-"`
	Roles      string         `gorm:"size:120;default:'MAKER'" json:"roles"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// RoleList splits the stored comma-separated roles column.
func (u *User) RoleList() []domain.Role {
	parts := strings.Split(u.Roles, ",")
	roles := make([]domain.Role, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, domain.Role(p))
		}
	}
	return roles
}

// ToActor maps the user row to the identity the workflow engine consumes.
func (u *User) ToActor() domain.Actor {
	return domain.Actor{ID: u.ID, Name: u.Username, Roles: u.RoleList()}
}

// UserResponse DTO
type UserResponse struct {
	ID         uint      `json:"id"`
	EmployeeNo string    `json:"employee_no"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Roles      []string  `json:"roles"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	roles := make([]string, 0, 2)
	for _, r := range u.RoleList() {
		roles = append(roles, string(r))
	}
	return &UserResponse{
		ID:         u.ID,
		EmployeeNo: u.EmployeeNo,
		Username:   u.Username,
		Email:      u.Email,
		Roles:      roles,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Asset Master Table
// ============================================================

// Asset represents the equipment catalog. Line items snapshot its value and
// category at request creation, so later catalog edits never reclassify an
// existing request.
type Asset struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AssetCode   string         `gorm:"uniqueIndex;size:30;not null" json:"asset_code"`
	Name        string         `gorm:"size:150;not null" json:"name"`
	Category    string         `gorm:"size:50;not null;index" json:"category"`
	UnitValue   float64        `gorm:"type:decimal(15,2);not null" json:"unit_value"`
	StockQty    int            `gorm:"not null;default:0" json:"stock_qty"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Asset) TableName() string {
	return "assets"
}

// AssetResponse DTO
type AssetResponse struct {
	ID        uint    `json:"id"`
	AssetCode string  `json:"asset_code"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitValue float64 `json:"unit_value"`
	StockQty  int     `json:"stock_qty"`
	IsActive  bool    `json:"is_active"`
}

func (a *Asset) ToResponse() *AssetResponse {
	return &AssetResponse{
		ID:        a.ID,
		AssetCode: a.AssetCode,
		Name:      a.Name,
		Category:  a.Category,
		UnitValue: a.UnitValue,
		StockQty:  a.StockQty,
		IsActive:  a.IsActive,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Asset{},
		&CustodyRequest{},
		&LineItem{},
		&TransitionNote{},
		&ReturnEvent{},
	)
}
