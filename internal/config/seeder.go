package config

import (
	"log"

	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedUsers(); err != nil {
		log.Printf("⚠️ User seeder skipped: %v", err)
	}
	if err := s.seedAssets(); err != nil {
		log.Printf("⚠️ Asset seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedUsers seeds a default admin plus one account per workflow role.
// Development/testing only; in production accounts come from the HR import.
func (s *Seeder) seedUsers() error {
	var count int64
	s.db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return nil // Users already exist
	}

	hashedPassword, err := password.Hash("changeme12345")
	if err != nil {
		return err
	}

	users := []*models.User{
		{EmployeeNo: "EMP-0001", Username: "admin", Email: "admin@sitegear.io", Roles: "ADMIN"},
		{EmployeeNo: "EMP-0002", Username: "maker01", Email: "maker01@sitegear.io", Roles: "MAKER"},
		{EmployeeNo: "EMP-0003", Username: "verifier01", Email: "verifier01@sitegear.io", Roles: "VERIFIER"},
		{EmployeeNo: "EMP-0004", Username: "authorizer01", Email: "authorizer01@sitegear.io", Roles: "AUTHORIZER"},
		{EmployeeNo: "EMP-0005", Username: "warehouse01", Email: "warehouse01@sitegear.io", Roles: "WAREHOUSEMAN"},
		{EmployeeNo: "EMP-0006", Username: "clerk01", Email: "clerk01@sitegear.io", Roles: "CLERK,MAKER"},
	}

	for _, u := range users {
		u.Password = hashedPassword
		u.IsActive = true
		if err := s.db.Create(u).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d users (default password must be changed)", len(users))
	return nil
}

// seedAssets seeds a small equipment catalog covering both criticality paths.
func (s *Seeder) seedAssets() error {
	var count int64
	s.db.Model(&models.Asset{}).Count(&count)
	if count > 0 {
		return nil // Catalog already populated
	}

	assets := []*models.Asset{
		{AssetCode: "EXC-001", Name: "Mini excavator", Category: "HEAVY_EQUIPMENT", UnitValue: 450000, StockQty: 2},
		{AssetCode: "TST-001", Name: "Total station", Category: "SURVEYING", UnitValue: 180000, StockQty: 3},
		{AssetCode: "GEN-010", Name: "Diesel generator 20kVA", Category: "POWER", UnitValue: 75000, StockQty: 4},
		{AssetCode: "DRL-014", Name: "Rotary hammer drill", Category: "POWER_TOOL", UnitValue: 12000, StockQty: 10},
		{AssetCode: "LAD-003", Name: "Extension ladder 8m", Category: "ACCESS", UnitValue: 6500, StockQty: 6},
		{AssetCode: "HAM-021", Name: "Sledgehammer 5kg", Category: "HAND_TOOL", UnitValue: 1500, StockQty: 15},
	}

	for _, a := range assets {
		a.IsActive = true
		if err := s.db.Create(a).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d assets", len(assets))
	return nil
}
