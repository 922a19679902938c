package database

import (
	"errors"
	"fmt"
	"time"

	"real-estate-marketplace/internal/config"
	"real-estate-marketplace/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Location is a distinct city/state pair of approved listings
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type GormDB struct {
	db *gorm.DB
}

// NewGormDB opens the configured database (mysql or postgres)
func NewGormDB(cfg config.DatabaseConfig) (*GormDB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "mysql":
		m := cfg.MySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			m.User, m.Password, m.Host, m.Port, m.Database)
		dialector = mysql.Open(dsn)
	case "postgres":
		p := cfg.Postgres
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Type, err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Type, err)
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	if err := gdb.db.SetupJoinTable(&models.Property{}, "Amenities", &models.PropertyAmenity{}); err != nil {
		return fmt.Errorf("failed to set up amenity join table: %w", err)
	}

	return gdb.db.AutoMigrate(
		&models.User{},
		&models.Amenity{},
		&models.Property{},
		&models.PropertyImage{},
		&models.PropertyAmenity{},
		&models.Review{},
		&models.SavedSearch{},
	)
}

// SaveProperty inserts a new property or updates an existing one by ID.
// Owner and amenity links are managed separately.
func (gdb *GormDB) SaveProperty(p *models.Property) error {
	if p.ID == 0 {
		return gdb.db.Omit("Owner", "Amenities").Create(p).Error
	}
	return gdb.db.Omit("Owner", "Amenities", "Images").Save(p).Error
}

// AttachAmenities links amenities to a property, ignoring links that already exist
func (gdb *GormDB) AttachAmenities(propertyID uint, amenityIDs ...uint) error {
	if len(amenityIDs) == 0 {
		return nil
	}

	links := make([]models.PropertyAmenity, 0, len(amenityIDs))
	for _, id := range amenityIDs {
		links = append(links, models.PropertyAmenity{PropertyID: propertyID, AmenityID: id})
	}

	return gdb.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// UpdatePropertyPrice changes a property's price and records the change in its price history
func (gdb *GormDB) UpdatePropertyPrice(id uint, newPrice float64, at time.Time) (*models.Property, error) {
	var property models.Property

	err := gdb.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&property, id).Error; err != nil {
			return err
		}

		if err := property.RecordPrice(newPrice, at); err != nil {
			return err
		}

		return tx.Model(&models.Property{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"price":         property.Price,
				"price_history": property.PriceHistory,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyByID retrieves a non-deleted property with owner, images and amenities
func (gdb *GormDB) GetPropertyByID(id uint) (*models.Property, error) {
	var property models.Property
	err := gdb.db.
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Amenities").
		First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// SoftDeleteProperty marks a property as deleted
func (gdb *GormDB) SoftDeleteProperty(id uint) error {
	result := gdb.db.Delete(&models.Property{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApproveProperty makes a property visible to public searches
func (gdb *GormDB) ApproveProperty(id uint) error {
	result := gdb.db.Model(&models.Property{}).Where("id = ?", id).Update("is_approved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DistinctLocations returns every city/state pair that has an approved listing
func (gdb *GormDB) DistinctLocations() ([]Location, error) {
	var locations []Location
	err := gdb.db.Model(&models.Property{}).
		Distinct("city", "state").
		Where("is_approved = ? AND city <> ''", true).
		Order("state ASC, city ASC").
		Scan(&locations).Error
	return locations, err
}

// ActiveSavedSearches returns up to limit active saved searches, least recently run first
func (gdb *GormDB) ActiveSavedSearches(limit int) ([]models.SavedSearch, error) {
	var searches []models.SavedSearch
	err := gdb.db.
		Where("is_active = ?", true).
		Order("last_run_at IS NOT NULL, last_run_at ASC, id ASC").
		Limit(limit).
		Find(&searches).Error
	return searches, err
}

// MarkSavedSearchRun advances a saved search's checkpoint
func (gdb *GormDB) MarkSavedSearchRun(id uint, at time.Time) error {
	return gdb.db.Model(&models.SavedSearch{}).Where("id = ?", id).Update("last_run_at", at).Error
}

// IsNotFound reports whether err means the requested row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
