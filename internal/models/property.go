package models

import (
	"errors"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrPartialCoordinates is returned when only one of latitude/longitude is set.
var ErrPartialCoordinates = errors.New("latitude and longitude must both be set or both be empty")

// ErrPriceHistoryOrder is returned when a price change predates the last recorded one.
var ErrPriceHistoryOrder = errors.New("price change predates the latest price history entry")

type Property struct {
	// Basic info
	ID          uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uint          `gorm:"not null;index" json:"owner_id"`
	Owner       User          `gorm:"foreignKey:OwnerID" json:"owner"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Type        PropertyType  `gorm:"type:varchar(20);not null;index" json:"type"`
	Status      ListingStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Price       float64       `gorm:"type:decimal(12,2);not null;index" json:"price"`

	// Location
	Address   string   `gorm:"type:varchar(255)" json:"address"`
	City      string   `gorm:"type:varchar(100);index" json:"city"`
	State     string   `gorm:"type:varchar(100);index" json:"state"`
	ZipCode   string   `gorm:"type:varchar(20);index" json:"zip_code"`
	Country   string   `gorm:"type:varchar(100)" json:"country"`
	Latitude  *float64 `gorm:"type:decimal(10,7);index:idx_properties_coordinates" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7);index:idx_properties_coordinates" json:"longitude,omitempty"`

	// Filter attributes
	Bedrooms   *int `gorm:"type:int" json:"bedrooms,omitempty"`
	Bathrooms  *int `gorm:"type:int" json:"bathrooms,omitempty"`
	SquareFeet *int `gorm:"type:int" json:"square_feet,omitempty"`
	YearBuilt  *int `gorm:"type:int" json:"year_built,omitempty"`
	LotSize    *int `gorm:"type:int" json:"lot_size,omitempty"`

	IsFeatured bool `gorm:"not null;default:false;index" json:"is_featured"`
	IsApproved bool `gorm:"not null;default:false;index" json:"is_approved"`
	Views      int  `gorm:"not null;default:0" json:"views"`
	Saves      int  `gorm:"not null;default:0" json:"saves"`

	PriceHistory datatypes.JSONType[[]PriceChange] `json:"price_history"`

	Images    []PropertyImage `gorm:"foreignKey:PropertyID" json:"images,omitempty"`
	Amenities []Amenity       `gorm:"many2many:property_amenities" json:"amenities,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PropertyType is the kind of real estate being listed
type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeCondo      PropertyType = "condo"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
)

// PropertyTypes lists every valid property type in display order
var PropertyTypes = []PropertyType{
	PropertyTypeHouse,
	PropertyTypeApartment,
	PropertyTypeCondo,
	PropertyTypeLand,
	PropertyTypeCommercial,
}

// Valid reports whether t is a known property type
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ListingStatus is the market status of a listing
type ListingStatus string

const (
	ListingStatusForSale ListingStatus = "for_sale"
	ListingStatusForRent ListingStatus = "for_rent"
	ListingStatusSold    ListingStatus = "sold"
	ListingStatusPending ListingStatus = "pending"
)

// Valid reports whether s is a known listing status
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusForSale, ListingStatusForRent, ListingStatusSold, ListingStatusPending:
		return true
	}
	return false
}

// PriceChange is one entry of a property's price history
type PriceChange struct {
	Date          time.Time `json:"date"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// HasCoordinates reports whether the property can take part in geographic searches
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// BeforeSave rejects one-sided coordinates
func (p *Property) BeforeSave(tx *gorm.DB) error {
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return ErrPartialCoordinates
	}
	return nil
}

// PrimaryImage returns the image flagged as primary, falling back to the first by sort order
func (p *Property) PrimaryImage() *PropertyImage {
	var first *PropertyImage
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsPrimary {
			return img
		}
		if first == nil || img.SortOrder < first.SortOrder {
			first = img
		}
	}
	return first
}

// RecordPrice sets a new price and appends the change to the price history.
// An empty history is seeded with the current price at creation time so every
// entry's change is relative to the entry before it.
func (p *Property) RecordPrice(newPrice float64, at time.Time) error {
	history := p.PriceHistory.Data()

	if len(history) == 0 {
		seededAt := p.CreatedAt
		if seededAt.IsZero() || seededAt.After(at) {
			seededAt = at
		}
		history = append(history, PriceChange{Date: seededAt, Price: p.Price})
	}

	last := history[len(history)-1]
	if at.Before(last.Date) {
		return ErrPriceHistoryOrder
	}

	change := newPrice - last.Price
	var percent float64
	if last.Price != 0 {
		percent = math.Round(change/last.Price*10000) / 100
	}

	history = append(history, PriceChange{
		Date:          at,
		Price:         newPrice,
		Change:        change,
		ChangePercent: percent,
	})

	p.Price = newPrice
	p.PriceHistory = datatypes.NewJSONType(history)
	return nil
}
