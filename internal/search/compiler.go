package search

import (
	"strings"

	"real-estate-marketplace/internal/models"

	"gorm.io/gorm"
)

type scope = func(*gorm.DB) *gorm.DB

// textColumns are matched by the free-text search term
var textColumns = []string{"title", "description", "address", "city", "state"}

// Compile turns normalized filters into gorm scopes over the properties table.
// Every scope is ANDed; only the free-text term ORs across columns. The radius
// query and sorting are not included here.
func Compile(f Filters, privileged bool) []scope {
	var scopes []scope

	if !privileged {
		scopes = append(scopes, where("is_approved = ?", true))
	}

	if f.Search != "" {
		pattern := containsPattern(f.Search)
		clauses := make([]string, len(textColumns))
		args := make([]interface{}, len(textColumns))
		for i, col := range textColumns {
			clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
			args[i] = pattern
		}
		scopes = append(scopes, where("("+strings.Join(clauses, " OR ")+")", args...))
	}

	if f.MinPrice != nil {
		scopes = append(scopes, where("price >= ?", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		scopes = append(scopes, where("price <= ?", *f.MaxPrice))
	}

	if f.City != "" {
		scopes = append(scopes, where("LOWER(city) LIKE ? ESCAPE '!'", containsPattern(f.City)))
	}
	if f.State != "" {
		scopes = append(scopes, where("state = ?", f.State))
	}
	if f.ZipCode != "" {
		scopes = append(scopes, where("zip_code = ?", f.ZipCode))
	}

	if f.PropertyType != "" {
		scopes = append(scopes, where("type = ?", f.PropertyType))
	}
	if f.Status != "" {
		scopes = append(scopes, where("status = ?", f.Status))
	}

	if f.Bedrooms != nil {
		scopes = append(scopes, where("bedrooms >= ?", *f.Bedrooms))
	}
	if f.Bathrooms != nil {
		scopes = append(scopes, where("bathrooms >= ?", *f.Bathrooms))
	}

	if f.MinSquareFeet != nil {
		scopes = append(scopes, where("square_feet >= ?", *f.MinSquareFeet))
	}
	if f.MaxSquareFeet != nil {
		scopes = append(scopes, where("square_feet <= ?", *f.MaxSquareFeet))
	}
	if f.MinYearBuilt != nil {
		scopes = append(scopes, where("year_built >= ?", *f.MinYearBuilt))
	}
	if f.MaxYearBuilt != nil {
		scopes = append(scopes, where("year_built <= ?", *f.MaxYearBuilt))
	}

	if len(f.Amenities) > 0 {
		scopes = append(scopes, withAllAmenities(f.Amenities))
	}

	if f.Featured {
		scopes = append(scopes, where("is_featured = ?", true))
	}

	if f.Bounds != nil {
		scopes = append(scopes, withinBounds(*f.Bounds))
	}

	if f.CreatedAfter != nil {
		scopes = append(scopes, where("created_at > ?", *f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		scopes = append(scopes, where("created_at <= ?", *f.CreatedBefore))
	}

	return scopes
}

func where(query string, args ...interface{}) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// withAllAmenities keeps properties linked to every requested amenity.
// ids must be unique.
func withAllAmenities(ids []uint) scope {
	return func(db *gorm.DB) *gorm.DB {
		matching := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.PropertyAmenity{}).
			Select("property_id").
			Where("amenity_id IN ?", ids).
			Group("property_id").
			Having("COUNT(DISTINCT amenity_id) >= ?", len(ids))

		return db.Where("id IN (?)", matching)
	}
}

func withinBounds(b Bounds) scope {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Where("latitude BETWEEN ? AND ?", b.South, b.North)
		if b.West <= b.East {
			return db.Where("longitude BETWEEN ? AND ?", b.West, b.East)
		}
		return db.Where("(longitude >= ? OR longitude <= ?)", b.West, b.East)
	}
}

// containsPattern builds a lower-cased LIKE pattern with wildcards in term escaped
func containsPattern(term string) string {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(strings.ToLower(term))
	return "%" + escaped + "%"
}
