package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"real-estate-marketplace/internal/models"
)

// Bounds is a map viewport. West greater than East means the box crosses the antimeridian.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Filters is a property search request. Nil pointers, empty strings and empty
// slices mean "no constraint".
type Filters struct {
	Search        string               `json:"search,omitempty"`
	MinPrice      *float64             `json:"min_price,omitempty"`
	MaxPrice      *float64             `json:"max_price,omitempty"`
	City          string               `json:"city,omitempty"`
	State         string               `json:"state,omitempty"`
	ZipCode       string               `json:"zip_code,omitempty"`
	PropertyType  models.PropertyType  `json:"property_type,omitempty"`
	Status        models.ListingStatus `json:"status,omitempty"`
	Bedrooms      *int                 `json:"bedrooms,omitempty"`
	Bathrooms     *int                 `json:"bathrooms,omitempty"`
	MinSquareFeet *int                 `json:"min_square_feet,omitempty"`
	MaxSquareFeet *int                 `json:"max_square_feet,omitempty"`
	MinYearBuilt  *int                 `json:"min_year_built,omitempty"`
	MaxYearBuilt  *int                 `json:"max_year_built,omitempty"`
	Amenities     []uint               `json:"amenities,omitempty"`
	Featured      bool                 `json:"featured,omitempty"`
	Bounds        *Bounds              `json:"bounds,omitempty"`
	Latitude      *float64             `json:"latitude,omitempty"`
	Longitude     *float64             `json:"longitude,omitempty"`
	Radius        *float64             `json:"radius,omitempty"`
	CreatedAfter  *time.Time           `json:"created_after,omitempty"`
	CreatedBefore *time.Time           `json:"created_before,omitempty"`

	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
	Page      int    `json:"page,omitempty"`
	PerPage   int    `json:"per_page,omitempty"`
}

// Pagination bounds applied during normalization
type Pagination struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultPagination is used when no configuration is supplied
var DefaultPagination = Pagination{DefaultPerPage: 15, MaxPerPage: 100}

// RadiusActive reports whether the radius query applies. All three of
// latitude, longitude and a non-negative radius must be present.
func (f *Filters) RadiusActive() bool {
	return f.Latitude != nil && f.Longitude != nil && f.Radius != nil && *f.Radius >= 0
}

// Normalize returns a canonical copy: trimmed strings, sorted unique amenity
// ids, an allow-listed sort and clamped pagination. An incomplete radius
// query is dropped entirely.
func (f Filters) Normalize(p Pagination) Filters {
	n := f

	n.Search = strings.TrimSpace(f.Search)
	n.City = strings.TrimSpace(f.City)
	n.State = strings.TrimSpace(f.State)
	n.ZipCode = strings.TrimSpace(f.ZipCode)
	n.PropertyType = models.PropertyType(strings.TrimSpace(string(f.PropertyType)))
	n.Status = models.ListingStatus(strings.TrimSpace(string(f.Status)))
	n.Amenities = normalizeAmenities(f.Amenities)

	if !f.RadiusActive() {
		n.Latitude, n.Longitude, n.Radius = nil, nil, nil
	}

	n.SortBy, n.SortOrder = normalizeSort(f.SortBy, f.SortOrder)

	if n.Page < 1 {
		n.Page = 1
	}
	if p.DefaultPerPage <= 0 {
		p = DefaultPagination
	}
	if n.PerPage < 1 {
		n.PerPage = p.DefaultPerPage
	}
	if p.MaxPerPage > 0 && n.PerPage > p.MaxPerPage {
		n.PerPage = p.MaxPerPage
	}
	// keeps (Page-1)*PerPage+PerPage within int
	if maxPage := math.MaxInt / n.PerPage; n.Page > maxPage {
		n.Page = maxPage
	}

	return n
}

// CacheKey is a stable digest of the normalized filters, page window and caller privilege.
// Callers must pass filters returned by Normalize.
func (f Filters) CacheKey(privileged bool) string {
	payload, _ := json.Marshal(struct {
		Filters    Filters `json:"f"`
		Privileged bool    `json:"p"`
	}{f, privileged})

	sum := sha256.Sum256(payload)
	return "search:v1:" + hex.EncodeToString(sum[:])
}

func normalizeAmenities(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
