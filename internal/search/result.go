package search

import (
	"time"

	"real-estate-marketplace/internal/models"
)

// Page is a paginated slice of search results
type Page struct {
	Data        []PropertySummary `json:"data"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
	Total       int64             `json:"total"`
	LastPage    int               `json:"last_page"`
}

// PropertySummary is the listing card rendered for search results
type PropertySummary struct {
	ID           uint                 `json:"id"`
	Title        string               `json:"title"`
	Type         models.PropertyType  `json:"type"`
	Status       models.ListingStatus `json:"status"`
	Price        float64              `json:"price"`
	Address      string               `json:"address"`
	City         string               `json:"city"`
	State        string               `json:"state"`
	ZipCode      string               `json:"zip_code"`
	Country      string               `json:"country"`
	Latitude     *float64             `json:"latitude,omitempty"`
	Longitude    *float64             `json:"longitude,omitempty"`
	Bedrooms     *int                 `json:"bedrooms,omitempty"`
	Bathrooms    *int                 `json:"bathrooms,omitempty"`
	SquareFeet   *int                 `json:"square_feet,omitempty"`
	IsFeatured   bool                 `json:"is_featured"`
	PrimaryImage string               `json:"primary_image,omitempty"`
	Amenities    []AmenitySummary     `json:"amenities"`
	Owner        OwnerSummary         `json:"owner"`
	CreatedAt    time.Time            `json:"created_at"`
	Distance     *float64             `json:"distance,omitempty"` // miles, radius and nearby queries only
}

// AmenitySummary is an amenity as shown on a listing card
type AmenitySummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// OwnerSummary is the listing agent as shown on a listing card
type OwnerSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newPage(data []PropertySummary, f Filters, total int64) *Page {
	if data == nil {
		data = []PropertySummary{}
	}
	return &Page{
		Data:        data,
		CurrentPage: f.Page,
		PerPage:     f.PerPage,
		Total:       total,
		LastPage:    lastPage(total, f.PerPage),
	}
}

func lastPage(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Summarize builds the listing card for a property loaded with its relations
func Summarize(p *models.Property) PropertySummary {
	s := PropertySummary{
		ID:         p.ID,
		Title:      p.Title,
		Type:       p.Type,
		Status:     p.Status,
		Price:      p.Price,
		Address:    p.Address,
		City:       p.City,
		State:      p.State,
		ZipCode:    p.ZipCode,
		Country:    p.Country,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Bedrooms:   p.Bedrooms,
		Bathrooms:  p.Bathrooms,
		SquareFeet: p.SquareFeet,
		IsFeatured: p.IsFeatured,
		Amenities:  make([]AmenitySummary, 0, len(p.Amenities)),
		Owner:      OwnerSummary{ID: p.Owner.ID, Name: p.Owner.Name},
		CreatedAt:  p.CreatedAt,
	}

	if img := p.PrimaryImage(); img != nil {
		s.PrimaryImage = img.ImageURL
	}
	for _, a := range p.Amenities {
		s.Amenities = append(s.Amenities, AmenitySummary{ID: a.ID, Name: a.Name, Icon: a.Icon})
	}
	return s
}
