package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"real-estate-marketplace/internal/geo"
	"real-estate-marketplace/internal/models"
	"real-estate-marketplace/internal/search"

	"github.com/gin-gonic/gin"
)

// ParseFilters reads a search request from the query string. Empty values
// are treated as absent; malformed values are reported as errors.
func ParseFilters(c *gin.Context) (search.Filters, error) {
	p := queryParser{c: c}

	f := search.Filters{
		Search:        strings.TrimSpace(c.Query("search")),
		City:          strings.TrimSpace(c.Query("city")),
		State:         strings.TrimSpace(c.Query("state")),
		ZipCode:       strings.TrimSpace(c.Query("zip_code")),
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
		MinPrice:      p.number("min_price"),
		MaxPrice:      p.number("max_price"),
		Bedrooms:      p.integer("bedrooms"),
		Bathrooms:     p.integer("bathrooms"),
		MinSquareFeet: p.integer("min_square_feet"),
		MaxSquareFeet: p.integer("max_square_feet"),
		MinYearBuilt:  p.integer("min_year_built"),
		MaxYearBuilt:  p.integer("max_year_built"),
		Latitude:      p.number("latitude"),
		Longitude:     p.number("longitude"),
		Radius:        p.number("radius"),
		CreatedAfter:  p.timestamp("created_after"),
		CreatedBefore: p.timestamp("created_before"),
		Amenities:     p.amenities(),
		Featured:      p.flag("featured"),
	}

	if page := p.integer("page"); page != nil {
		f.Page = *page
	}
	if perPage := p.integer("per_page"); perPage != nil {
		f.PerPage = *perPage
	}

	if v := strings.TrimSpace(c.Query("property_type")); v != "" {
		t := models.PropertyType(v)
		if !t.Valid() {
			p.fail("property_type", v)
		}
		f.PropertyType = t
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		s := models.ListingStatus(v)
		if !s.Valid() {
			p.fail("status", v)
		}
		f.Status = s
	}

	f.Bounds = p.bounds()

	if p.err != nil {
		return search.Filters{}, p.err
	}

	if f.Latitude != nil && f.Longitude != nil && !geo.ValidCoordinates(*f.Latitude, *f.Longitude) {
		return search.Filters{}, fmt.Errorf("latitude/longitude out of range")
	}
	return f, nil
}

// queryParser collects the first parse error across several parameters
type queryParser struct {
	c   *gin.Context
	err error
}

func (p *queryParser) value(key string) string {
	return strings.TrimSpace(p.c.Query(key))
}

func (p *queryParser) fail(key, raw string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s", raw, key)
	}
}

func (p *queryParser) number(key string) *float64 {
	raw := p.value(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(key, raw)
		return nil
	}
	return &v
}

func (p *queryParser) integer(key string) *int {
	raw := p.value(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw)
		return nil
	}
	return &v
}

func (p *queryParser) flag(key string) bool {
	raw := p.value(key)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw)
		return false
	}
	return v
}

func (p *queryParser) timestamp(key string) *time.Time {
	raw := p.value(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	p.fail(key, raw)
	return nil
}

// amenities accepts both amenities=1,2 and repeated amenities[]=1
func (p *queryParser) amenities() []uint {
	var raw []string
	raw = append(raw, p.c.QueryArray("amenities[]")...)
	if list := p.c.Query("amenities"); list != "" {
		raw = append(raw, strings.Split(list, ",")...)
	}

	var ids []uint
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := strconv.ParseUint(r, 10, 32)
		if err != nil {
			p.fail("amenities", r)
			return nil
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// bounds requires all four edges or none
func (p *queryParser) bounds() *search.Bounds {
	keys := []string{"north", "south", "east", "west"}
	values := make([]*float64, len(keys))
	present := 0
	for i, k := range keys {
		values[i] = p.number(k)
		if values[i] != nil {
			present++
		}
	}

	switch present {
	case 0:
		return nil
	case len(keys):
		b := &search.Bounds{North: *values[0], South: *values[1], East: *values[2], West: *values[3]}
		if b.South > b.North {
			p.fail("bounds", fmt.Sprintf("south %v above north %v", b.South, b.North))
			return nil
		}
		return b
	default:
		if p.err == nil {
			p.err = fmt.Errorf("bounds require north, south, east and west")
		}
		return nil
	}
}
