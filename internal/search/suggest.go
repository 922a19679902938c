package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"real-estate-marketplace/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// minSuggestQueryLen is the shortest query that produces suggestions
const minSuggestQueryLen = 2

// Suggestion kinds
const (
	SuggestionCity         = "city"
	SuggestionState        = "state"
	SuggestionPropertyType = "property_type"
)

// Suggestion is one autocomplete entry for the search box
type Suggestion struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// Suggester produces autocomplete entries for a partial query
type Suggester interface {
	Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error)
}

// DBSuggester answers suggestions straight from the properties table
type DBSuggester struct {
	db *gorm.DB
}

// NewDBSuggester creates a store-backed suggester
func NewDBSuggester(db *gorm.DB) *DBSuggester {
	return &DBSuggester{db: db}
}

// Suggest returns cities and states of approved listings starting with q,
// followed by property types containing q.
func (d *DBSuggester) Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	q = strings.TrimSpace(q)
	if len(q) < minSuggestQueryLen || limit <= 0 {
		return []Suggestion{}, nil
	}
	prefix := prefixPattern(q)

	var cities []struct {
		City  string
		State string
	}
	err := d.db.WithContext(ctx).Model(&models.Property{}).
		Distinct("city", "state").
		Where("is_approved = ?", true).
		Where("LOWER(city) LIKE ? ESCAPE '!'", prefix).
		Order("city ASC, state ASC").
		Limit(limit).
		Scan(&cities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest cities: %w", err)
	}

	var states []string
	err = d.db.WithContext(ctx).Model(&models.Property{}).
		Distinct("state").
		Where("is_approved = ?", true).
		Where("LOWER(state) LIKE ? ESCAPE '!'", prefix).
		Order("state ASC").
		Limit(limit).
		Pluck("state", &states).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest states: %w", err)
	}

	out := make([]Suggestion, 0, limit)
	for _, c := range cities {
		out = append(out, citySuggestion(c.City, c.State))
	}
	for _, st := range states {
		out = append(out, Suggestion{Type: SuggestionState, Value: st, Label: st})
	}
	out = append(out, propertyTypeSuggestions(q)...)

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FallbackSuggester asks a primary suggester and falls back to a secondary one on error.
// Repeated primary failures trip a breaker that routes straight to the secondary.
type FallbackSuggester struct {
	primary   Suggester
	secondary Suggester
	breaker   *circuitBreaker
	logger    *zap.Logger
}

// NewFallbackSuggester creates a suggester that degrades to secondary when primary fails
func NewFallbackSuggester(primary, secondary Suggester, logger *zap.Logger) *FallbackSuggester {
	return &FallbackSuggester{
		primary:   primary,
		secondary: secondary,
		breaker:   newCircuitBreaker(3, 30*time.Second),
		logger:    logger,
	}
}

func (f *FallbackSuggester) Suggest(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	if len(strings.TrimSpace(q)) < minSuggestQueryLen {
		return []Suggestion{}, nil
	}

	if !f.breaker.CanProceed() {
		return f.secondary.Suggest(ctx, q, limit)
	}

	out, err := f.primary.Suggest(ctx, q, limit)
	if err == nil {
		f.breaker.RecordSuccess()
		return out, nil
	}

	if f.breaker.RecordFailure() {
		f.logger.Error("Suggestion index failing repeatedly, bypassing it", zap.Error(err))
	} else {
		f.logger.Warn("Suggestion index unavailable, using database", zap.Error(err))
	}
	return f.secondary.Suggest(ctx, q, limit)
}

func citySuggestion(city, state string) Suggestion {
	label := city
	if state != "" {
		label = city + ", " + state
	}
	return Suggestion{Type: SuggestionCity, Value: city, Label: label}
}

func propertyTypeSuggestions(q string) []Suggestion {
	q = strings.ToLower(q)
	var out []Suggestion
	for _, t := range models.PropertyTypes {
		if strings.Contains(string(t), q) {
			out = append(out, Suggestion{Type: SuggestionPropertyType, Value: string(t), Label: propertyTypeLabel(t)})
		}
	}
	return out
}

func propertyTypeLabel(t models.PropertyType) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func prefixPattern(term string) string {
	return strings.TrimPrefix(containsPattern(term), "%")
}
