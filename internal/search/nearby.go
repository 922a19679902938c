package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"real-estate-marketplace/internal/geo"
	"real-estate-marketplace/internal/metrics"
	"real-estate-marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// similarPriceBand is the relative price window for similar listings
const similarPriceBand = 0.20

// NearbyParams narrows a nearby lookup. Zero values use the service defaults.
type NearbyParams struct {
	Radius       *float64
	PropertyType models.PropertyType
	Limit        int
}

// Nearby returns approved properties within the radius of the reference
// property, nearest first, excluding the reference itself. A reference
// without coordinates has no neighbours.
func (s *Service) Nearby(ctx context.Context, propertyID uint, params NearbyParams) ([]PropertySummary, error) {
	defer metrics.ObserveSearch("nearby", time.Now())

	ref, err := s.reference(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !ref.HasCoordinates() {
		return []PropertySummary{}, nil
	}

	radius := s.opts.NearbyRadius
	if params.Radius != nil && *params.Radius >= 0 {
		radius = *params.Radius
	}
	limit := params.Limit
	if limit <= 0 {
		limit = s.opts.NearbyLimit
	}

	lat, lon := *ref.Latitude, *ref.Longitude
	q := s.db.WithContext(ctx).Model(&models.Property{}).
		Scopes(withinBox(geo.BoundingBox(lat, lon, radius))).
		Where("is_approved = ?", true).
		Where("id <> ?", ref.ID)
	if params.PropertyType != "" {
		q = q.Where("type = ?", params.PropertyType)
	}

	var rows []coordinateRow
	if err := q.Select("id", "latitude", "longitude").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load nearby candidates: %w", err)
	}

	hits := rankByDistance(rows, lat, lon, radius)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	data, err := s.loadSummaries(ctx, hits)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []PropertySummary{}
	}
	return data, nil
}

// Similar returns approved properties of the same type and status priced
// within 20% of the reference property, closest price first.
func (s *Service) Similar(ctx context.Context, propertyID uint, limit int) ([]PropertySummary, error) {
	defer metrics.ObserveSearch("similar", time.Now())

	ref, err := s.reference(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.SimilarLimit
	}

	low := ref.Price * (1 - similarPriceBand)
	high := ref.Price * (1 + similarPriceBand)

	var rows []models.Property
	err = withRelations(s.db.WithContext(ctx).Model(&models.Property{})).
		Where("is_approved = ?", true).
		Where("id <> ?", ref.ID).
		Where("type = ? AND status = ?", ref.Type, ref.Status).
		Where("price BETWEEN ? AND ?", low, high).
		Order(clause.OrderBy{Expression: clause.Expr{SQL: "ABS(price - ?) ASC, id ASC", Vars: []interface{}{ref.Price}}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load similar properties: %w", err)
	}

	data := make([]PropertySummary, 0, len(rows))
	for i := range rows {
		data = append(data, Summarize(&rows[i]))
	}
	return data, nil
}

// reference loads the property a nearby/similar lookup is anchored on
func (s *Service) reference(ctx context.Context, id uint) (*models.Property, error) {
	var ref models.Property
	err := s.db.WithContext(ctx).First(&ref, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load property %d: %w", id, err)
	}
	return &ref, nil
}
