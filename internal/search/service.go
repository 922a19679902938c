package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"real-estate-marketplace/internal/cache"
	"real-estate-marketplace/internal/geo"
	"real-estate-marketplace/internal/metrics"
	"real-estate-marketplace/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrPropertyNotFound is returned when a reference property does not exist or is not visible
var ErrPropertyNotFound = errors.New("property not found")

// Options configures a Service
type Options struct {
	Pagination   Pagination
	CacheTTL     time.Duration
	NearbyRadius float64
	NearbyLimit  int
	SimilarLimit int
}

// DefaultOptions returns the standard search settings
func DefaultOptions() Options {
	return Options{
		Pagination:   DefaultPagination,
		CacheTTL:     5 * time.Minute,
		NearbyRadius: 10,
		NearbyLimit:  6,
		SimilarLimit: 6,
	}
}

// Service evaluates property searches against the store behind a result cache
type Service struct {
	db     *gorm.DB
	cache  cache.Store
	opts   Options
	logger *zap.Logger
}

// NewService creates a search service. store may be nil to disable caching.
func NewService(db *gorm.DB, store cache.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cache: store, opts: opts, logger: logger}
}

// Search returns one page of properties matching f. Identical normalized
// requests within the cache TTL are served from the cache.
func (s *Service) Search(ctx context.Context, f Filters, privileged bool) (*Page, error) {
	f = f.Normalize(s.opts.Pagination)
	key := f.CacheKey(privileged)

	if page, ok := s.cached(ctx, key); ok {
		return page, nil
	}

	page, err := s.evaluate(ctx, f, privileged)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, page)
	return page, nil
}

// Evaluate runs the search against the store, bypassing the cache
func (s *Service) Evaluate(ctx context.Context, f Filters, privileged bool) (*Page, error) {
	return s.evaluate(ctx, f.Normalize(s.opts.Pagination), privileged)
}

// MatchingIDs returns the ids of up to limit approved properties matching f,
// oldest first. Pagination and sorting in f are ignored.
func (s *Service) MatchingIDs(ctx context.Context, f Filters, limit int) ([]uint, error) {
	defer metrics.ObserveSearch("saved_search", time.Now())

	f = f.Normalize(s.opts.Pagination)
	if f.RadiusActive() {
		hits, err := s.radiusHits(ctx, f, false)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })

		ids := make([]uint, 0, len(hits))
		for _, h := range hits {
			if limit > 0 && len(ids) == limit {
				break
			}
			ids = append(ids, h.ID)
		}
		return ids, nil
	}

	var ids []uint
	q := s.filtered(ctx, f, false).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find matching properties: %w", err)
	}
	return ids, nil
}

func (s *Service) evaluate(ctx context.Context, f Filters, privileged bool) (*Page, error) {
	if f.RadiusActive() {
		defer metrics.ObserveSearch("radius", time.Now())
		return s.evaluateRadius(ctx, f, privileged)
	}

	defer metrics.ObserveSearch("filter", time.Now())

	var total int64
	if err := s.filtered(ctx, f, privileged).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	offset := (f.Page - 1) * f.PerPage
	if int64(offset) >= total {
		return newPage(nil, f, total), nil
	}

	var rows []models.Property
	err := withRelations(s.filtered(ctx, f, privileged)).
		Scopes(orderBy(f)).
		Offset(offset).
		Limit(f.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}

	data := make([]PropertySummary, 0, len(rows))
	for i := range rows {
		data = append(data, Summarize(&rows[i]))
	}
	return newPage(data, f, total), nil
}

// evaluateRadius applies the exact distance filter in memory after a bounding
// box prefilter in the store, then orders by distance and paginates.
func (s *Service) evaluateRadius(ctx context.Context, f Filters, privileged bool) (*Page, error) {
	hits, err := s.radiusHits(ctx, f, privileged)
	if err != nil {
		return nil, err
	}

	total := int64(len(hits))
	start := (f.Page - 1) * f.PerPage
	if start >= len(hits) {
		return newPage(nil, f, total), nil
	}
	end := start + f.PerPage
	if end > len(hits) {
		end = len(hits)
	}

	data, err := s.loadSummaries(ctx, hits[start:end])
	if err != nil {
		return nil, err
	}
	return newPage(data, f, total), nil
}

// distanceHit is a candidate row with its distance from the query point
type distanceHit struct {
	ID       uint
	Distance float64
}

type coordinateRow struct {
	ID        uint
	Latitude  float64
	Longitude float64
}

func (s *Service) radiusHits(ctx context.Context, f Filters, privileged bool) ([]distanceHit, error) {
	lat, lon, radius := *f.Latitude, *f.Longitude, *f.Radius

	var rows []coordinateRow
	err := s.filtered(ctx, f, privileged).
		Scopes(withinBox(geo.BoundingBox(lat, lon, radius))).
		Select("id", "latitude", "longitude").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load radius candidates: %w", err)
	}

	return rankByDistance(rows, lat, lon, radius), nil
}

// rankByDistance keeps rows within radius miles, nearest first, ties by id
func rankByDistance(rows []coordinateRow, lat, lon, radius float64) []distanceHit {
	hits := make([]distanceHit, 0, len(rows))
	for _, r := range rows {
		d := geo.DistanceMiles(lat, lon, r.Latitude, r.Longitude)
		if d <= radius {
			hits = append(hits, distanceHit{ID: r.ID, Distance: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

func withinBox(box geo.Box) scope {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Where("latitude BETWEEN ? AND ?", box.South, box.North)
		if box.WrapsLongitude {
			return db
		}
		return db.Where("longitude BETWEEN ? AND ?", box.West, box.East)
	}
}

// loadSummaries loads full rows for hits and returns them in hit order with distances attached
func (s *Service) loadSummaries(ctx context.Context, hits []distanceHit) ([]PropertySummary, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	var rows []models.Property
	if err := withRelations(s.db.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	byID := make(map[uint]*models.Property, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	data := make([]PropertySummary, 0, len(hits))
	for _, h := range hits {
		p, ok := byID[h.ID]
		if !ok {
			// deleted between the candidate scan and the load
			continue
		}
		summary := Summarize(p)
		distance := roundMiles(h.Distance)
		summary.Distance = &distance
		data = append(data, summary)
	}
	return data, nil
}

// filtered returns a fresh query over properties with the compiled filters applied
func (s *Service) filtered(ctx context.Context, f Filters, privileged bool) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Property{}).Scopes(Compile(f, privileged)...)
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Owner").
		Preload("Images", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order ASC") }).
		Preload("Amenities", func(tx *gorm.DB) *gorm.DB { return tx.Order("amenities.id ASC") })
}

func (s *Service) cached(ctx context.Context, key string) (*Page, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			metrics.CacheResult("search", "miss")
		} else {
			metrics.CacheResult("search", "error")
			s.logger.Warn("Search cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		metrics.CacheResult("search", "error")
		s.logger.Warn("Discarding undecodable cached page", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	metrics.CacheResult("search", "hit")
	return &page, true
}

func (s *Service) store(ctx context.Context, key string, page *Page) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("Failed to encode search page", zap.Error(err))
		return
	}
	if err := s.cache.Put(ctx, key, data, s.opts.CacheTTL); err != nil {
		s.logger.Warn("Search cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func roundMiles(d float64) float64 {
	return float64(int64(d*100+0.5)) / 100
}
