package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"real-estate-marketplace/internal/cache"
	"real-estate-marketplace/internal/metrics"
	"real-estate-marketplace/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary aggregates the approved reviews of one property
type Summary struct {
	PropertyID   uint           `json:"property_id"`
	Average      float64        `json:"average"`
	Count        int64          `json:"count"`
	Distribution map[string]int `json:"distribution"` // "1".."5" -> count
}

// Service computes rating summaries behind the shared cache
type Service struct {
	db     *gorm.DB
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a rating summary service. store may be nil to disable caching.
func NewService(db *gorm.DB, store cache.Store, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cache: store, ttl: ttl, logger: logger}
}

// RatingSummary returns the summary for a property, cached for the configured TTL
func (s *Service) RatingSummary(ctx context.Context, propertyID uint) (*Summary, error) {
	key := "rating_summary:v1:" + strconv.FormatUint(uint64(propertyID), 10)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var summary Summary
			if err := json.Unmarshal(data, &summary); err == nil {
				metrics.CacheResult("summary", "hit")
				return &summary, nil
			}
			metrics.CacheResult("summary", "error")
		} else if errors.Is(err, cache.ErrMiss) {
			metrics.CacheResult("summary", "miss")
		} else {
			metrics.CacheResult("summary", "error")
			s.logger.Warn("Rating summary cache read failed", zap.Uint("property_id", propertyID), zap.Error(err))
		}
	}

	summary, err := s.compute(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, _ := json.Marshal(summary)
		if err := s.cache.Put(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("Rating summary cache write failed", zap.Uint("property_id", propertyID), zap.Error(err))
		}
	}
	return summary, nil
}

func (s *Service) compute(ctx context.Context, propertyID uint) (*Summary, error) {
	var rows []struct {
		Rating int
		Total  int
	}
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("property_id = ? AND is_approved = ?", propertyID, true).
		Where("rating BETWEEN 1 AND 5").
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	summary := &Summary{
		PropertyID:   propertyID,
		Distribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0},
	}

	var sum int64
	for _, r := range rows {
		summary.Distribution[strconv.Itoa(r.Rating)] = r.Total
		summary.Count += int64(r.Total)
		sum += int64(r.Rating * r.Total)
	}
	if summary.Count > 0 {
		summary.Average = math.Round(float64(sum)/float64(summary.Count)*100) / 100
	}
	return summary, nil
}
