package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"real-estate-marketplace/internal/config"
	"real-estate-marketplace/internal/metrics"
	"real-estate-marketplace/internal/models"
	"real-estate-marketplace/internal/notify"
	"real-estate-marketplace/internal/search"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SavedSearchStore loads saved searches and records their checkpoints
type SavedSearchStore interface {
	ActiveSavedSearches(limit int) ([]models.SavedSearch, error)
	MarkSavedSearchRun(id uint, at time.Time) error
}

// Matcher finds properties matching a filter set
type Matcher interface {
	MatchingIDs(ctx context.Context, f search.Filters, limit int) ([]uint, error)
}

// RunResult summarizes one pass over the saved searches
type RunResult struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Events    int `json:"events"`
	Errors    int `json:"errors"`
}

// Scheduler re-evaluates saved searches daily and publishes new matches
type Scheduler struct {
	cron      *cron.Cron
	store     SavedSearchStore
	matcher   Matcher
	publisher notify.Publisher
	config    config.SavedSearchesConfig
	logger    *zap.Logger
	now       func() time.Time
	isRunning bool
	runMu     sync.Mutex
}

// NewScheduler creates a new scheduler
func NewScheduler(store SavedSearchStore, matcher Matcher, publisher notify.Publisher, cfg *config.Config, logger *zap.Logger) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("Unknown timezone, scheduling in UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		store:     store,
		matcher:   matcher,
		publisher: publisher,
		config:    cfg.SavedSearches,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler: saved search notifications are disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		s.logger.Info("Scheduler: starting saved search run")
		result, err := s.runSavedSearches(context.Background())
		if err != nil {
			s.logger.Error("Scheduler: saved search run failed", zap.Error(err))
			return
		}
		s.logger.Info("Scheduler: saved search run completed",
			zap.Int("processed", result.Processed),
			zap.Int("events", result.Events),
			zap.Int("errors", result.Errors),
		)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Scheduler: started",
		zap.String("daily_run_time", s.config.DailyRunTime),
		zap.String("cron", cronSpec),
	)

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.logger.Info("Scheduler: stopped")
	}
}

// RunNow immediately executes the saved search job (for manual trigger)
func (s *Scheduler) RunNow(ctx context.Context) (RunResult, error) {
	s.logger.Info("Scheduler: manual trigger, starting saved search run")
	return s.runSavedSearches(ctx)
}

// runSavedSearches evaluates each active saved search for properties created
// since its checkpoint. A checkpoint only advances once its event is published.
func (s *Scheduler) runSavedSearches(ctx context.Context) (RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var result RunResult
	runAt := s.now().UTC()

	searches, err := s.store.ActiveSavedSearches(s.config.BatchLimit)
	if err != nil {
		return result, fmt.Errorf("failed to load saved searches: %w", err)
	}

	for i := range searches {
		ss := &searches[i]
		result.Processed++

		ids, err := s.evaluate(ctx, ss, runAt)
		if err != nil {
			result.Errors++
			s.logger.Error("Scheduler: failed to evaluate saved search", zap.Uint("saved_search_id", ss.ID), zap.Error(err))
			continue
		}

		if len(ids) > 0 {
			result.Matched += len(ids)
			event := notify.MatchEvent{
				ID:            uuid.NewString(),
				SavedSearchID: ss.ID,
				UserID:        ss.UserID,
				Name:          ss.Name,
				PropertyIDs:   ids,
				Count:         len(ids),
				OccurredAt:    runAt,
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				result.Errors++
				s.logger.Error("Scheduler: failed to publish match event", zap.Uint("saved_search_id", ss.ID), zap.Error(err))
				continue
			}
			result.Events++
			metrics.SavedSearchMatchesTotal.Add(float64(len(ids)))
		}

		if err := s.store.MarkSavedSearchRun(ss.ID, runAt); err != nil {
			result.Errors++
			s.logger.Error("Scheduler: failed to advance checkpoint", zap.Uint("saved_search_id", ss.ID), zap.Error(err))
		}
	}

	return result, nil
}

// evaluate matches listings created in (checkpoint, runAt], so consecutive
// runs cover adjacent windows.
func (s *Scheduler) evaluate(ctx context.Context, ss *models.SavedSearch, runAt time.Time) ([]uint, error) {
	var f search.Filters
	if len(ss.Filters) > 0 {
		if err := json.Unmarshal(ss.Filters, &f); err != nil {
			return nil, fmt.Errorf("invalid filters: %w", err)
		}
	}

	checkpoint := ss.CheckpointAt()
	f.CreatedAfter = &checkpoint
	f.CreatedBefore = &runAt

	return s.matcher.MatchingIDs(ctx, f, 0)
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	hour, minute, err := config.ParseDailyRunTime(timeStr)
	if err != nil {
		s.logger.Warn("Scheduler: failed to parse run time, using default 07:00", zap.String("value", timeStr))
		return "0 7 * * *"
	}
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
