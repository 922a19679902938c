package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"real-estate-marketplace/internal/config"
	"real-estate-marketplace/internal/database"
	"real-estate-marketplace/internal/models"
	"real-estate-marketplace/internal/notify"
	"real-estate-marketplace/internal/search"
	"real-estate-marketplace/internal/testutil"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []notify.MatchEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.MatchEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type harness struct {
	store     *database.GormDB
	scheduler *Scheduler
	publisher *recordingPublisher
	owner     models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := testutil.NewStore(t)
	owner := models.User{Name: "Agent", Email: "agent@example.com"}
	if err := store.DB().Create(&owner).Error; err != nil {
		t.Fatal(err)
	}

	svc := search.NewService(store.DB(), nil, search.DefaultOptions(), zap.NewNop())
	pub := &recordingPublisher{}
	cfg := config.DefaultConfig()
	s := NewScheduler(store, svc, pub, cfg, zap.NewNop())
	s.now = func() time.Time { return t0.Add(24 * time.Hour) }

	return &harness{store: store, scheduler: s, publisher: pub, owner: owner}
}

func (h *harness) addProperty(t *testing.T, city string, created time.Time) uint {
	t.Helper()
	p := models.Property{
		OwnerID: h.owner.ID, Title: city + " listing", Type: models.PropertyTypeHouse,
		Status: models.ListingStatusForSale, Price: 250000, City: city, IsApproved: true, CreatedAt: created,
	}
	if err := h.store.SaveProperty(&p); err != nil {
		t.Fatal(err)
	}
	return p.ID
}

func (h *harness) addSavedSearch(t *testing.T, filters string) *models.SavedSearch {
	t.Helper()
	ss := &models.SavedSearch{UserID: 7, Name: "watch", Filters: datatypes.JSON(filters), IsActive: true, CreatedAt: t0}
	if err := h.store.DB().Create(ss).Error; err != nil {
		t.Fatal(err)
	}
	return ss
}

func TestRunNow_PublishesNewMatches(t *testing.T) {
	h := newHarness(t)
	h.addProperty(t, "Austin", t0.Add(-time.Hour)) // before the saved search existed
	fresh := h.addProperty(t, "Austin", t0.Add(2*time.Hour))
	h.addProperty(t, "Dallas", t0.Add(3*time.Hour))
	ss := h.addSavedSearch(t, `{"city":"austin","sort_by":"price"}`)

	result, err := h.scheduler.RunNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != 1 || result.Events != 1 || result.Matched != 1 || result.Errors != 0 {
		t.Errorf("unexpected result %+v", result)
	}

	if len(h.publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(h.publisher.events))
	}
	event := h.publisher.events[0]
	if event.SavedSearchID != ss.ID || event.UserID != 7 || event.Count != 1 || event.PropertyIDs[0] != fresh {
		t.Errorf("unexpected event %+v", event)
	}
	if event.ID == "" {
		t.Error("event needs an id")
	}

	// Second run finds nothing new past the advanced checkpoint
	result, err = h.scheduler.RunNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Events != 0 || len(h.publisher.events) != 1 {
		t.Errorf("expected no new events, got %+v", result)
	}
}

func TestRunNow_PublishFailureKeepsCheckpoint(t *testing.T) {
	h := newHarness(t)
	h.addProperty(t, "Austin", t0.Add(time.Hour))
	ss := h.addSavedSearch(t, `{"city":"austin"}`)
	h.publisher.err = errors.New("broker unavailable")

	result, err := h.scheduler.RunNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors != 1 || result.Events != 0 {
		t.Errorf("unexpected result %+v", result)
	}

	var reloaded models.SavedSearch
	if err := h.store.DB().First(&reloaded, ss.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.LastRunAt != nil {
		t.Errorf("checkpoint must not advance when publishing fails, got %v", reloaded.LastRunAt)
	}

	h.publisher.err = nil
	if _, err := h.scheduler.RunNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.publisher.events) != 1 {
		t.Errorf("expected the match to be delivered on retry, got %d events", len(h.publisher.events))
	}
}

func TestRunNow_InvalidFiltersAreSkipped(t *testing.T) {
	h := newHarness(t)
	h.addSavedSearch(t, `{"min_price":"cheap"}`)

	result, err := h.scheduler.RunNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Processed != 1 || result.Errors != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestParseDailyRunTime(t *testing.T) {
	s := &Scheduler{logger: zap.NewNop()}

	tests := map[string]string{
		"02:00": "0 2 * * *",
		"23:45": "45 23 * * *",
		"bogus": "0 7 * * *",
	}
	for in, want := range tests {
		if got := s.parseDailyRunTime(in); got != want {
			t.Errorf("parseDailyRunTime(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStart_Disabled(t *testing.T) {
	h := newHarness(t)
	if err := h.scheduler.Start(); err != nil {
		t.Fatal(err)
	}
	if h.scheduler.isRunning {
		t.Error("disabled scheduler must not start cron")
	}
	h.scheduler.Stop()
}

func TestRunNow_ListingReportedInOneWindow(t *testing.T) {
	h := newHarness(t)
	runAt := t0.Add(24 * time.Hour)
	inWindow := h.addProperty(t, "Austin", runAt)
	late := h.addProperty(t, "Austin", runAt.Add(time.Second))
	h.addSavedSearch(t, `{"city":"austin"}`)

	if _, err := h.scheduler.RunNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(h.publisher.events))
	}
	if ids := h.publisher.events[0].PropertyIDs; len(ids) != 1 || ids[0] != inWindow {
		t.Errorf("expected only the listing created by the run time, got %v", ids)
	}

	h.scheduler.now = func() time.Time { return runAt.Add(time.Hour) }
	if _, err := h.scheduler.RunNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.publisher.events) != 2 {
		t.Fatalf("expected a second event, got %d", len(h.publisher.events))
	}
	if ids := h.publisher.events[1].PropertyIDs; len(ids) != 1 || ids[0] != late {
		t.Errorf("expected only the late listing in the next window, got %v", ids)
	}
}
