package reviews

import (
	"context"
	"testing"
	"time"

	"real-estate-marketplace/internal/cache"
	"real-estate-marketplace/internal/models"
	"real-estate-marketplace/internal/testutil"

	"go.uber.org/zap"
)

func TestRatingSummary(t *testing.T) {
	store := testutil.NewStore(t)
	db := store.DB()

	reviews := []models.Review{
		{PropertyID: 1, UserID: 1, Rating: 5, IsApproved: true},
		{PropertyID: 1, UserID: 2, Rating: 4, IsApproved: true},
		{PropertyID: 1, UserID: 3, Rating: 4, IsApproved: true},
		{PropertyID: 1, UserID: 4, Rating: 1, IsApproved: false},
		{PropertyID: 2, UserID: 1, Rating: 2, IsApproved: true},
	}
	if err := db.Create(&reviews).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewService(db, nil, time.Hour, zap.NewNop())
	summary, err := svc.RatingSummary(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if summary.Count != 3 {
		t.Errorf("expected 3 approved reviews, got %d", summary.Count)
	}
	if summary.Average != 4.33 {
		t.Errorf("expected average 4.33, got %v", summary.Average)
	}
	want := map[string]int{"1": 0, "2": 0, "3": 0, "4": 2, "5": 1}
	for k, v := range want {
		if summary.Distribution[k] != v {
			t.Errorf("distribution[%s] = %d, want %d", k, summary.Distribution[k], v)
		}
	}
}

func TestRatingSummary_NoReviews(t *testing.T) {
	store := testutil.NewStore(t)
	svc := NewService(store.DB(), nil, time.Hour, zap.NewNop())

	summary, err := svc.RatingSummary(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count != 0 || summary.Average != 0 || len(summary.Distribution) != 5 {
		t.Errorf("unexpected empty summary %+v", summary)
	}
}

func TestRatingSummary_Cached(t *testing.T) {
	store := testutil.NewStore(t)
	db := store.DB()
	mem := cache.NewMemory(10)
	defer mem.Stop()

	db.Create(&models.Review{PropertyID: 7, UserID: 1, Rating: 3, IsApproved: true})

	svc := NewService(db, mem, time.Hour, zap.NewNop())
	first, err := svc.RatingSummary(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}

	db.Create(&models.Review{PropertyID: 7, UserID: 2, Rating: 5, IsApproved: true})

	second, err := svc.RatingSummary(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if second.Count != first.Count || second.Average != 3 {
		t.Errorf("expected cached summary, got %+v", second)
	}
}
