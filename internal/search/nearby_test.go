package search

import (
	"context"
	"errors"
	"testing"

	"real-estate-marketplace/internal/models"
)

func summaryTitles(data []PropertySummary) []string {
	out := make([]string, 0, len(data))
	for _, p := range data {
		out = append(out, p.Title)
	}
	return out
}

func TestNearby(t *testing.T) {
	fx := seedTexas(t)
	svc := newTestService(fx, nil)
	ctx := context.Background()
	austin := fx.props["austin"].ID

	tests := []struct {
		name   string
		params NearbyParams
		want   []string
	}{
		{"default radius", NearbyParams{}, nil},
		{"wider radius", NearbyParams{Radius: ptr(20.0)}, []string{"roundrock"}},
		{"whole region", NearbyParams{Radius: ptr(300.0)}, []string{"roundrock", "dallas"}},
		{"limited", NearbyParams{Radius: ptr(300.0), Limit: 1}, []string{"roundrock"}},
		{"type filter", NearbyParams{Radius: ptr(300.0), PropertyType: models.PropertyTypeLand}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Nearby(ctx, austin, tt.params)
			if err != nil {
				t.Fatal(err)
			}
			assertTitles(t, summaryTitles(got), tt.want...)
			for _, p := range got {
				if p.ID == austin {
					t.Error("reference property must be excluded")
				}
				if p.Distance == nil {
					t.Error("nearby results carry their distance")
				}
			}
		})
	}
}

func TestNearby_ReferenceWithoutCoordinates(t *testing.T) {
	fx := seedTexas(t)
	svc := newTestService(fx, nil)

	got, err := svc.Nearby(context.Background(), fx.props["lot"].ID, NearbyParams{Radius: ptr(1000.0)})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestNearby_UnknownProperty(t *testing.T) {
	fx := seedTexas(t)
	svc := newTestService(fx, nil)

	_, err := svc.Nearby(context.Background(), 9999, NearbyParams{})
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestSimilar(t *testing.T) {
	fx := newFixture(t)
	ref := fx.add(t, "reference", models.Property{Price: 500000, IsApproved: true})
	fx.add(t, "plus18", models.Property{Price: 590000, IsApproved: true})
	fx.add(t, "plus30", models.Property{Price: 650000, IsApproved: true})
	fx.add(t, "minus16", models.Property{Price: 420000, IsApproved: true})
	fx.add(t, "rental", models.Property{Price: 500000, Status: models.ListingStatusForRent, IsApproved: true})
	fx.add(t, "condo", models.Property{Price: 500000, Type: models.PropertyTypeCondo, IsApproved: true})
	fx.add(t, "pending review", models.Property{Price: 510000})

	svc := newTestService(fx, nil)
	ctx := context.Background()

	got, err := svc.Similar(ctx, ref.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	assertTitles(t, summaryTitles(got), "minus16", "plus18")

	got, err = svc.Similar(ctx, ref.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	assertTitles(t, summaryTitles(got), "minus16")

	if _, err := svc.Similar(ctx, 9999, 0); !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("expected ErrPropertyNotFound, got %v", err)
	}
}
