package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

func TestAnalysisResultStore_InsertAndGet(t *testing.T) {
	store := NewAnalysisResultStore()
	ctx := context.Background()

	r := &domain.AnalysisResult{
		ID:      "r1",
		Symbol:  "AAA",
		Horizon: 5,
		Advice:  &domain.PositionAdvice{Signal: domain.SignalBuy, RecommendedPosition: 0.7},
	}
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the caller's value must not leak into the store
	r.Advice.RecommendedPosition = 0.1

	got, err := store.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Advice.RecommendedPosition != 0.7 {
		t.Errorf("stored advice was aliased: got %f", got.Advice.RecommendedPosition)
	}

	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Insert(ctx, &domain.AnalysisResult{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalysisResultStore_GetBySymbolOrdering(t *testing.T) {
	store := NewAnalysisResultStore()
	ctx := context.Background()
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	for _, r := range []*domain.AnalysisResult{
		{ID: "c", Symbol: "AAA", Horizon: 5, AsOf: d2},
		{ID: "b", Symbol: "AAA", Horizon: 20, AsOf: d1},
		{ID: "a", Symbol: "AAA", Horizon: 5, AsOf: d1},
		{ID: "x", Symbol: "BBB", Horizon: 5, AsOf: d1},
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetBySymbol(ctx, "AAA")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, want)
		}
	}
}
