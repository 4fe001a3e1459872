package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

func testRisk(id, user string, sev domain.Severity, detected time.Time) *domain.Risk {
	return &domain.Risk{
		ID:               id,
		UserID:           user,
		Title:            "risk " + id,
		Severity:         sev,
		Status:           domain.RiskStatusActive,
		LinkedControlIDs: []string{"c1"},
		DetectedAt:       detected,
	}
}

func TestRiskStore_InsertAndGet(t *testing.T) {
	store := NewRiskStore()
	ctx := context.Background()

	r := testRisk("r1", "u1", domain.SeverityHigh, time.Unix(100, 0))
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != r.Title || got.Severity != r.Severity {
		t.Errorf("mismatch: got %+v", got)
	}

	// Returned copies must not alias stored state
	got.LinkedControlIDs[0] = "mutated"
	again, _ := store.GetByID(ctx, "r1")
	if again.LinkedControlIDs[0] != "c1" {
		t.Error("store returned an aliased slice")
	}
	r.LinkedControlIDs[0] = "mutated"
	again, _ = store.GetByID(ctx, "r1")
	if again.LinkedControlIDs[0] != "c1" {
		t.Error("store kept the caller's slice")
	}
}

func TestRiskStore_Errors(t *testing.T) {
	store := NewRiskStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.Risk{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	r := testRisk("r1", "u1", domain.SeverityHigh, time.Unix(100, 0))
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, r); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Dismiss(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRiskStore_ListFiltersAndOrders(t *testing.T) {
	store := NewRiskStore()
	ctx := context.Background()

	for _, r := range []*domain.Risk{
		testRisk("b", "u1", domain.SeverityHigh, time.Unix(200, 0)),
		testRisk("a", "u1", domain.SeverityUrgent, time.Unix(200, 0)),
		testRisk("c", "u1", domain.SeverityHigh, time.Unix(100, 0)),
		testRisk("x", "u2", domain.SeverityHigh, time.Unix(50, 0)),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := store.Dismiss(ctx, "b"); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}

	got, err := store.List(ctx, storage.RiskFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("unexpected active list: %v", ids(got))
	}

	got, _ = store.List(ctx, storage.RiskFilter{UserID: "u1", IncludeDismissed: true})
	if len(got) != 3 || got[1].ID != "a" || got[2].ID != "b" {
		t.Errorf("ties should order by id, got %v", ids(got))
	}

	got, _ = store.List(ctx, storage.RiskFilter{UserID: "u1", Severity: domain.SeverityUrgent})
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("severity filter: got %v", ids(got))
	}
}

func TestRiskStore_ConcurrentAccess(t *testing.T) {
	store := NewRiskStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('A' + i))
			_ = store.Insert(ctx, testRisk(id, "u1", domain.SeverityNormal, time.Unix(int64(i), 0)))
			_, _ = store.List(ctx, storage.RiskFilter{UserID: "u1"})
		}(i)
	}
	wg.Wait()

	got, _ := store.List(ctx, storage.RiskFilter{UserID: "u1"})
	if len(got) != 50 {
		t.Errorf("expected 50 risks, got %d", len(got))
	}
}

func ids(risks []*domain.Risk) []string {
	out := make([]string, len(risks))
	for i, r := range risks {
		out[i] = r.ID
	}
	return out
}
