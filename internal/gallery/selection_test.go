package gallery

import (
	"errors"
	"testing"
)

func TestSelectedBatch_NoBatches(t *testing.T) {
	store := newTestStore(t, 24)
	if _, ok := store.SelectedBatch(0); ok {
		t.Error("expected ok=false with zero batches")
	}
}

func TestSelectedBatch_DefaultsToZero(t *testing.T) {
	store := newTestStore(t, 24)
	index, ok := store.SelectedBatch(3)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if index != 0 {
		t.Errorf("expected default index 0, got %d", index)
	}
}

func TestSelectBatch_PersistsAndClamps(t *testing.T) {
	store := newTestStore(t, 24)

	if err := store.SelectBatch(2); err != nil {
		t.Fatalf("SelectBatch error: %v", err)
	}

	index, ok := store.SelectedBatch(5)
	if !ok || index != 2 {
		t.Fatalf("expected index 2, got %d (ok=%v)", index, ok)
	}

	// Fewer batches than the persisted index: clamp to the last one.
	index, ok = store.SelectedBatch(2)
	if !ok || index != 1 {
		t.Errorf("expected clamped index 1, got %d (ok=%v)", index, ok)
	}
}

func TestSelectBatch_RejectsNegative(t *testing.T) {
	store := newTestStore(t, 24)
	if err := store.SelectBatch(-1); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
