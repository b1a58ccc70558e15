package gallery

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jajady/love-from-fans/internal/persist"
)

const selectionKey = "selection"

type selectionRecord struct {
	Index int `json:"index"`
}

// SelectedBatch returns the persisted live-batch index clamped into
// [0, totalBatches-1]. ok is false when no batches exist; an absent or
// unreadable record defaults to 0.
func (s *Store) SelectedBatch(totalBatches int) (index int, ok bool) {
	if totalBatches <= 0 {
		return 0, false
	}
	var record selectionRecord
	if err := s.records.Load(selectionKey, &record); err != nil {
		if !errors.Is(err, persist.ErrNoRecord) {
			slog.Warn("failed to load batch selection, defaulting to 0", "error", err)
		}
		record.Index = 0
	}
	if record.Index < 0 {
		record.Index = 0
	}
	if record.Index >= totalBatches {
		record.Index = totalBatches - 1
	}
	return record.Index, true
}

// SelectBatch persists a new live-batch index. The value is only required to
// be non-negative; reads clamp against the batch count of the moment.
func (s *Store) SelectBatch(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: batch index must be non-negative, got %d", ErrValidation, index)
	}
	return s.records.Save(selectionKey, selectionRecord{Index: index})
}
