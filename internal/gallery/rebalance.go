package gallery

import (
	"os"
	"path"
	"path/filepath"
)

// Rebalance repacks live images into batch folders so folders fill
// left-to-right in global order with no folder over capacity and no gaps.
// Running it twice with no intervening changes moves nothing the second time.
func (s *Store) Rebalance() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebalanceLocked()
}

func (s *Store) rebalanceLocked() (int, error) {
	images, err := s.imagesLocked()
	if err != nil {
		return 0, err
	}

	moved := 0
	for i, image := range images {
		targetDir := batchFolderName(i/s.batchSize + 1)
		if path.Dir(image.RelPath) == targetDir {
			continue
		}
		targetAbs := filepath.Join(s.rootAbs, targetDir)
		if err := os.MkdirAll(targetAbs, 0o755); err != nil {
			return moved, err
		}
		name, err := uniqueFilename(image.Filename, targetAbs)
		if err != nil {
			return moved, err
		}
		src := filepath.Join(s.rootAbs, filepath.FromSlash(image.RelPath))
		if err := os.Rename(src, filepath.Join(targetAbs, name)); err != nil {
			return moved, err
		}
		moved++
	}

	// Prune batch folders the repack emptied. Removal fails on folders still
	// holding non-image files, which is fine to leave alone.
	indices, err := s.batchIndices()
	if err != nil {
		return moved, err
	}
	for _, index := range indices {
		dir := filepath.Join(s.rootAbs, batchFolderName(index))
		count, err := countImages(dir)
		if err != nil {
			return moved, err
		}
		if count == 0 {
			_ = os.Remove(dir)
		}
	}
	return moved, nil
}
