package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const batchPrefix = "batch-"

func batchFolderName(index int) string {
	return fmt.Sprintf("%s%04d", batchPrefix, index)
}

func parseBatchFolder(name string) (int, bool) {
	if !strings.HasPrefix(name, batchPrefix) {
		return 0, false
	}
	index, err := strconv.Atoi(name[len(batchPrefix):])
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}

// batchIndices lists existing batch folder indices in ascending order.
// Occupancy is always derived by listing, never stored.
func (s *Store) batchIndices() ([]int, error) {
	entries, err := os.ReadDir(s.rootAbs)
	if err != nil {
		return nil, err
	}
	var indices []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if index, ok := parseBatchFolder(entry.Name()); ok {
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)
	return indices, nil
}

func countImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && isImageName(entry.Name()) {
			count++
		}
	}
	return count, nil
}

// uploadTargetDir picks the batch folder receiving the next upload: the
// highest-numbered existing folder while it has capacity, otherwise the next
// index. Creates batch-0001 when no batch folders exist yet.
func (s *Store) uploadTargetDir() (string, error) {
	indices, err := s.batchIndices()
	if err != nil {
		return "", err
	}
	next := 1
	if len(indices) > 0 {
		last := indices[len(indices)-1]
		count, err := countImages(filepath.Join(s.rootAbs, batchFolderName(last)))
		if err != nil {
			return "", err
		}
		if count < s.batchSize {
			return batchFolderName(last), nil
		}
		next = last + 1
	}
	name := batchFolderName(next)
	if err := os.MkdirAll(filepath.Join(s.rootAbs, name), 0o755); err != nil {
		return "", err
	}
	return name, nil
}

// FolderInfo reports one physical batch folder and its image count.
type FolderInfo struct {
	Folder string `json:"folder"`
	Count  int    `json:"count"`
}

// Folders lists the existing batch folders with their current occupancy.
func (s *Store) Folders() ([]FolderInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indices, err := s.batchIndices()
	if err != nil {
		return nil, err
	}
	folders := make([]FolderInfo, 0, len(indices))
	for _, index := range indices {
		name := batchFolderName(index)
		count, err := countImages(filepath.Join(s.rootAbs, name))
		if err != nil {
			return nil, err
		}
		folders = append(folders, FolderInfo{Folder: name, Count: count})
	}
	return folders, nil
}

// Batch is one contiguous window of the global upload order.
type Batch struct {
	Index int
	Items []Image
}

// Batches windows the ordered live images into batchSize groups, oldest
// first. Post-rebalance this matches physical folder membership.
func (s *Store) Batches() ([]Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	images, err := s.imagesLocked()
	if err != nil {
		return nil, err
	}
	var batches []Batch
	for start := 0; start < len(images); start += s.batchSize {
		end := start + s.batchSize
		if end > len(images) {
			end = len(images)
		}
		batches = append(batches, Batch{
			Index: len(batches),
			Items: images[start:end],
		})
	}
	return batches, nil
}
