package gallery

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

func isImageName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".png")
}

// Images returns every live image ordered ascending by modification time,
// the canonical surrogate for upload order. Ties keep enumeration order.
func (s *Store) Images() ([]Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imagesLocked()
}

// imagesLocked scans the upload root plus one level of batch subfolders.
// The trash subtree and any other non-batch directories are skipped.
func (s *Store) imagesLocked() ([]Image, error) {
	entries, err := os.ReadDir(s.rootAbs)
	if err != nil {
		return nil, err
	}

	var images []Image
	for _, entry := range entries {
		if entry.IsDir() {
			if _, ok := parseBatchFolder(entry.Name()); !ok {
				continue
			}
			subEntries, err := os.ReadDir(filepath.Join(s.rootAbs, entry.Name()))
			if err != nil {
				return nil, err
			}
			for _, sub := range subEntries {
				images = appendImage(images, path.Join(entry.Name(), sub.Name()), sub)
			}
			continue
		}
		images = appendImage(images, entry.Name(), entry)
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].ModifiedAt.Before(images[j].ModifiedAt)
	})
	return images, nil
}

func appendImage(images []Image, rel string, entry fs.DirEntry) []Image {
	if entry.IsDir() || !isImageName(entry.Name()) {
		return images
	}
	info, err := entry.Info()
	if err != nil {
		// File vanished between listing and stat; treat as not live.
		slog.Warn("skipping unstattable image", "path", rel, "error", err)
		return images
	}
	return append(images, Image{
		RelPath:    rel,
		Filename:   entry.Name(),
		ModifiedAt: info.ModTime(),
	})
}
