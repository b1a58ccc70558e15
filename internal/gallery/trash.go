package gallery

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jajady/love-from-fans/internal/fsutil"
	"github.com/jajady/love-from-fans/internal/persist"
)

const (
	trashFolderName  = ".trash"
	trashManifestKey = "trash"
)

// TrashEntry records one image moved into the trash subtree. The file is
// physically relocated; a stale entry whose file disappeared is filtered out
// on listing and rejected on restore.
type TrashEntry struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalPath string    `json:"originalPath"`
	TrashedPath  string    `json:"trashedPath"`
	TrashedAt    time.Time `json:"trashedAt"`
}

func (s *Store) loadManifest() ([]TrashEntry, error) {
	var entries []TrashEntry
	err := s.records.Load(trashManifestKey, &entries)
	if errors.Is(err, persist.ErrNoRecord) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// MoveToTrash relocates relPath into a trash directory mirroring its parent
// subpath and prepends a manifest record. Deleting something already under
// the trash subtree fails with ErrAlreadyTrashed.
func (s *Store) MoveToTrash(relPath string) (TrashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, err := fsutil.CleanRelPath(relPath)
	if err != nil {
		return TrashEntry{}, err
	}
	if rel == "" {
		return TrashEntry{}, fmt.Errorf("%w: empty path", fsutil.ErrInvalidPath)
	}
	if rel == trashFolderName || strings.HasPrefix(rel, trashFolderName+"/") {
		return TrashEntry{}, ErrAlreadyTrashed
	}

	srcAbs := filepath.Join(s.rootAbs, filepath.FromSlash(rel))
	if _, err := os.Stat(srcAbs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TrashEntry{}, ErrNotFound
		}
		return TrashEntry{}, err
	}

	manifest, err := s.loadManifest()
	if err != nil {
		return TrashEntry{}, err
	}

	parentRel := path.Dir(rel)
	destDirAbs := s.trashAbs
	if parentRel != "." {
		destDirAbs = filepath.Join(s.trashAbs, filepath.FromSlash(parentRel))
	}
	if err := os.MkdirAll(destDirAbs, 0o755); err != nil {
		return TrashEntry{}, err
	}
	name, err := uniqueFilename(path.Base(rel), destDirAbs)
	if err != nil {
		return TrashEntry{}, err
	}
	if err := os.Rename(srcAbs, filepath.Join(destDirAbs, name)); err != nil {
		return TrashEntry{}, err
	}

	trashedRel := name
	if parentRel != "." {
		trashedRel = path.Join(parentRel, name)
	}
	entry := TrashEntry{
		ID:           s.newTrashID(),
		Filename:     path.Base(rel),
		OriginalPath: rel,
		TrashedPath:  trashedRel,
		TrashedAt:    s.now(),
	}
	manifest = append([]TrashEntry{entry}, manifest...)
	if err := s.records.Save(trashManifestKey, manifest); err != nil {
		return TrashEntry{}, err
	}

	// Best-effort tidying; the delete itself already succeeded.
	if _, err := s.rebalanceLocked(); err != nil {
		slog.Warn("rebalance after trash failed", "error", err)
	}
	return entry, nil
}

// Restore moves the trashed file back to its original location, allocating
// an alternate name when the destination is taken, and drops the manifest
// record. Returns the restored relative path.
func (s *Store) Restore(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.loadManifest()
	if err != nil {
		return "", err
	}
	index := -1
	for i := range manifest {
		if manifest[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return "", ErrNotFound
	}
	entry := manifest[index]

	srcAbs := filepath.Join(s.trashAbs, filepath.FromSlash(entry.TrashedPath))
	if _, err := os.Stat(srcAbs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}

	parentRel := path.Dir(entry.OriginalPath)
	destDirAbs := s.rootAbs
	if parentRel != "." {
		// The batch folder may have been pruned since the delete.
		destDirAbs = filepath.Join(s.rootAbs, filepath.FromSlash(parentRel))
	}
	if err := os.MkdirAll(destDirAbs, 0o755); err != nil {
		return "", err
	}
	name, err := uniqueFilename(path.Base(entry.OriginalPath), destDirAbs)
	if err != nil {
		return "", err
	}
	if err := os.Rename(srcAbs, filepath.Join(destDirAbs, name)); err != nil {
		return "", err
	}

	manifest = append(manifest[:index], manifest[index+1:]...)
	if err := s.records.Save(trashManifestKey, manifest); err != nil {
		return "", err
	}

	restoredRel := name
	if parentRel != "." {
		restoredRel = path.Join(parentRel, name)
	}
	if _, err := s.rebalanceLocked(); err != nil {
		slog.Warn("rebalance after restore failed", "error", err)
	}
	return restoredRel, nil
}

// Trash lists manifest entries whose trashed file is still present on disk.
// Stale entries are dropped from the result without mutating the manifest.
func (s *Store) Trash() ([]TrashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.loadManifest()
	if err != nil {
		return nil, err
	}
	entries := make([]TrashEntry, 0, len(manifest))
	for _, entry := range manifest {
		if _, err := os.Stat(filepath.Join(s.trashAbs, filepath.FromSlash(entry.TrashedPath))); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// TrashedURLPath returns the path of a trashed file relative to the upload
// root, usable for serving previews through the uploads route.
func (s *Store) TrashedURLPath(entry TrashEntry) string {
	return path.Join(trashFolderName, entry.TrashedPath)
}

func (s *Store) newTrashID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), hex.EncodeToString(suffix))
}
