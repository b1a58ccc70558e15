// Package gallery manages the physical upload tree: collision-free filename
// allocation, capacity-bounded batch folders, the trash manifest, and the
// ordered image index the display layout consumes.
package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/jajady/love-from-fans/internal/fsutil"
	"github.com/jajady/love-from-fans/internal/persist"
)

var (
	// ErrNotFound marks a missing file or manifest entry.
	ErrNotFound = errors.New("gallery: not found")
	// ErrAlreadyTrashed marks delete attempts against the trash subtree.
	ErrAlreadyTrashed = errors.New("gallery: already in trash")
	// ErrValidation marks rejected caller-supplied values.
	ErrValidation = errors.New("gallery: invalid value")
)

// Image is one stored PNG under the upload root. ModifiedAt is the sole
// ordering key; the system has no explicit sequence counter.
type Image struct {
	RelPath    string    `json:"path"`
	Filename   string    `json:"filename"`
	ModifiedAt time.Time `json:"-"`
}

// Store owns the upload directory tree. One mutex serializes every mutating
// span; interleaved renames from concurrent requests are the principal
// hazard in this single-process design. Reads re-derive state from the
// filesystem on every call, nothing is cached across requests.
type Store struct {
	rootAbs   string
	trashAbs  string
	batchSize int
	records   persist.RecordStore

	mu  sync.Mutex
	now func() time.Time
}

func NewStore(root string, batchSize int, records persist.RecordStore) (*Store, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrValidation, batchSize)
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	trashAbs := filepath.Join(rootAbs, trashFolderName)
	if err := os.MkdirAll(trashAbs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root %s: %w", rootAbs, err)
	}
	return &Store{
		rootAbs:   rootAbs,
		trashAbs:  trashAbs,
		batchSize: batchSize,
		records:   records,
		now:       time.Now,
	}, nil
}

// Root returns the absolute upload root directory.
func (s *Store) Root() string {
	return s.rootAbs
}

// BatchSize returns the configured per-folder image capacity.
func (s *Store) BatchSize() int {
	return s.batchSize
}

// Add stores PNG bytes as a freshly uploaded image, placing it into the
// allocator-chosen batch folder under a collision-free time-derived name.
func (s *Store) Add(data []byte) (Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	relDir, err := s.uploadTargetDir()
	if err != nil {
		return Image{}, err
	}
	dirAbs := filepath.Join(s.rootAbs, relDir)
	name, err := uniqueFilename(uploadFilename(s.now()), dirAbs)
	if err != nil {
		return Image{}, err
	}
	abs := filepath.Join(dirAbs, name)
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return Image{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Image{}, err
	}
	return Image{
		RelPath:    path.Join(relDir, name),
		Filename:   name,
		ModifiedAt: info.ModTime(),
	}, nil
}

// Resolve maps a user-supplied relative path to an absolute path under the
// upload root, rejecting traversal and verifying the file exists.
func (s *Store) Resolve(rel string) (string, error) {
	abs, err := fsutil.JoinWithinRoot(s.rootAbs, rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return abs, nil
}
