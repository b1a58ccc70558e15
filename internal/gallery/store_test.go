package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jajady/love-from-fans/internal/fsutil"
	"github.com/jajady/love-from-fans/internal/persist"
)

func newTestStore(t *testing.T, batchSize int) *Store {
	t.Helper()

	records, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	store, err := NewStore(t.TempDir(), batchSize, records)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return store
}

// addImageAt uploads one image and pins its modification time so ordering
// tests are independent of filesystem timestamp granularity.
func addImageAt(t *testing.T, store *Store, mtime time.Time) Image {
	t.Helper()

	store.now = func() time.Time { return mtime }
	image, err := store.Add([]byte(fmt.Sprintf("png-data-%d", mtime.UnixNano())))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	abs := filepath.Join(store.Root(), filepath.FromSlash(image.RelPath))
	if err := os.Chtimes(abs, mtime, mtime); err != nil {
		t.Fatalf("Chtimes error: %v", err)
	}
	image.ModifiedAt = mtime
	return image
}

func baseTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestImages_OrderedByModTime(t *testing.T) {
	store := newTestStore(t, 24)
	start := baseTime(t)

	const count = 5
	for i := 0; i < count; i++ {
		addImageAt(t, store, start.Add(time.Duration(i)*time.Second))
	}

	images, err := store.Images()
	if err != nil {
		t.Fatalf("Images error: %v", err)
	}
	if len(images) != count {
		t.Fatalf("expected %d images, got %d", count, len(images))
	}
	for i := 1; i < len(images); i++ {
		if images[i].ModifiedAt.Before(images[i-1].ModifiedAt) {
			t.Errorf("images out of order at index %d: %v before %v",
				i, images[i].ModifiedAt, images[i-1].ModifiedAt)
		}
	}
}

func TestAdd_FillsBatchFoldersToCapacity(t *testing.T) {
	store := newTestStore(t, 2)
	start := baseTime(t)

	for i := 0; i < 5; i++ {
		addImageAt(t, store, start.Add(time.Duration(i)*time.Second))
	}

	folders, err := store.Folders()
	if err != nil {
		t.Fatalf("Folders error: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("expected 3 batch folders, got %d", len(folders))
	}
	wantCounts := []int{2, 2, 1}
	for i, folder := range folders {
		wantName := fmt.Sprintf("batch-%04d", i+1)
		if folder.Folder != wantName {
			t.Errorf("folder[%d] = %q, want %q", i, folder.Folder, wantName)
		}
		if folder.Count != wantCounts[i] {
			t.Errorf("folder %q count = %d, want %d", folder.Folder, folder.Count, wantCounts[i])
		}
	}
}

func TestBatches_WindowsOrderedImages(t *testing.T) {
	store := newTestStore(t, 2)
	start := baseTime(t)

	var uploaded []Image
	for i := 0; i < 5; i++ {
		uploaded = append(uploaded, addImageAt(t, store, start.Add(time.Duration(i)*time.Second)))
	}

	batches, err := store.Batches()
	if err != nil {
		t.Fatalf("Batches error: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0].Items) != 2 || len(batches[2].Items) != 1 {
		t.Fatalf("unexpected batch sizes: %d, %d, %d",
			len(batches[0].Items), len(batches[1].Items), len(batches[2].Items))
	}
	if batches[0].Items[0].Filename != uploaded[0].Filename {
		t.Errorf("first batch does not start with oldest upload: got %q, want %q",
			batches[0].Items[0].Filename, uploaded[0].Filename)
	}
}

func TestResolve(t *testing.T) {
	store := newTestStore(t, 24)
	image := addImageAt(t, store, baseTime(t))

	abs, err := store.Resolve(image.RelPath)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Errorf("resolved path not stattable: %v", err)
	}

	if _, err := store.Resolve("../../etc/passwd"); !errors.Is(err, fsutil.ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for traversal, got %v", err)
	}
	if _, err := store.Resolve("batch-0001/nope.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing file, got %v", err)
	}
}
