package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeRootImage drops a PNG directly into the upload root, simulating a
// file added outside the upload API.
func writeRootImage(t *testing.T, store *Store, name string, mtime time.Time) {
	t.Helper()

	abs := filepath.Join(store.Root(), name)
	if err := os.WriteFile(abs, []byte(name), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	if err := os.Chtimes(abs, mtime, mtime); err != nil {
		t.Fatalf("Chtimes error: %v", err)
	}
}

func TestRebalance_PacksFlatFilesIntoFolders(t *testing.T) {
	store := newTestStore(t, 2)
	start := baseTime(t)

	for i := 0; i < 5; i++ {
		writeRootImage(t, store, fmt.Sprintf("img-%d.png", i), start.Add(time.Duration(i)*time.Second))
	}

	moved, err := store.Rebalance()
	if err != nil {
		t.Fatalf("Rebalance error: %v", err)
	}
	if moved != 5 {
		t.Errorf("expected 5 moves, got %d", moved)
	}

	folders, err := store.Folders()
	if err != nil {
		t.Fatalf("Folders error: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("expected 3 folders, got %d", len(folders))
	}
	wantCounts := []int{2, 2, 1}
	for i, folder := range folders {
		if folder.Count != wantCounts[i] {
			t.Errorf("folder %q count = %d, want %d", folder.Folder, folder.Count, wantCounts[i])
		}
	}

	// Oldest file lands in the first folder.
	images, err := store.Images()
	if err != nil {
		t.Fatalf("Images error: %v", err)
	}
	if images[0].RelPath != "batch-0001/img-0.png" {
		t.Errorf("expected oldest image at batch-0001/img-0.png, got %q", images[0].RelPath)
	}
}

func TestRebalance_Idempotent(t *testing.T) {
	store := newTestStore(t, 2)
	start := baseTime(t)

	for i := 0; i < 5; i++ {
		addImageAt(t, store, start.Add(time.Duration(i)*time.Second))
	}

	if _, err := store.Rebalance(); err != nil {
		t.Fatalf("first Rebalance error: %v", err)
	}
	moved, err := store.Rebalance()
	if err != nil {
		t.Fatalf("second Rebalance error: %v", err)
	}
	if moved != 0 {
		t.Errorf("expected second rebalance to move nothing, moved %d", moved)
	}
}

func TestRebalance_CompactsAfterDeletion(t *testing.T) {
	store := newTestStore(t, 2)
	start := baseTime(t)

	var uploaded []Image
	for i := 0; i < 4; i++ {
		uploaded = append(uploaded, addImageAt(t, store, start.Add(time.Duration(i)*time.Second)))
	}

	// Deleting the oldest image shifts everything one slot left; the trash
	// operation runs the rebalance itself.
	if _, err := store.MoveToTrash(uploaded[0].RelPath); err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}

	folders, err := store.Folders()
	if err != nil {
		t.Fatalf("Folders error: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders after compaction, got %d", len(folders))
	}
	if folders[0].Count != 2 || folders[1].Count != 1 {
		t.Errorf("expected counts 2,1 after compaction, got %d,%d", folders[0].Count, folders[1].Count)
	}
}

func TestRebalance_PrunesEmptyFolders(t *testing.T) {
	store := newTestStore(t, 2)

	// An empty batch folder left behind by manual tinkering.
	if err := os.MkdirAll(filepath.Join(store.Root(), "batch-0007"), 0o755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}

	if _, err := store.Rebalance(); err != nil {
		t.Fatalf("Rebalance error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "batch-0007")); !os.IsNotExist(err) {
		t.Error("expected empty batch folder to be pruned")
	}
}
