package persist

import (
	"errors"
	"testing"
)

type testRecord struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func newTestStores(t *testing.T) map[string]RecordStore {
	t.Helper()

	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	sqliteStore, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	stores := map[string]RecordStore{
		"json":   fileStore,
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestRecordStore_RoundTrip(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			saved := testRecord{Index: 3, Name: "selection"}
			if err := store.Save("selection", saved); err != nil {
				t.Fatalf("Save error: %v", err)
			}

			var loaded testRecord
			if err := store.Load("selection", &loaded); err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if loaded != saved {
				t.Errorf("expected %+v, got %+v", saved, loaded)
			}
		})
	}
}

func TestRecordStore_Overwrite(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save("selection", testRecord{Index: 1}); err != nil {
				t.Fatalf("first Save error: %v", err)
			}
			if err := store.Save("selection", testRecord{Index: 2}); err != nil {
				t.Fatalf("second Save error: %v", err)
			}

			var loaded testRecord
			if err := store.Load("selection", &loaded); err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if loaded.Index != 2 {
				t.Errorf("expected index 2 after overwrite, got %d", loaded.Index)
			}
		})
	}
}

func TestRecordStore_NoRecord(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			var loaded testRecord
			if err := store.Load("never-saved", &loaded); !errors.Is(err, ErrNoRecord) {
				t.Errorf("expected ErrNoRecord, got %v", err)
			}
		})
	}
}

func TestNewRecordStore_UnsupportedType(t *testing.T) {
	if _, err := NewRecordStore("postgres", ""); err == nil {
		t.Fatal("expected error for unsupported record store type")
	}
}
