package persist

import (
	"errors"
	"fmt"
)

// RecordStore persists small typed records (trash manifest, batch selection)
// by key. Values are JSON-encodable; callers own the record schema.
type RecordStore interface {
	// Load reads the record stored under key into v. Returns ErrNoRecord when
	// no record exists for the key.
	Load(key string, v any) error
	// Save writes v under key, replacing any previous record.
	Save(key string, v any) error
	Close() error
}

// ErrNoRecord is returned by Load when a key has never been saved.
var ErrNoRecord = errors.New("persist: no record")

// NewRecordStore builds a record store for the configured backend type.
func NewRecordStore(storeType, location string) (RecordStore, error) {
	switch storeType {
	case "json", "":
		return NewFileStore(location)
	case "sqlite":
		return NewSQLiteStore(location)
	default:
		return nil, fmt.Errorf("unsupported record store type: %s", storeType)
	}
}
