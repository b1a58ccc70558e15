package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jajady/love-from-fans/internal/gallery"
	"github.com/jajady/love-from-fans/internal/layout"
	"github.com/jajady/love-from-fans/internal/persist"
	"github.com/jajady/love-from-fans/internal/session"
)

// CoreService wires the gallery store, layout engine, record persistence and
// session store together for the HTTP services.
type CoreService struct {
	config   *ServiceConfig
	records  persist.RecordStore
	Gallery  *gallery.Store
	Engine   *layout.Engine
	Sessions session.Store
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	records, err := persist.NewRecordStore(config.Records.Type, config.Records.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	slog.Info("record store initialized", "type", config.Records.Type, "location", config.Records.Location)

	store, err := gallery.NewStore(config.UploadDir, config.BatchSize, records)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gallery store: %w", err)
	}

	// The display cannot render without slot configuration; fail fast instead
	// of serving a broken overlay.
	if _, err := layout.LoadSlots(config.SlotsPath, config.MinSlots); err != nil {
		return nil, err
	}

	sessions, err := newSessionStore(config)
	if err != nil {
		return nil, err
	}

	return &CoreService{
		config:   config,
		records:  records,
		Gallery:  store,
		Engine:   layout.NewEngine(config.Grid),
		Sessions: sessions,
	}, nil
}

// Slots re-reads the slot configuration so edits are picked up without a
// restart.
func (service *CoreService) Slots() ([]layout.Slot, error) {
	return layout.LoadSlots(service.config.SlotsPath, service.config.MinSlots)
}

func (service *CoreService) Close() error {
	return errors.Join(service.Sessions.Close(), service.records.Close())
}

func newSessionStore(config *ServiceConfig) (session.Store, error) {
	ttl := time.Duration(config.Sessions.TTLHours) * time.Hour
	switch config.Sessions.Type {
	case "memory":
		return session.NewMemoryStore(ttl), nil
	case "redis":
		return session.NewRedisStore(config.Sessions.RedisAddr, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", config.Sessions.Type)
	}
}
