package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jajady/love-from-fans/internal/layout"
)

// RecordsConfig selects the backend for small persisted records (trash
// manifest, batch selection).
type RecordsConfig struct {
	Type     string `yaml:"type"`     // "json" (default) or "sqlite"
	Location string `yaml:"location"` // directory for json, file path for sqlite
}

// SessionsConfig selects the login session backend.
type SessionsConfig struct {
	Type      string `yaml:"type"` // "memory" (default) or "redis"
	RedisAddr string `yaml:"redisAddr"`
	TTLHours  int    `yaml:"ttlHours"`
}

type ServiceConfig struct {
	Port           int    `yaml:"port"`
	Password       string `yaml:"password"` // plaintext or bcrypt hash; empty disables login
	PublicDir      string `yaml:"publicDir"`
	UploadDir      string `yaml:"uploadDir"`
	SlotsPath      string `yaml:"slotsPath"`
	BatchSize      int    `yaml:"batchSize"`
	MinSlots       int    `yaml:"minSlots"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`

	Records  RecordsConfig  `yaml:"records"`
	Sessions SessionsConfig `yaml:"sessions"`
	Grid     layout.Grid    `yaml:"grid"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func (config *ServiceConfig) applyDefaults() {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.PublicDir == "" {
		config.PublicDir = "public"
	}
	if config.UploadDir == "" {
		config.UploadDir = "uploads"
	}
	if config.SlotsPath == "" {
		config.SlotsPath = "slots.json"
	}
	if config.BatchSize == 0 {
		config.BatchSize = 24
	}
	if config.MinSlots == 0 {
		config.MinSlots = 24
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 10 << 20
	}
	if config.Records.Type == "" {
		config.Records.Type = "json"
	}
	if config.Records.Location == "" {
		switch config.Records.Type {
		case "sqlite":
			config.Records.Location = "data/records.db"
		default:
			config.Records.Location = "data"
		}
	}
	if config.Sessions.Type == "" {
		config.Sessions.Type = "memory"
	}
	if config.Sessions.TTLHours == 0 {
		config.Sessions.TTLHours = 24
	}
	if config.Grid == (layout.Grid{}) {
		config.Grid = layout.Grid{
			OverlayLeft:  1152,
			OverlayWidth: 3576,
			TopPadding:   100,
			LeftPadding:  100,
			RightPadding: 100,
			Gap:          50,
			Columns:      6,
		}
	}
}

func (config *ServiceConfig) validate() error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port out of range: %d", config.Port)
	}
	if config.BatchSize < 1 {
		return fmt.Errorf("batchSize must be positive, got %d", config.BatchSize)
	}
	if config.MinSlots < 1 {
		return fmt.Errorf("minSlots must be positive, got %d", config.MinSlots)
	}
	if config.MaxUploadBytes < 1 {
		return fmt.Errorf("maxUploadBytes must be positive, got %d", config.MaxUploadBytes)
	}
	if config.Grid.Columns < 1 {
		return fmt.Errorf("grid.columns must be positive, got %d", config.Grid.Columns)
	}
	if config.Grid.OverlayWidth < 1 {
		return fmt.Errorf("grid.overlayWidth must be positive, got %d", config.Grid.OverlayWidth)
	}
	switch config.Records.Type {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unsupported records.type: %s", config.Records.Type)
	}
	switch config.Sessions.Type {
	case "memory":
	case "redis":
		if config.Sessions.RedisAddr == "" {
			return fmt.Errorf("sessions.redisAddr required for redis sessions")
		}
	default:
		return fmt.Errorf("unsupported sessions.type: %s", config.Sessions.Type)
	}
	return nil
}
