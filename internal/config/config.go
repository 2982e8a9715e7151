package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Mode selects the persistence backend. It is decided once at process
// start and never changes afterwards.
type Mode string

const (
	ModeFile  Mode = "file"
	ModeTable Mode = "table"
)

// Config keeps runtime settings for the application.
type Config struct {
	StorageMode Mode
	DataFile    string
	DatabaseURL string
	Owner       string
}

// Load reads configuration from environment variables with sane
// defaults. A .env file in the working directory is honored when
// present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		StorageMode: Mode(strings.TrimSpace(os.Getenv("GTD_STORAGE"))),
		DataFile:    strings.TrimSpace(os.Getenv("GTD_DATA_FILE")),
		DatabaseURL: strings.TrimSpace(os.Getenv("GTD_DATABASE_URL")),
		Owner:       strings.TrimSpace(os.Getenv("GTD_OWNER")),
	}

	if cfg.StorageMode == "" {
		cfg.StorageMode = ModeFile
	}
	if cfg.DataFile == "" {
		cfg.DataFile = "data/gtd.json"
	}
	if cfg.Owner == "" {
		cfg.Owner = "default"
	}

	switch cfg.StorageMode {
	case ModeFile, ModeTable:
	default:
		return cfg, fmt.Errorf("GTD_STORAGE must be %q or %q, got %q", ModeFile, ModeTable, cfg.StorageMode)
	}

	if cfg.StorageMode == ModeTable && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "data/gtd.db"
	}

	return cfg, nil
}
