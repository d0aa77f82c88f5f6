// Package config loads handsheet settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "HANDSHEET_"

// Config is the runtime configuration.
type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	DataDir   string `env:"DATA_DIR"`
	StaticDir string `env:"STATIC_DIR"`

	Rows int `env:"ROWS" envDefault:"100"`
	Cols int `env:"COLS" envDefault:"26"`

	ViewportWidth  float64 `env:"VIEWPORT_WIDTH" envDefault:"1280"`
	ViewportHeight float64 `env:"VIEWPORT_HEIGHT" envDefault:"720"`

	StrictArbiter     bool          `env:"STRICT_ARBITER" envDefault:"true"`
	LegacyDelete      bool          `env:"LEGACY_DELETE" envDefault:"false"`
	HorizontalScroll  bool          `env:"HORIZONTAL_SCROLL" envDefault:"false"`
	PasteRequireStill bool          `env:"PASTE_REQUIRE_STILL" envDefault:"true"`
	Freshness         time.Duration `env:"FRESHNESS" envDefault:"1800ms"`

	Camera   bool `env:"CAMERA" envDefault:"false"`
	CameraID int  `env:"CAMERA_ID" envDefault:"0"`
	Tray     bool `env:"TRAY" envDefault:"false"`

	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// ParseEnv fills target from HANDSHEET_-prefixed variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file, then the environment.
func Load(dotenv string) (Config, error) {
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] could not load %s: %v", dotenv, err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".handsheet")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the grid or viewport cannot use.
func (c Config) Validate() error {
	switch {
	case c.Rows <= 0 || c.Cols <= 0:
		return fmt.Errorf("grid size must be positive, got %dx%d", c.Rows, c.Cols)
	case c.ViewportWidth <= 0 || c.ViewportHeight <= 0:
		return fmt.Errorf("viewport must be positive, got %gx%g", c.ViewportWidth, c.ViewportHeight)
	case c.Freshness <= 0:
		return fmt.Errorf("freshness must be positive, got %v", c.Freshness)
	}
	return nil
}

// DBPath is the sqlite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "handsheet.db")
}
