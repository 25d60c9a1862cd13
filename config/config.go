package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8000"`
	DBPath    string `env:"DB_PATH" envDefault:"data/rental.db"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"upload"`
	StaticDir string `env:"STATIC_DIR" envDefault:"static"`

	// Source cache configuration
	Cache struct {
		Dir string        `env:"CACHE_DIR" envDefault:""`
		TTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	}

	// Reconciliation configuration
	Reconcile struct {
		// Number of prior weeks consulted when classifying lifecycle state
		LookbackWeeks int `env:"LOOKBACK_WEEKS" envDefault:"10"`
	}

	// Query defaults applied when the request layer omits parameters
	Query struct {
		DefaultLatitude    float64 `env:"DEFAULT_LAT" envDefault:"25.0288"`
		DefaultLongitude   float64 `env:"DEFAULT_LNG" envDefault:"121.4625"`
		DefaultDistanceMin float64 `env:"DEFAULT_DISTANCE_MIN" envDefault:"300"`
		DefaultDistanceMax float64 `env:"DEFAULT_DISTANCE_MAX" envDefault:"3000"`
	}

	// Remote source connector (Google Drive); disabled when FolderID is empty
	Drive struct {
		CredentialsFile string `env:"DRIVE_CREDENTIALS_FILE" envDefault:""`
		FolderID        string `env:"DRIVE_FOLDER_ID" envDefault:""`
	}

	Admin struct {
		Password string `env:"ADMIN_PASSWORD" envDefault:"1234"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
