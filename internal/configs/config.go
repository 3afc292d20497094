package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// StorageConfig selects and configures the relational store
type StorageConfig struct {
	// Driver - postgres or sqlite
	Driver      string `env:"DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"file:analytics.db?_foreign_keys=on"`
	// QueryTimeout bounds every storage call made by a request
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"5s"`

	BreakerMaxRequests  uint32        `env:"BREAKER_MAX_REQUESTS" envDefault:"3"`
	BreakerInterval     time.Duration `env:"BREAKER_INTERVAL" envDefault:"60s"`
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6"`
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	Enabled        bool          `env:"ENABLED" envDefault:"true"`
	URL            string        `env:"URL"`
	BatchSize      int           `env:"BATCH_SIZE" envDefault:"100"`
	BatchTimeout   time.Duration `env:"BATCH_TIMEOUT" envDefault:"5s"`
	PrefetchCount  int           `env:"PREFETCH_COUNT" envDefault:"200"`
	PublishDeals   bool          `env:"PUBLISH_DEALS" envDefault:"true"`
	RetryTTLMillis int           `env:"RETRY_TTL_MS" envDefault:"10000"`
}

type RESTConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"120"`
	RateWindow     time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	CacheMaxItems  int           `env:"CACHE_MAX_ITEMS" envDefault:"1000"`
}

// LimitsConfig - pagination bounds per endpoint
type LimitsConfig struct {
	SearchDefault    int `env:"SEARCH_DEFAULT" envDefault:"50"`
	SearchMax        int `env:"SEARCH_MAX" envDefault:"100"`
	AnomaliesDefault int `env:"ANOMALIES_DEFAULT" envDefault:"20"`
	AnomaliesMax     int `env:"ANOMALIES_MAX" envDefault:"100"`
	ExportMax        int `env:"EXPORT_MAX" envDefault:"1000"`
	Comparables      int `env:"COMPARABLES" envDefault:"10"`
}

// AnalyticsConfig - thresholds, sample minimums and score tuning
type AnalyticsConfig struct {
	AbsoluteRatioThreshold  float64 `env:"ABSOLUTE_RATIO_THRESHOLD" envDefault:"6.0"`
	RelativeMarketThreshold float64 `env:"RELATIVE_MARKET_THRESHOLD" envDefault:"10"`
	MinPeers                int     `env:"MIN_PEERS" envDefault:"5"`
	MinMarketSample         int     `env:"MIN_MARKET_SAMPLE" envDefault:"3"`
	MinRentalComps          int     `env:"MIN_RENTAL_COMPS" envDefault:"3"`

	WeightRatio       float64 `env:"WEIGHT_RATIO" envDefault:"0.4"`
	WeightMarket      float64 `env:"WEIGHT_MARKET" envDefault:"0.3"`
	WeightCapRate     float64 `env:"WEIGHT_CAP_RATE" envDefault:"0.2"`
	WeightSpacePerBed float64 `env:"WEIGHT_SPACE_PER_BED" envDefault:"0.1"`

	RatioTiers       []float64 `env:"RATIO_TIERS" envSeparator:"," envDefault:"1.0,0.8,0.6,0.4"`
	MarketTiers      []float64 `env:"MARKET_TIERS" envSeparator:"," envDefault:"25,15,0,-15"`
	CapRateTiers     []float64 `env:"CAP_RATE_TIERS" envSeparator:"," envDefault:"12,10,8,6"`
	SpacePerBedTiers []float64 `env:"SPACE_PER_BED_TIERS" envSeparator:"," envDefault:"600,450,300,150"`
	NeutralTier      float64   `env:"NEUTRAL_TIER" envDefault:"50"`
}

// JobsConfig - background maintenance schedule
type JobsConfig struct {
	MarketRefreshInterval time.Duration `env:"MARKET_REFRESH_INTERVAL" envDefault:"15m"`
	StaleSweepInterval    time.Duration `env:"STALE_SWEEP_INTERVAL" envDefault:"1h"`
	ListingRetention      time.Duration `env:"LISTING_RETENTION" envDefault:"720h"`
}

type StdoutLogConfig struct {
	Level string `env:"STDOUT_LOG_LEVEL" envDefault:"debug"`
	JSON  bool   `env:"STDOUT_LOG_JSON" envDefault:"false"`
}

type FluentBitConfig struct {
	Enabled bool   `env:"FLUENTBIT_ENABLED" envDefault:"false"`
	Host    string `env:"FLUENTBIT_HOST"`
	Port    int    `env:"FLUENTBIT_PORT" envDefault:"24224"`
	Level   string `env:"FLUENTBIT_LOG_LEVEL" envDefault:"info"`
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string `env:"APP_NAME" envDefault:"analytics-service"`
	Storage      StorageConfig   `envPrefix:"STORAGE_"`
	RabbitMQ     RabbitMQConfig  `envPrefix:"RABBITMQ_"`
	Rest         RESTConfig      `envPrefix:"HTTP_"`
	Limits       LimitsConfig    `envPrefix:"LIMIT_"`
	Analytics    AnalyticsConfig `envPrefix:"ANALYTICS_"`
	Jobs         JobsConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig loads an optional .env file, then parses the environment.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
	}
	if err != nil {
		log.Printf("Info: no .env file (path: %v), using process environment\n", envPath)
	}

	return Parse()
}

// Parse reads AppConfig from the process environment only.
func Parse() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules env tags cannot express.
func (c *AppConfig) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_DATABASE_URL environment variable is required for the postgres driver")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("STORAGE_SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q, expected postgres or sqlite", c.Storage.Driver)
	}

	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
	}

	if c.FluentBit.Enabled && c.FluentBit.Host == "" {
		log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
		c.FluentBit.Enabled = false
	}

	if c.Limits.SearchMax <= 0 || c.Limits.AnomaliesMax <= 0 || c.Limits.ExportMax <= 0 {
		return fmt.Errorf("limit maximums must be positive")
	}
	if c.Limits.SearchDefault <= 0 || c.Limits.SearchDefault > c.Limits.SearchMax {
		return fmt.Errorf("LIMIT_SEARCH_DEFAULT must be within 1..%d", c.Limits.SearchMax)
	}
	if c.Limits.AnomaliesDefault <= 0 || c.Limits.AnomaliesDefault > c.Limits.AnomaliesMax {
		return fmt.Errorf("LIMIT_ANOMALIES_DEFAULT must be within 1..%d", c.Limits.AnomaliesMax)
	}

	for name, tiers := range map[string][]float64{
		"ANALYTICS_RATIO_TIERS":         c.Analytics.RatioTiers,
		"ANALYTICS_MARKET_TIERS":        c.Analytics.MarketTiers,
		"ANALYTICS_CAP_RATE_TIERS":      c.Analytics.CapRateTiers,
		"ANALYTICS_SPACE_PER_BED_TIERS": c.Analytics.SpacePerBedTiers,
	} {
		if len(tiers) != 4 {
			return fmt.Errorf("%s needs exactly 4 cutoffs, got %d", name, len(tiers))
		}
		for i := 1; i < len(tiers); i++ {
			if tiers[i] > tiers[i-1] {
				return fmt.Errorf("%s cutoffs must be descending", name)
			}
		}
	}

	if c.Jobs.MarketRefreshInterval <= 0 || c.Jobs.StaleSweepInterval <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	return nil
}
