package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

// Document store drivers.
const (
	DocStoreMongo    = "mongo"
	DocStorePostgres = "postgres"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Telegram session
	TGAPIID          int           `env:"TG_API_ID,required"`
	TGAPIHash        string        `env:"TG_API_HASH,required"`
	TGPhone          string        `env:"TG_PHONE"`
	TG2FAPassword    string        `env:"TG_2FA_PASSWORD"`
	TGSessionPath    string        `env:"TG_SESSION_PATH" envDefault:"./tg.session"`
	TGRateLimitRPS   float64       `env:"TG_RATE_LIMIT_RPS" envDefault:"2"`
	TGHistoryPage    int           `env:"TG_HISTORY_PAGE_SIZE" envDefault:"100"`
	TGFloodWaitLimit time.Duration `env:"TG_FLOOD_WAIT_LIMIT" envDefault:"5m"`
	MessageURLBase   string        `env:"MESSAGE_URL_BASE" envDefault:"https://t.me"`
	MaxMediaBytes    int64         `env:"MAX_MEDIA_BYTES" envDefault:"52428800"`

	// Document store
	DocStoreDriver string `env:"DOCSTORE_DRIVER" envDefault:"mongo"`
	MongoURI       string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase  string `env:"MONGO_DATABASE" envDefault:"telegrasper"`
	PostgresDSN    string `env:"POSTGRES_DSN"`

	// Graph store
	Neo4jURI      string `env:"NEO4J_URI,required"`
	Neo4jUser     string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string `env:"NEO4J_PASSWORD"`
	Neo4jDatabase string `env:"NEO4J_DATABASE"`

	// Object store
	GCSBucket          string `env:"GCS_BUCKET_NAME,required"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`

	// Classifier
	LLMAPIKey       string  `env:"LLM_API_KEY"`
	LLMModel        string  `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL      string  `env:"LLM_BASE_URL"`
	LLMRateLimitRPS float64 `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`

	// Events
	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"telegrasper"`

	// HTTP API and health
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Periodic re-scrape of tracked channels, cron syntax. Empty disables it.
	RescrapeSchedule string        `env:"RESCRAPE_SCHEDULE"`
	RescrapeTimeout  time.Duration `env:"RESCRAPE_TIMEOUT" envDefault:"2h"`
	RescrapePause    time.Duration `env:"RESCRAPE_PAUSE" envDefault:"5s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.DocStoreDriver {
	case DocStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required for the mongo driver", coreerrors.ErrInvalidConfig)
		}
	case DocStorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for the postgres driver", coreerrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown DOCSTORE_DRIVER %q", coreerrors.ErrInvalidConfig, c.DocStoreDriver)
	}

	if c.TGRateLimitRPS <= 0 {
		return fmt.Errorf("%w: TG_RATE_LIMIT_RPS must be positive", coreerrors.ErrInvalidConfig)
	}

	if c.TGHistoryPage <= 0 || c.TGHistoryPage > maxHistoryPage {
		return fmt.Errorf("%w: TG_HISTORY_PAGE_SIZE must be in 1..%d", coreerrors.ErrInvalidConfig, maxHistoryPage)
	}

	return nil
}

// maxHistoryPage is the server-side cap of messages.getHistory.
const maxHistoryPage = 100

// applyLegacyAliases honours the variable names used by earlier deployments.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("MONGO_URI") {
		setStringFromEnv("MONGO_CONNECTION_STRING", &cfg.MongoURI)
	}

	if !hasEnv("MONGO_DATABASE") {
		setStringFromEnv("MONGO_DB_NAME", &cfg.MongoDatabase)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
