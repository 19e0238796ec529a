package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Environment is the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) IsProduction() bool { return e == Production }

// ParseEnvironment falls back to Development for unknown values.
func ParseEnvironment(v string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(v))) {
	case Production:
		return Production
	case Staging:
		return Staging
	case Testing:
		return Testing
	default:
		return Development
	}
}

// Redis is optional; an empty URL keeps forget-password tokens in process.
type Redis struct {
	URL          string `envconfig:"REDIS_URL"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
}

// AMQP is optional; an empty URL disables order event publishing.
type AMQP struct {
	URL             string `envconfig:"AMQP_URL"`
	Queue           string `envconfig:"AMQP_QUEUE" default:"order_events"`
	ChannelPoolSize int    `envconfig:"AMQP_CHANNEL_POOL_SIZE" default:"4"`
	WorkerCount     int    `envconfig:"WORKER_COUNT" default:"2"`
}

// FTP push is enabled only when Addr is set.
type FTP struct {
	Addr string `envconfig:"FTP_ADDR"`
	User string `envconfig:"FTP_USER"`
	Pass string `envconfig:"FTP_PASS"`
	Dir  string `envconfig:"FTP_DIR" default:"img"`
}

// App is the whole service configuration read from the environment.
type App struct {
	Env            string `envconfig:"APP_ENV" default:"development"`
	Port           string `envconfig:"APP_PORT" default:"8080"`
	StoreDriver    string `envconfig:"STORE_DRIVER" default:"postgres"`
	DSN            string `envconfig:"DB_DSN"`
	SessionSecret  string `envconfig:"SESSION_SECRET" default:"dev_fallback_secret"`
	SessionName    string `envconfig:"SESSION_NAME" default:"mall_session"`
	ForgetTokenTTL string `envconfig:"FORGET_TOKEN_TTL" default:"12h"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	ImageHost      string `envconfig:"IMAGE_HOST" default:"http://img.storefront.local/"`

	Redis Redis
	AMQP  AMQP
	FTP   FTP

	tokenTTL time.Duration
}

// Load reads .env from the working directory and its parents, then the process env.
func Load() (*App, error) {
	_ = godotenv.Overload(".env", "../.env", "../../.env")

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (a *App) validate() error {
	ttl, err := time.ParseDuration(a.ForgetTokenTTL)
	if err != nil {
		return fmt.Errorf("invalid FORGET_TOKEN_TTL %q: %w", a.ForgetTokenTTL, err)
	}
	if ttl <= 0 {
		return fmt.Errorf("FORGET_TOKEN_TTL must be > 0")
	}
	a.tokenTTL = ttl

	switch a.StoreDriver {
	case "postgres":
		if a.DSN == "" {
			return fmt.Errorf("DB_DSN is empty (check your .env)")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", a.StoreDriver)
	}
	if a.AMQP.ChannelPoolSize <= 0 {
		return fmt.Errorf("AMQP_CHANNEL_POOL_SIZE must be > 0")
	}
	if !strings.HasSuffix(a.ImageHost, "/") {
		a.ImageHost += "/"
	}
	return nil
}

func (a *App) Environment() Environment { return ParseEnvironment(a.Env) }

func (a *App) TokenTTL() time.Duration { return a.tokenTTL }
