package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr          string
		AllowedOrigin string
	}
	Database struct {
		Driver    string
		Path      string
		MongoURI  string
		MongoName string
	}
	Auth struct {
		JWTSecret    string
		SessionTTL   time.Duration
		CookieName   string
		CookieSecure bool
		BcryptCost   int
		PurgeEvery   time.Duration
	}
	Avatar struct {
		BaseURL string
	}
	Storage struct {
		Bucket       string
		KeyPrefix    string
		Region       string
		Endpoint     string
		ExportURLTTL time.Duration
	}
	AWS struct {
		Profile string
	}
	Events struct {
		AMQPURL  string
		Exchange string
		Queue    string
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
// A .env file in the working directory is applied first without overriding
// variables that are already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXPENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:4000")
	v.SetDefault("server.allowedorigin", "http://localhost:3000")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/expense.db")
	v.SetDefault("database.mongouri", "")
	v.SetDefault("database.mongoname", "expense_tracker")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.sessionttl", 7*24*time.Hour)
	v.SetDefault("auth.cookiename", "expense_session")
	v.SetDefault("auth.cookiesecure", false)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.purgeevery", time.Hour)
	v.SetDefault("avatar.baseurl", "https://avatar.iran.liara.run/public")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.exporturlttl", 15*time.Minute)
	v.SetDefault("aws.profile", "")
	v.SetDefault("events.amqpurl", "")
	v.SetDefault("events.exchange", "expense.events")
	v.SetDefault("events.queue", "expense.transactions")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			errs = append(errs, errors.New("database path is required for sqlite"))
		}
	case DriverMongo:
		if strings.TrimSpace(c.Database.MongoURI) == "" {
			errs = append(errs, errors.New("database mongouri is required for mongo"))
		}
		if strings.TrimSpace(c.Database.MongoName) == "" {
			errs = append(errs, errors.New("database mongoname is required for mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth jwtsecret is required"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth sessionttl must be positive"))
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		errs = append(errs, errors.New("auth cookiename is required"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("auth bcryptcost %d out of range 4..31", c.Auth.BcryptCost))
	}
	if c.Auth.PurgeEvery <= 0 {
		errs = append(errs, errors.New("auth purgeevery must be positive"))
	}
	if c.Storage.Bucket != "" && c.Storage.ExportURLTTL <= 0 {
		errs = append(errs, errors.New("storage exporturlttl must be positive"))
	}
	if c.Events.AMQPURL != "" && (c.Events.Exchange == "" || c.Events.Queue == "") {
		errs = append(errs, errors.New("events exchange and queue are required when amqpurl is set"))
	}

	return errors.Join(errs...)
}
