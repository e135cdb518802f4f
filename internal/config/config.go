// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env          string // application environment (dev, prod)
	Port         string // HTTP port to listen on
	DBUser       string
	DBPass       string // may be empty
	DBHost       string
	DBPort       string
	DBName       string
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token lifetime in minutes
	BcryptCost   int

	Mail     MailConfig
	Storage  StorageConfig
	Tenancy  TenancyConfig
	Dispatch DispatchConfig
	AMQPURL  string // empty disables the dispatch event queue
}

// MailConfig configures the outgoing SMTP relay.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	DefaultFrom string // used when a template has no sender
}

// StorageConfig selects where uploads go.  Driver is "local" or "s3".
type StorageConfig struct {
	Driver      string
	MediaRoot   string
	MediaURL    string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3Key       string
	S3Secret    string
	S3PathStyle bool
}

// TenancyConfig controls tenant resolution.
type TenancyConfig struct {
	AdminPathPrefix string
	CacheTTL        time.Duration // 0 disables the Redis directory cache
}

type DispatchConfig struct {
	Concurrency int
}

// LoadEnv reads .env into the process environment when present.  Variables
// already set win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env")
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// stop the process with a fatal log entry.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 12),
		Mail: MailConfig{
			Host:        envStr("SMTP_HOST", "localhost"),
			Port:        envInt("SMTP_PORT", 25),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			DefaultFrom: envStr("MAIL_DEFAULT_FROM", "no-reply@localhost"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(envStr("STORAGE_DRIVER", "local")),
			MediaRoot:   envStr("MEDIA_ROOT", "media"),
			MediaURL:    envStr("MEDIA_URL", "/media/"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3Region:    envStr("S3_REGION", "us-east-1"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Key:       os.Getenv("S3_ACCESS_KEY"),
			S3Secret:    os.Getenv("S3_SECRET_KEY"),
			S3PathStyle: envBool("S3_PATH_STYLE", true),
		},
		Tenancy: TenancyConfig{
			AdminPathPrefix: envStr("ADMIN_PATH_PREFIX", "/admin"),
			CacheTTL:        envDur("TENANT_CACHE_TTL", time.Minute),
		},
		Dispatch: DispatchConfig{
			Concurrency: max(envInt("DISPATCH_CONCURRENCY", 1), 1),
		},
		AMQPURL: os.Getenv("AMQP_URL"),
	}
}

// DSN returns the go-sql-driver/mysql data source name.
func (c Config) DSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth += ":" + c.DBPass
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return auth + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=false"
}

// must retrieves the value of a required environment variable.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch strings.ToLower(v) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
