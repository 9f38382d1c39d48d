package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	BucketProfiles string
	UseSSL         bool
	Region         string
	PublicBaseURL  string
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
	BcryptCost      int
	MaxSessions     int
	SessionIdleTTL  time.Duration
	ProfileCacheTTL time.Duration
}

// Rate limiter scopes. "instance" keeps a window per client in process
// memory, "global" one window per handler for all clients, "redis" a
// window per client shared by every process.
const (
	RateLimitInstance = "instance"
	RateLimitGlobal   = "global"
	RateLimitRedis    = "redis"
)

// RateLimitConfig controls the admission window in front of the dispatch
// endpoints.
type RateLimitConfig struct {
	Scope  string
	Limit  int
	Window time.Duration
	Prefix string
}

type VerificationConfig struct {
	CodeTTL          time.Duration
	PendingRetention time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	SSL      bool
	Timeout  time.Duration
}

type CrashReportConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
	AppName  string
	Timeout  time.Duration
}

type QueueConfig struct {
	ClaimInterval time.Duration
	PurgeSpec     string
	PruneSpec     string
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Verification     VerificationConfig
	SMTP             SMTPConfig
	CrashReport      CrashReportConfig
	Queue            QueueConfig
	Logging          LoggingConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("OFOX")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.RateLimit.Scope {
	case RateLimitInstance, RateLimitGlobal, RateLimitRedis:
	default:
		return fmt.Errorf("ratelimit.scope: unsupported value %q", c.RateLimit.Scope)
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("ratelimit.limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive")
	}
	if c.Environment == "production" && c.Security.JWTAccessSecret == "" {
		return fmt.Errorf("security.jwtaccesssecret is required in production")
	}
	if c.Security.MaxSessions < 0 {
		return fmt.Errorf("security.maxsessions must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "ofox:tasks")
	v.SetDefault("redis.group", "ofox-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.bucketprofiles", "ofox-profile-images")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "720h") // 30 days
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.maxsessions", 10)
	v.SetDefault("security.sessionidlettl", "2160h") // 90 days
	v.SetDefault("security.profilecachettl", "10m")

	v.SetDefault("ratelimit.scope", RateLimitInstance)
	v.SetDefault("ratelimit.limit", 5)
	v.SetDefault("ratelimit.window", "60s")
	v.SetDefault("ratelimit.prefix", "ofox:ratelimit")

	v.SetDefault("verification.codettl", "1h")
	v.SetDefault("verification.pendingretention", "24h")

	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.ssl", true)
	v.SetDefault("smtp.fromname", "Ofox Messenger")
	v.SetDefault("smtp.timeout", "15s")

	v.SetDefault("crashreport.apibase", "https://api.telegram.org")
	v.SetDefault("crashreport.appname", "Ofox Messenger")
	v.SetDefault("crashreport.timeout", "10s")

	v.SetDefault("queue.claiminterval", "30s")
	v.SetDefault("queue.purgespec", "0 0 * * * *")
	v.SetDefault("queue.prunespec", "0 30 3 * * *")

	v.SetDefault("logging.level", "info")
}
