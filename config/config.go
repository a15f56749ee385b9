package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	BindAddress string `yaml:"bind_address"`
	LogMode     string `yaml:"log_mode"`
	LogLevel    string `yaml:"log_level"`

	DatabaseURL string `yaml:"database_url"`
	DBHost      string `yaml:"db_host"`
	DBPort      string `yaml:"db_port"`
	DBUser      string `yaml:"db_user"`
	DBPassword  string `yaml:"db_password"`
	DBName      string `yaml:"db_name"`
	DBSSLMode   string `yaml:"db_sslmode"`

	RedisHost        string `yaml:"redis_host"`
	RedisPort        string `yaml:"redis_port"`
	RedisPassword    string `yaml:"redis_password"`
	RateLimitEnabled bool   `yaml:"rate_limit_enabled"`

	JWTSecret      string        `yaml:"jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	FrontendURL    string        `yaml:"frontend_url"`

	VerificationTTL time.Duration `yaml:"verification_ttl"`
	ResetTTL        time.Duration `yaml:"reset_ttl"`
	ShareTTL        time.Duration `yaml:"share_ttl"`
	MaxUploadMB     int64         `yaml:"max_upload_mb"`
	PassPercent     int           `yaml:"pass_percent"`

	Mail    MailConfig    `yaml:"mail"`
	AI      AIConfig      `yaml:"ai"`
	Storage StorageConfig `yaml:"storage"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	Secure   bool   `yaml:"secure"`
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Port != 0 && m.From != ""
}

type AIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type StorageConfig struct {
	Mode          string `yaml:"mode"`
	UploadDir     string `yaml:"upload_dir"`
	GCSBucket     string `yaml:"gcs_bucket"`
	GCSPrefix     string `yaml:"gcs_prefix"`
	GCSEndpoint   string `yaml:"gcs_endpoint"`
	MinFreeDiskMB uint64 `yaml:"min_free_disk_mb"`
}

func defaults() *Config {
	return &Config{
		Port:             "8080",
		BindAddress:      "localhost",
		LogMode:          "dev",
		DBHost:           "localhost",
		DBPort:           "5432",
		DBUser:           "quizai",
		DBName:           "quizai",
		DBSSLMode:        "disable",
		RedisHost:        "localhost",
		RedisPort:        "6379",
		RateLimitEnabled: true,
		SessionTTL:       2 * time.Hour,
		AllowedOrigins:   []string{"http://localhost:3000"},
		FrontendURL:      "http://localhost:3000",
		VerificationTTL:  24 * time.Hour,
		ResetTTL:         time.Hour,
		ShareTTL:         7 * 24 * time.Hour,
		MaxUploadMB:      20,
		PassPercent:      50,
		Mail:             MailConfig{Port: 587},
		AI: AIConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			Mode:          "local",
			UploadDir:     "uploads",
			MinFreeDiskMB: 250,
		},
		ShutdownTimeout: 15 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.BindAddress = getEnv("BIND_ADDRESS", cfg.BindAddress)
	cfg.LogMode = getEnv("LOG_MODE", cfg.LogMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)

	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", cfg.FrontendURL), "/")
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = parseList(raw)
	}

	cfg.Mail.Host = clean(getEnv("SMTP_HOST", cfg.Mail.Host))
	cfg.Mail.Username = clean(getEnv("SMTP_USER", cfg.Mail.Username))
	cfg.Mail.Password = clean(getEnv("SMTP_PASSWORD", cfg.Mail.Password))
	cfg.Mail.From = clean(getEnv("SMTP_FROM", cfg.Mail.From))
	cfg.AI.BaseURL = strings.TrimRight(getEnv("AI_BASE_URL", cfg.AI.BaseURL), "/")
	cfg.Storage.Mode = strings.ToLower(getEnv("STORAGE_MODE", cfg.Storage.Mode))
	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", cfg.Storage.UploadDir)
	cfg.Storage.GCSBucket = getEnv("GCS_BUCKET", cfg.Storage.GCSBucket)
	cfg.Storage.GCSPrefix = getEnv("GCS_PREFIX", cfg.Storage.GCSPrefix)
	cfg.Storage.GCSEndpoint = getEnv("GCS_ENDPOINT", cfg.Storage.GCSEndpoint)

	var err error
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &cfg.SessionTTL},
		{"VERIFICATION_TTL", &cfg.VerificationTTL},
		{"RESET_TTL", &cfg.ResetTTL},
		{"SHARE_TTL", &cfg.ShareTTL},
		{"AI_TIMEOUT", &cfg.AI.Timeout},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, *d.dst); err != nil {
			return err
		}
	}

	if cfg.MaxUploadMB, err = getInt64("MAX_UPLOAD_MB", cfg.MaxUploadMB); err != nil {
		return err
	}
	if cfg.PassPercent, err = getInt("PASS_PERCENT", cfg.PassPercent); err != nil {
		return err
	}
	if cfg.Mail.Port, err = getInt("SMTP_PORT", cfg.Mail.Port); err != nil {
		return err
	}
	if cfg.AI.MaxRetries, err = getInt("AI_MAX_RETRIES", cfg.AI.MaxRetries); err != nil {
		return err
	}
	minFree, err := getInt64("MIN_FREE_DISK_MB", int64(cfg.Storage.MinFreeDiskMB))
	if err != nil {
		return err
	}
	cfg.Storage.MinFreeDiskMB = uint64(minFree)
	if raw := os.Getenv("SMTP_SECURE"); raw != "" {
		cfg.Mail.Secure = parseBool(raw)
	}
	if raw := os.Getenv("RATE_LIMIT_ENABLED"); raw != "" {
		cfg.RateLimitEnabled = parseBool(raw)
	}
	return nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PassPercent < 0 || c.PassPercent > 100 {
		return fmt.Errorf("PASS_PERCENT must be between 0 and 100, got %d", c.PassPercent)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	switch c.Storage.Mode {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when STORAGE_MODE=gcs")
		}
	default:
		return fmt.Errorf("unknown STORAGE_MODE %q", c.Storage.Mode)
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(clean(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getInt64(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(clean(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(clean(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func clean(val string) string {
	return strings.Trim(val, "\"' \t\r\n")
}

func parseBool(val string) bool {
	switch strings.ToLower(clean(val)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
