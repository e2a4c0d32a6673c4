package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	SeedFile  string

	ShutdownTimeout time.Duration

	JWT     JWTConfig
	CORS    CORSConfig
	Log     LogConfig
	Ledger  LedgerConfig
	Metrics MetricsConfig
	Docs    DocsConfig
	Export  ExportConfig
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig holds the business constants of the enrollment ledger and grade engine.
type LedgerConfig struct {
	PerCreditRate         float64
	MaxCreditsPerSemester int
	GraduationCredits     int
	CoreCourseID          string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// DocsConfig toggles the swagger UI.
type DocsConfig struct {
	Enabled bool
}

// ExportConfig controls background report exports.
type ExportConfig struct {
	Dir             string
	Workers         int
	MaxRetries      int
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.SeedFile = v.GetString("SEED_FILE")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ledger = LedgerConfig{
		PerCreditRate:         v.GetFloat64("LEDGER_PER_CREDIT_RATE"),
		MaxCreditsPerSemester: v.GetInt("LEDGER_MAX_CREDITS_PER_SEMESTER"),
		GraduationCredits:     v.GetInt("GRADUATION_CREDITS"),
		CoreCourseID:          strings.TrimSpace(v.GetString("GRADUATION_CORE_COURSE_ID")),
	}
	if cfg.Ledger.PerCreditRate <= 0 {
		cfg.Ledger.PerCreditRate = 1000
	}
	if cfg.Ledger.MaxCreditsPerSemester <= 0 {
		cfg.Ledger.MaxCreditsPerSemester = 8
	}
	if cfg.Ledger.GraduationCredits <= 0 {
		cfg.Ledger.GraduationCredits = 32
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
		Path:    v.GetString("METRICS_PATH"),
	}

	cfg.Docs = DocsConfig{Enabled: v.GetBool("ENABLE_DOCS")}

	cfg.Export = ExportConfig{
		Dir:             v.GetString("EXPORT_DIR"),
		Workers:         v.GetInt("EXPORT_WORKERS"),
		MaxRetries:      v.GetInt("EXPORT_MAX_RETRIES"),
		ResultTTL:       parseDuration(v.GetString("EXPORT_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORT_CLEANUP_INTERVAL"), time.Hour),
	}
	if cfg.Export.Workers <= 0 {
		cfg.Export.Workers = 2
	}

	return cfg
}

// DefaultLedger returns the ledger constants used when no configuration is loaded.
func DefaultLedger() LedgerConfig {
	return LedgerConfig{
		PerCreditRate:         1000,
		MaxCreditsPerSemester: 8,
		GraduationCredits:     32,
		CoreCourseID:          "INFO 5100",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "campus-ledger-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	def := DefaultLedger()
	v.SetDefault("LEDGER_PER_CREDIT_RATE", def.PerCreditRate)
	v.SetDefault("LEDGER_MAX_CREDITS_PER_SEMESTER", def.MaxCreditsPerSemester)
	v.SetDefault("GRADUATION_CREDITS", def.GraduationCredits)
	v.SetDefault("GRADUATION_CORE_COURSE_ID", def.CoreCourseID)

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("METRICS_PATH", "/metrics")
	v.SetDefault("ENABLE_DOCS", true)

	v.SetDefault("EXPORT_DIR", "")
	v.SetDefault("EXPORT_WORKERS", 2)
	v.SetDefault("EXPORT_MAX_RETRIES", 2)
	v.SetDefault("EXPORT_TTL", "24h")
	v.SetDefault("EXPORT_CLEANUP_INTERVAL", "1h")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
