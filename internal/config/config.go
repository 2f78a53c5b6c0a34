// Package config loads the bot configuration from environment variables,
// applies defaults, and validates the result. A .env file, if present, is
// loaded into the environment by main before Load runs.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// BotConfig holds the chat platform settings.
type BotConfig struct {
	Token      string  // BOT_TOKEN
	MasterUser int64   // MASTER_USER, always has admin rights
	RateRPS    float64 // BOT_RATE_RPS, per-user events per second; 0 disables
	RateBurst  int     // BOT_RATE_BURST
}

// FlushConfig controls how the environment cache is written back.
type FlushConfig struct {
	Interval        time.Duration // FLUSH_INTERVAL; 0 disables the periodic flush
	Retries         int           // FLUSH_RETRIES after the first failed attempt
	ShutdownTimeout time.Duration // SHUTDOWN_TIMEOUT for the final flush and HTTP drain
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// HTTPConfig configures the ops API server.
type HTTPConfig struct {
	Enabled           bool // HTTP_ENABLED
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	SwaggerEnabled    bool
	APIBasePath       string
	OpsToken          string  // OPS_TOKEN bearer token; required when Enabled
	RateRPS           float64 // RATE_RPS per client IP
	RateBurst         int     // RATE_BURST

	CORS     CORSConfig
	Security SecurityConfig
}

// OTELConfig defines OpenTelemetry settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the process.
type Config struct {
	Bot   BotConfig
	Flush FlushConfig
	HTTP  HTTPConfig
	OTEL  OTELConfig

	DBPath    string // DB_PATH, SQLite file
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // console logs for development
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Bot: BotConfig{
			Token:      strings.TrimSpace(getenv("BOT_TOKEN", "")),
			MasterUser: getint64("MASTER_USER", 0),
			RateRPS:    getfloat("BOT_RATE_RPS", 1.0),
			RateBurst:  getint("BOT_RATE_BURST", 5),
		},
		Flush: FlushConfig{
			Interval:        getdur("FLUSH_INTERVAL", 5*time.Minute),
			Retries:         getint("FLUSH_RETRIES", 3),
			ShutdownTimeout: getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		HTTP: HTTPConfig{
			Enabled:           getbool("HTTP_ENABLED", true),
			Port:              getenv("PORT", "8080"),
			ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
			ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
			WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
			IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
			GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
			SwaggerEnabled:    getbool("SWAGGER_ENABLED", false),
			APIBasePath:       normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
			OpsToken:          strings.TrimSpace(getenv("OPS_TOKEN", "")),
			RateRPS:           getfloat("RATE_RPS", 5.0),
			RateBurst:         getint("RATE_BURST", 10),
			CORS: CORSConfig{
				AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
			},
			Security: SecurityConfig{
				EnableHSTS: getbool("ENABLE_HSTS", false),
				HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			},
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "cheshire-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		DBPath:    getenv("DB_PATH", "cwdb.db"),
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.HTTP.GinMode {
	case "debug", "release", "test":
	default:
		cfg.HTTP.GinMode = "release"
	}

	// --- validation ---
	if cfg.Bot.Token == "" {
		return cfg, errors.New("BOT_TOKEN must not be empty")
	}
	if cfg.Bot.MasterUser == 0 {
		return cfg, errors.New("MASTER_USER must be a non-zero user id")
	}
	if cfg.Bot.RateRPS < 0 || cfg.HTTP.RateRPS < 0 {
		return cfg, errors.New("BOT_RATE_RPS and RATE_RPS must be >= 0")
	}
	if cfg.Bot.RateBurst < 1 || cfg.HTTP.RateBurst < 1 {
		return cfg, errors.New("BOT_RATE_BURST and RATE_BURST must be >= 1")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Flush.Interval < 0 {
		return cfg, errors.New("FLUSH_INTERVAL must be >= 0")
	}
	if cfg.Flush.Retries < 0 {
		return cfg, errors.New("FLUSH_RETRIES must be >= 0")
	}
	if cfg.Flush.ShutdownTimeout <= 0 {
		return cfg, errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.HTTP.Enabled && cfg.HTTP.OpsToken == "" {
		return cfg, errors.New("OPS_TOKEN must be set when HTTP_ENABLED is on")
	}
	if strings.TrimSpace(cfg.HTTP.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	h := cfg.HTTP
	if h.ReadTimeout <= 0 || h.ReadHeaderTimeout <= 0 || h.WriteTimeout <= 0 || h.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if h.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if h.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
