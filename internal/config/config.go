// Package config loads the service configuration from an optional YAML file
// and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrUnknownEnv    = errors.New("unknown environment")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

type Config struct {
	Env            string   `yaml:"env"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	HTTPServer     `yaml:"http_server"`
	Storage        `yaml:"storage"`
	Postgres       `yaml:"postgres"`
	SQLite         `yaml:"sqlite"`
	Links          `yaml:"links"`
	Tracing        `yaml:"tracing"`
}

type HTTPServer struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	CertFile        string        `yaml:"cert_file"`
	KeyFile         string        `yaml:"key_file"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

var defaultHTTPServer = HTTPServer{
	Port:            8080,
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
	MaxHeaderBytes:  1 << 20,
	ShutdownTimeout: 10 * time.Second,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// TLS reports whether both certificate and key files are configured.
func (s *HTTPServer) TLS() bool {
	return s.CertFile != "" && s.KeyFile != ""
}

type Storage struct {
	Driver string `yaml:"driver"`
}

// Postgres describes the connection either as a full URL or as discrete fields.
// URL wins when set. An empty SSLMode is resolved by Load from the environment.
type Postgres struct {
	URL             string        `yaml:"url"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

// DSN returns the connection string. An sslmode already present in URL is kept.
func (p *Postgres) DSN() string {
	if p.URL == "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
	}

	if p.SSLMode == "" || strings.Contains(p.URL, "sslmode=") {
		return p.URL
	}

	switch {
	case !strings.Contains(p.URL, "://"):
		return p.URL + " sslmode=" + p.SSLMode
	case strings.Contains(p.URL, "?"):
		return p.URL + "&sslmode=" + p.SSLMode
	default:
		return p.URL + "?sslmode=" + p.SSLMode
	}
}

type SQLite struct {
	Path string `yaml:"path"`
}

var defaultSQLite = SQLite{
	Path: "links.db",
}

type Links struct {
	MaxRetries   int           `yaml:"max_retries"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	ClickTimeout time.Duration `yaml:"click_timeout"`
}

var defaultLinks = Links{
	MaxRetries:   5,
	QueryTimeout: 5 * time.Second,
	ClickTimeout: 5 * time.Second,
}

// Tracing configures span export. An empty Endpoint disables it.
type Tracing struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

var defaultTracing = Tracing{
	Insecure:    true,
	SampleRatio: 1,
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and environment overrides.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = defaultSSLMode(cfg.Env)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("APP_ENV"); ok {
		cfg.Env = v
	}

	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.HTTPServer.Port = port
	}

	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		cfg.Postgres.URL = v
	}

	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitOrigins(v)
	}

	if v, ok := os.LookupEnv("STORAGE_DRIVER"); ok {
		cfg.Storage.Driver = v
	}

	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		cfg.SQLite.Path = v
	}

	if v, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		cfg.Tracing.Endpoint = v
	}

	return nil
}

func splitOrigins(s string) []string {
	return lo.Compact(lo.Map(strings.Split(s, ","), func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	}))
}

// defaultSSLMode encrypts store traffic in production without verifying the
// server certificate, and leaves it plain elsewhere.
func defaultSSLMode(env string) string {
	if env == EnvProd {
		return "require"
	}
	return "disable"
}

func (cfg *Config) validate() error {
	switch cfg.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnv, cfg.Env)
	}

	switch cfg.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Storage = Storage{Driver: DriverPostgres}
	cfg.Postgres = defaultPostgres
	cfg.SQLite = defaultSQLite
	cfg.Links = defaultLinks
	cfg.Tracing = defaultTracing
}
