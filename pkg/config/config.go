// Package config loads and validates corpus-qa configuration from YAML or TOML
// files with environment-variable overrides. It provides typed structs for the
// retrieval limits, the corpus source, the API server, logging, metrics and
// query analytics.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/errors"
)

// Source names accepted by CorpusConfig.Source.
const (
	SourceDir      = "dir"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceRedis    = "redis"
)

// Config is the top-level application configuration.
type Config struct {
	Retrieval RetrievalConfig `yaml:"retrieval" toml:"retrieval"`
	Corpus    CorpusConfig    `yaml:"corpus" toml:"corpus"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Analytics AnalyticsConfig `yaml:"analytics" toml:"analytics"`
}

// RetrievalConfig holds the number of files and sentences returned per query.
type RetrievalConfig struct {
	FileMatches     int    `yaml:"fileMatches" toml:"fileMatches"`
	SentenceMatches int    `yaml:"sentenceMatches" toml:"sentenceMatches"`
	StopwordsFile   string `yaml:"stopwordsFile" toml:"stopwordsFile"`
}

// CorpusConfig selects where documents are loaded from.
type CorpusConfig struct {
	Source          string         `yaml:"source" toml:"source"`
	Dir             string         `yaml:"dir" toml:"dir"`
	LoadConcurrency int            `yaml:"loadConcurrency" toml:"loadConcurrency"`
	Query           string         `yaml:"query" toml:"query"`
	ConnectAttempts int            `yaml:"connectAttempts" toml:"connectAttempts"`
	Postgres        PostgresConfig `yaml:"postgres" toml:"postgres"`
	SQLite          SQLiteConfig   `yaml:"sqlite" toml:"sqlite"`
	Redis           RedisConfig    `yaml:"redis" toml:"redis"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string   `yaml:"host" toml:"host"`
	Port            int      `yaml:"port" toml:"port"`
	Database        string   `yaml:"database" toml:"database"`
	User            string   `yaml:"user" toml:"user"`
	Password        string   `yaml:"password" toml:"password"`
	SSLMode         string   `yaml:"sslMode" toml:"sslMode"`
	MaxOpenConns    int      `yaml:"maxOpenConns" toml:"maxOpenConns"`
	MaxIdleConns    int      `yaml:"maxIdleConns" toml:"maxIdleConns"`
	ConnMaxLifetime Duration `yaml:"connMaxLifetime" toml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at a SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// RedisConfig holds Redis connection parameters and the document key prefix.
type RedisConfig struct {
	Addr      string `yaml:"addr" toml:"addr"`
	Password  string `yaml:"password" toml:"password"`
	DB        int    `yaml:"db" toml:"db"`
	PoolSize  int    `yaml:"poolSize" toml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix" toml:"keyPrefix"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int      `yaml:"port" toml:"port"`
	ReadTimeout     Duration `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout" toml:"writeTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout" toml:"shutdownTimeout"`
	RequestTimeout  Duration `yaml:"requestTimeout" toml:"requestTimeout"`
	Watch           bool     `yaml:"watch" toml:"watch"`
	WatchDebounce   Duration `yaml:"watchDebounce" toml:"watchDebounce"`

	// RateLimit is the number of API requests per minute allowed from one
	// client address. Zero disables limiting.
	RateLimit int `yaml:"rateLimit" toml:"rateLimit"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// AnalyticsConfig controls publishing of query events to Kafka.
type AnalyticsConfig struct {
	Enabled       bool     `yaml:"enabled" toml:"enabled"`
	Brokers       []string `yaml:"brokers" toml:"brokers"`
	Topic         string   `yaml:"topic" toml:"topic"`
	ConsumerGroup string   `yaml:"consumerGroup" toml:"consumerGroup"`
	BufferSize    int      `yaml:"bufferSize" toml:"bufferSize"`
	BatchSize     int      `yaml:"batchSize" toml:"batchSize"`
	FlushInterval Duration `yaml:"flushInterval" toml:"flushInterval"`

	// SnapshotStore is the database ("postgres" or "sqlite", connection
	// settings from the corpus block) that stats snapshots are saved to.
	SnapshotStore string `yaml:"snapshotStore" toml:"snapshotStore"`
}

// Duration is a time.Duration read from strings such as "30s" in both YAML
// and TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads a YAML or TOML config file (if provided), applies environment
// overrides and validates the result. The format is chosen by extension:
// ".toml" is TOML, anything else YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Default returns a Config for answering queries over a local directory with
// one file and one sentence per answer.
func Default() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			FileMatches:     1,
			SentenceMatches: 1,
		},
		Corpus: CorpusConfig{
			Source:          SourceDir,
			LoadConcurrency: 8,
			Query:           "SELECT id, body FROM documents ORDER BY id",
			ConnectAttempts: 3,
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				Database:        "corpusqa",
				User:            "corpusqa",
				Password:        "localdev",
				SSLMode:         "disable",
				MaxOpenConns:    4,
				MaxIdleConns:    2,
				ConnMaxLifetime: Duration(5 * time.Minute),
			},
			SQLite: SQLiteConfig{
				Path: "corpus.db",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				PoolSize:  10,
				KeyPrefix: "corpus:doc:",
			},
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			RequestTimeout:  Duration(10 * time.Second),
			WatchDebounce:   Duration(500 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Analytics: AnalyticsConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			Topic:         "corpusqa.queries",
			ConsumerGroup: "corpusqa-stats",
			BufferSize:    1024,
			BatchSize:     50,
			FlushInterval: Duration(time.Second),
		},
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidInput.
func (c *Config) Validate() error {
	if c.Retrieval.FileMatches < 1 {
		return fmt.Errorf("%w: FILE_MATCHES must be a positive integer, got %d",
			apperrors.ErrInvalidInput, c.Retrieval.FileMatches)
	}
	if c.Retrieval.SentenceMatches < 1 {
		return fmt.Errorf("%w: SENTENCE_MATCHES must be a positive integer, got %d",
			apperrors.ErrInvalidInput, c.Retrieval.SentenceMatches)
	}
	switch c.Corpus.Source {
	case SourceDir, SourcePostgres, SourceSQLite, SourceRedis:
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnsupportedSource, c.Corpus.Source)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rateLimit must not be negative", apperrors.ErrInvalidInput)
	}
	if c.Corpus.LoadConcurrency < 1 {
		return fmt.Errorf("%w: corpus.loadConcurrency must be at least 1", apperrors.ErrInvalidInput)
	}
	switch c.Analytics.SnapshotStore {
	case "", SourcePostgres, SourceSQLite:
	default:
		return fmt.Errorf("%w: analytics.snapshotStore %q", apperrors.ErrUnsupportedSource, c.Analytics.SnapshotStore)
	}
	if c.Analytics.Enabled && (len(c.Analytics.Brokers) == 0 || c.Analytics.Topic == "") {
		return fmt.Errorf("%w: analytics requires brokers and a topic", apperrors.ErrInvalidInput)
	}
	return nil
}

// applyEnvOverrides reads FILE_MATCHES, SENTENCE_MATCHES and CQA_* variables
// and overrides the corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FILE_MATCHES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FILE_MATCHES=%q is not an integer", apperrors.ErrInvalidInput, v)
		}
		cfg.Retrieval.FileMatches = n
	}
	if v := os.Getenv("SENTENCE_MATCHES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SENTENCE_MATCHES=%q is not an integer", apperrors.ErrInvalidInput, v)
		}
		cfg.Retrieval.SentenceMatches = n
	}
	if v := os.Getenv("CQA_STOPWORDS_FILE"); v != "" {
		cfg.Retrieval.StopwordsFile = v
	}
	if v := os.Getenv("CQA_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("CQA_CORPUS_DIR"); v != "" {
		cfg.Corpus.Dir = v
	}
	if v := os.Getenv("CQA_CORPUS_QUERY"); v != "" {
		cfg.Corpus.Query = v
	}
	if v := os.Getenv("CQA_POSTGRES_HOST"); v != "" {
		cfg.Corpus.Postgres.Host = v
	}
	if v := os.Getenv("CQA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Corpus.Postgres.Port = port
		}
	}
	if v := os.Getenv("CQA_POSTGRES_DATABASE"); v != "" {
		cfg.Corpus.Postgres.Database = v
	}
	if v := os.Getenv("CQA_POSTGRES_USER"); v != "" {
		cfg.Corpus.Postgres.User = v
	}
	if v := os.Getenv("CQA_POSTGRES_PASSWORD"); v != "" {
		cfg.Corpus.Postgres.Password = v
	}
	if v := os.Getenv("CQA_SQLITE_PATH"); v != "" {
		cfg.Corpus.SQLite.Path = v
	}
	if v := os.Getenv("CQA_REDIS_ADDR"); v != "" {
		cfg.Corpus.Redis.Addr = v
	}
	if v := os.Getenv("CQA_REDIS_PASSWORD"); v != "" {
		cfg.Corpus.Redis.Password = v
	}
	if v := os.Getenv("CQA_REDIS_KEY_PREFIX"); v != "" {
		cfg.Corpus.Redis.KeyPrefix = v
	}
	if v := os.Getenv("CQA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CQA_SERVER_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CQA_SERVER_RATE_LIMIT=%q is not an integer", apperrors.ErrInvalidInput, v)
		}
		cfg.Server.RateLimit = n
	}
	if v := os.Getenv("CQA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CQA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CQA_ANALYTICS_BROKERS"); v != "" {
		cfg.Analytics.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CQA_ANALYTICS_TOPIC"); v != "" {
		cfg.Analytics.Topic = v
	}
	if v := os.Getenv("CQA_ANALYTICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: CQA_ANALYTICS_ENABLED=%q is not a boolean", apperrors.ErrInvalidInput, v)
		}
		cfg.Analytics.Enabled = enabled
	}
	return nil
}
