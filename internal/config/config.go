package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/cache"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = "GRAPHNET_CONFIG"

// Snapshot backends.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendS3       = "s3"
	BackendPostgres = "postgres"
)

// Config is the full service configuration.
type Config struct {
	Debug    bool `yaml:"debug"`
	JSONLogs bool `yaml:"json_logs"`

	Server     ServerConfig     `yaml:"server"`
	Annotator  AnnotatorConfig  `yaml:"annotator"`
	Crawl      CrawlConfig      `yaml:"crawl"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Analytics  analytics.Config `yaml:"analytics"`
	View       view.Options     `yaml:"view"`
	Cache      cache.Options    `yaml:"cache"`
	Workers    WorkersConfig    `yaml:"workers"`
	Snapshots  SnapshotsConfig  `yaml:"snapshots"`
	Progress   ProgressConfig   `yaml:"progress"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	BodyLimit string `yaml:"body_limit"`
	// APIKey, when set, is required as a bearer token on every route but
	// /health and /metrics.
	APIKey string `yaml:"api_key"`
}

type AnnotatorConfig struct {
	URL                   string        `yaml:"url"`
	APIKey                string        `yaml:"api_key"`
	Timeout               time.Duration `yaml:"timeout"`
	MaxRetries            int           `yaml:"max_retries"`
	Backoff               time.Duration `yaml:"backoff"`
	MaxChars              int           `yaml:"max_chars"`
	MaxSentences          int           `yaml:"max_sentences"`
	MaxConcurrentRequests int64         `yaml:"max_concurrent_requests"`
}

type CrawlConfig struct {
	Enabled   bool          `yaml:"enabled"`
	MaxPages  int           `yaml:"max_pages"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	MaxChars  int           `yaml:"max_chars"`
}

// ExtractionConfig mirrors extract.Options with an alias map loaded from
// YAML, e.g. {"IBM": "International Business Machines"}.
type ExtractionConfig struct {
	ConceptTopN            int               `yaml:"concept_top_n"`
	MinConceptCount        int               `yaml:"min_concept_count"`
	MaxSentences           int               `yaml:"max_sentences"`
	MaxEntitiesPerSentence int               `yaml:"max_entities_per_sentence"`
	MaxCoOccurrencePairs   int               `yaml:"max_co_occurrence_pairs"`
	MaxVerbPairs           int               `yaml:"max_verb_pairs"`
	MaxRelations           int               `yaml:"max_relations"`
	EvidenceChars          int               `yaml:"evidence_chars"`
	UploadMaxChars         int               `yaml:"upload_max_chars"`
	Aliases                map[string]string `yaml:"aliases"`
}

// Options converts the section into extractor options.
func (e ExtractionConfig) Options() extract.Options {
	return extract.Options{
		ConceptTopN:            e.ConceptTopN,
		MinConceptCount:        e.MinConceptCount,
		MaxSentences:           e.MaxSentences,
		MaxEntitiesPerSentence: e.MaxEntitiesPerSentence,
		MaxCoOccurrencePairs:   e.MaxCoOccurrencePairs,
		MaxVerbPairs:           e.MaxVerbPairs,
		MaxRelations:           e.MaxRelations,
		EvidenceChars:          e.EvidenceChars,
		Aliases:                extract.NewAliasTable(e.Aliases),
	}
}

type WorkersConfig struct {
	ParallelDocuments int `yaml:"parallel_documents"`
	Analytics         int `yaml:"analytics"`
}

type SnapshotsConfig struct {
	Backend string `yaml:"backend"`

	BadgerDir string `yaml:"badger_dir"`

	DatabaseURL string `yaml:"database_url"`
	Migrate     bool   `yaml:"migrate"`

	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket     string        `yaml:"bucket"`
	Prefix     string        `yaml:"prefix"`
	Region     string        `yaml:"region"`
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
}

// ProgressConfig enables forwarding of log stream events to a topic
// exchange. An empty AMQPURL keeps the stream local.
type ProgressConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
	Topic    string `yaml:"topic"`
	Buffer   int    `yaml:"buffer"`
}

// DefaultConfig returns the configuration used when no file or
// environment override is given.
func DefaultConfig() *Config {
	ext := extract.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			BodyLimit: "64M",
		},
		Annotator: AnnotatorConfig{
			URL:                   "http://localhost:8090",
			Timeout:               60 * time.Second,
			MaxRetries:            3,
			Backoff:               500 * time.Millisecond,
			MaxChars:              200_000,
			MaxSentences:          1_600,
			MaxConcurrentRequests: 4,
		},
		Crawl: CrawlConfig{
			Enabled:  true,
			MaxPages: 60,
			Timeout:  10 * time.Second,
			MaxChars: 50_000,
		},
		Extraction: ExtractionConfig{
			ConceptTopN:            ext.ConceptTopN,
			MinConceptCount:        ext.MinConceptCount,
			MaxSentences:           ext.MaxSentences,
			MaxEntitiesPerSentence: ext.MaxEntitiesPerSentence,
			MaxCoOccurrencePairs:   ext.MaxCoOccurrencePairs,
			MaxVerbPairs:           ext.MaxVerbPairs,
			MaxRelations:           ext.MaxRelations,
			EvidenceChars:          ext.EvidenceChars,
			UploadMaxChars:         200_000,
		},
		Analytics: analytics.DefaultConfig(),
		View:      view.DefaultOptions(),
		Cache:     cache.DefaultOptions(),
		Workers: WorkersConfig{
			ParallelDocuments: 4,
			Analytics:         2,
		},
		Snapshots: SnapshotsConfig{
			Backend:   BackendMemory,
			BadgerDir: "data/snapshots",
			Migrate:   true,
			S3: S3Config{
				Bucket:     "graphnet",
				Prefix:     "snapshots",
				Region:     "us-east-1",
				MaxRetries: 3,
				Backoff:    200 * time.Millisecond,
			},
		},
		Progress: ProgressConfig{
			Exchange: "pubsub_exchange",
			Topic:    "graph.progress",
			Buffer:   256,
		},
	}
}

// LoadFromFile reads a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the configuration from defaults, the optional file at path
// (or $GRAPHNET_CONFIG when path is empty) and environment overrides, in
// that order of precedence. A .env file is honoured.
func Load(path string) (*Config, error) {
	util.LoadEnv()

	if path == "" {
		path = util.GetEnv(EnvConfigPath)
	}
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Unset or
// unparsable variables keep the current value.
func (c *Config) ApplyEnv() {
	c.Debug = util.GetEnvBool("DEBUG", c.Debug)
	c.JSONLogs = util.GetEnvBool("LOG_JSON", c.JSONLogs)

	c.Server.Port = util.GetEnvString("PORT", c.Server.Port)
	c.Server.BodyLimit = util.GetEnvString("BODY_LIMIT", c.Server.BodyLimit)
	c.Server.APIKey = util.GetEnvString("MASTER_API_KEY", c.Server.APIKey)

	c.Annotator.URL = util.GetEnvString("ANNOTATOR_URL", c.Annotator.URL)
	c.Annotator.APIKey = util.GetEnvString("ANNOTATOR_KEY", c.Annotator.APIKey)
	c.Annotator.Timeout = util.GetEnvDuration("ANNOTATOR_TIMEOUT", c.Annotator.Timeout)
	c.Annotator.MaxRetries = util.GetEnvInt("ANNOTATOR_RETRIES", c.Annotator.MaxRetries)
	c.Annotator.Backoff = util.GetEnvDuration("ANNOTATOR_BACKOFF", c.Annotator.Backoff)
	c.Annotator.MaxConcurrentRequests = int64(util.GetEnvNumeric("ANNOTATOR_PARALLEL_REQ", float64(c.Annotator.MaxConcurrentRequests)))

	c.Crawl.Enabled = util.GetEnvBool("CRAWL_ENABLED", c.Crawl.Enabled)
	c.Crawl.MaxPages = util.GetEnvInt("CRAWL_MAX_PAGES", c.Crawl.MaxPages)
	c.Crawl.Timeout = util.GetEnvDuration("CRAWL_TIMEOUT", c.Crawl.Timeout)
	c.Crawl.UserAgent = util.GetEnvString("CRAWL_USER_AGENT", c.Crawl.UserAgent)

	c.Workers.ParallelDocuments = util.GetEnvInt("WORKER_PARALLEL_DOCUMENTS", c.Workers.ParallelDocuments)
	c.Workers.Analytics = util.GetEnvInt("WORKER_ANALYTICS", c.Workers.Analytics)

	c.Cache.MaxEntries = util.GetEnvInt("CACHE_MAX_ENTRIES", c.Cache.MaxEntries)
	c.Cache.MaxAge = util.GetEnvDuration("CACHE_MAX_AGE", c.Cache.MaxAge)

	c.Snapshots.Backend = util.GetEnvString("SNAPSHOT_BACKEND", c.Snapshots.Backend)
	c.Snapshots.BadgerDir = util.GetEnvString("BADGER_DIR", c.Snapshots.BadgerDir)
	c.Snapshots.DatabaseURL = util.GetEnvString("DATABASE_URL", c.Snapshots.DatabaseURL)
	c.Snapshots.S3.Bucket = util.GetEnvString("AWS_BUCKET", c.Snapshots.S3.Bucket)
	c.Snapshots.S3.Region = util.GetEnvString("AWS_REGION", c.Snapshots.S3.Region)
	c.Snapshots.S3.Endpoint = util.GetEnvString("AWS_ENDPOINT", c.Snapshots.S3.Endpoint)
	c.Snapshots.S3.AccessKey = util.GetEnvString("AWS_ACCESS_KEY", c.Snapshots.S3.AccessKey)
	c.Snapshots.S3.SecretKey = util.GetEnvString("AWS_SECRET_KEY", c.Snapshots.S3.SecretKey)

	c.Progress.AMQPURL = util.GetEnvString("AMQP_URL", c.Progress.AMQPURL)
	if host := util.GetEnv("RABBITMQ_HOST"); host != "" && c.Progress.AMQPURL == "" {
		u := url.URL{
			Scheme: "amqp",
			User:   url.UserPassword(util.GetEnvString("RABBITMQ_USER", "guest"), util.GetEnvString("RABBITMQ_PASSWORD", "guest")),
			Host:   host + ":" + util.GetEnvString("RABBITMQ_PORT", "5672"),
			Path:   "/",
		}
		c.Progress.AMQPURL = u.String()
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Annotator.URL == "" {
		errs = append(errs, errors.New("annotator.url is required"))
	}
	if c.Workers.ParallelDocuments < 1 {
		errs = append(errs, errors.New("workers.parallel_documents must be positive"))
	}
	if c.Workers.Analytics < 1 {
		errs = append(errs, errors.New("workers.analytics must be positive"))
	}
	if c.Cache.MaxEntries < 1 {
		errs = append(errs, errors.New("cache.max_entries must be positive"))
	}
	if c.Cache.MaxAge <= 0 {
		errs = append(errs, errors.New("cache.max_age must be positive"))
	}
	if c.View.DefaultNodeLimit < 1 || c.View.DefaultLinkLimit < 1 {
		errs = append(errs, errors.New("view default limits must be positive"))
	}
	if c.View.NodeStep < 1 || c.View.LinkStep < 1 {
		errs = append(errs, errors.New("view load-more steps must be positive"))
	}
	if err := c.Analytics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analytics: %w", err))
	}

	switch c.Snapshots.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Snapshots.BadgerDir == "" {
			errs = append(errs, errors.New("snapshots.badger_dir is required for the badger backend"))
		}
	case BackendS3:
		if c.Snapshots.S3.Bucket == "" {
			errs = append(errs, errors.New("snapshots.s3.bucket is required for the s3 backend"))
		}
	case BackendPostgres:
		if c.Snapshots.DatabaseURL == "" {
			errs = append(errs, errors.New("snapshots.database_url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown snapshot backend %q", c.Snapshots.Backend))
	}

	return errors.Join(errs...)
}
