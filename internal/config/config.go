package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "MEDIASCOPE_CONFIG"
	httpAddrEnv      = "MEDIASCOPE_HTTP_ADDR"
	databaseDSNEnv   = "DATABASE_DSN"
	classifierURLEnv = "CLASSIFIER_URL"
	classifierKeyEnv = "CLASSIFIER_API_KEY"
	ytdlpPathEnv     = "YTDLP_PATH"
	tempDirEnv       = "MEDIASCOPE_TEMP_DIR"
	logLevelEnv      = "MEDIASCOPE_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	History     HistoryConfig     `yaml:"history"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Translation TranslationConfig `yaml:"translation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig describes the inbound API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes Postgres connection details for the history store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// HistoryConfig bounds how long analysis history is retained.
type HistoryConfig struct {
	MaxAge        time.Duration `yaml:"maxAge"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// ClassifierConfig describes the external inference-service integration.
type ClassifierConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// YouTubeConfig parametrizes the yt-dlp video-retrieval adapter.
type YouTubeConfig struct {
	BinaryPath string `yaml:"binaryPath"`
	MaxHeight  int    `yaml:"maxHeight"`
}

// PipelineConfig bounds resource usage of one analysis invocation.
type PipelineConfig struct {
	MaxDownloadBytes int64         `yaml:"maxDownloadBytes"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout"`
	DecodeTimeout    time.Duration `yaml:"decodeTimeout"`
	FrameCap         int           `yaml:"frameCap"`
	PageCap          int           `yaml:"pageCap"`
	BatchWorkers     int           `yaml:"batchWorkers"`
	TempDir          string        `yaml:"tempDir"`
}

// TranslationConfig selects the label localization language.
type TranslationConfig struct {
	Language string `yaml:"language"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(classifierURLEnv); v != "" {
		c.Classifier.Endpoint = v
	}

	if v := os.Getenv(classifierKeyEnv); v != "" {
		c.Classifier.APIKey = v
	}

	if v := os.Getenv(ytdlpPathEnv); v != "" {
		c.YouTube.BinaryPath = v
	}

	if v := os.Getenv(tempDirEnv); v != "" {
		c.Pipeline.TempDir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.History.MaxAge > 0 {
		base.History.MaxAge = override.History.MaxAge
	}
	if override.History.SweepInterval > 0 {
		base.History.SweepInterval = override.History.SweepInterval
	}

	if override.Classifier.Endpoint != "" {
		base.Classifier.Endpoint = override.Classifier.Endpoint
	}
	if override.Classifier.APIKey != "" {
		base.Classifier.APIKey = override.Classifier.APIKey
	}
	if override.Classifier.Timeout > 0 {
		base.Classifier.Timeout = override.Classifier.Timeout
	}

	if override.YouTube.BinaryPath != "" {
		base.YouTube.BinaryPath = override.YouTube.BinaryPath
	}
	if override.YouTube.MaxHeight > 0 {
		base.YouTube.MaxHeight = override.YouTube.MaxHeight
	}

	if override.Pipeline.MaxDownloadBytes > 0 {
		base.Pipeline.MaxDownloadBytes = override.Pipeline.MaxDownloadBytes
	}
	if override.Pipeline.FetchTimeout > 0 {
		base.Pipeline.FetchTimeout = override.Pipeline.FetchTimeout
	}
	if override.Pipeline.DecodeTimeout > 0 {
		base.Pipeline.DecodeTimeout = override.Pipeline.DecodeTimeout
	}
	if override.Pipeline.FrameCap > 0 {
		base.Pipeline.FrameCap = override.Pipeline.FrameCap
	}
	if override.Pipeline.PageCap > 0 {
		base.Pipeline.PageCap = override.Pipeline.PageCap
	}
	if override.Pipeline.BatchWorkers > 0 {
		base.Pipeline.BatchWorkers = override.Pipeline.BatchWorkers
	}
	if override.Pipeline.TempDir != "" {
		base.Pipeline.TempDir = override.Pipeline.TempDir
	}

	if override.Translation.Language != "" {
		base.Translation = override.Translation
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func defaultConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{DSN: ""},
		History: HistoryConfig{
			MaxAge:        0,
			SweepInterval: 24 * time.Hour,
		},
		Classifier: ClassifierConfig{
			Endpoint: "http://localhost:8501/classify",
			Timeout:  15 * time.Second,
		},
		YouTube: YouTubeConfig{
			BinaryPath: "yt-dlp",
			MaxHeight:  720,
		},
		Pipeline: PipelineConfig{
			MaxDownloadBytes: 50 << 20,
			FetchTimeout:     20 * time.Second,
			DecodeTimeout:    60 * time.Second,
			FrameCap:         12,
			PageCap:          10,
			BatchWorkers:     4,
			TempDir:          os.TempDir(),
		},
		Translation: TranslationConfig{Language: "id"},
		Logging:     LoggingConfig{Level: "info"},
	}
}
