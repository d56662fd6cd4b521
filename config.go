package quizbank

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for the extraction service
const (
	DefaultBaseURL = "https://api.siliconflow.cn/v1"
	DefaultModel   = "Qwen/Qwen2.5-32B-Instruct"
)

// Config holds everything the executables need
type Config struct {
	APIKey         string      `yaml:"-"` // never read from or written to files
	BaseURL        string      `yaml:"base_url"`
	Model          string      `yaml:"model"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	MaxInputChars  int         `yaml:"max_input_chars"`
	Strict         bool        `yaml:"strict"`
	LogDir         string      `yaml:"log_dir"`
	Store          StoreConfig `yaml:"store"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Model:          DefaultModel,
		TimeoutSeconds: int(DefaultExtractTimeout / time.Second),
		MaxInputChars:  DefaultMaxInputChars,
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   DefaultBankFile,
		},
	}
}

// LoadConfig loads .env, then the YAML file at path (if any), then environment overrides.
// A missing .env or a missing file at path is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		VerboseLog("No .env file loaded: %v", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("Config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIKey = getEnvOrDefault("QUIZBANK_API_KEY", getEnvOrDefault("OPENAI_API_KEY", c.APIKey))
	c.BaseURL = getEnvOrDefault("QUIZBANK_BASE_URL", c.BaseURL)
	c.Model = getEnvOrDefault("QUIZBANK_MODEL", c.Model)
	c.LogDir = getEnvOrDefault("QUIZBANK_LOG_DIR", c.LogDir)
	c.Store.Driver = getEnvOrDefault("QUIZBANK_STORE", c.Store.Driver)
	c.Store.Path = getEnvOrDefault("QUIZBANK_STORE_PATH", c.Store.Path)
	c.Store.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.Store.RedisAddr)
	c.Store.MongoURI = getEnvOrDefault("MONGO_URI", c.Store.MongoURI)

	if v := os.Getenv("QUIZBANK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TimeoutSeconds = n
		} else {
			log.Printf("Ignoring invalid QUIZBANK_TIMEOUT_SECONDS=%q", v)
		}
	}
	if v := os.Getenv("QUIZBANK_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Strict = b
		}
	}
}

// Validate checks the settings needed to reach the extraction service
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("API key is required: set QUIZBANK_API_KEY or OPENAI_API_KEY")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	return nil
}

// ExtractorConfig derives the extractor settings
func (c *Config) ExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		APIKey:        c.APIKey,
		BaseURL:       c.BaseURL,
		Model:         c.Model,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
		MaxInputChars: c.MaxInputChars,
	}
}

// PipelineOptions derives the pipeline options
func (c *Config) PipelineOptions() []PipelineOption {
	opts := []PipelineOption{WithStrict(c.Strict)}
	if c.LogDir != "" {
		opts = append(opts, WithLogDir(c.LogDir))
	}
	return opts
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
