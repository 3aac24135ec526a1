// Package config loads and validates the application configuration from a
// YAML file with environment fallbacks for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks invalid or missing configuration detected at
// startup. Nothing recovers from it at runtime; the process exits.
var ErrConfiguration = errors.New("configuration error")

// maxConfigSize limits config file size to prevent accidental huge reads.
const maxConfigSize = 1 << 20

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Agent     AgentConfig     `yaml:"agent"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Weather   WeatherConfig   `yaml:"weather"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RedisConfig holds session store connection settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// QdrantConfig holds vector index connection settings. An empty URL selects
// the in-process store.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// OpenAIConfig holds model endpoint settings shared by generation and
// embeddings.
type OpenAIConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	Dimensions        int           `yaml:"dimensions"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// AgentConfig tunes the reasoning loop and conversation memory.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	WindowMax     int `yaml:"window_max"`
}

// SplitterConfig tunes document segmentation.
type SplitterConfig struct {
	MaxSegmentSize int `yaml:"max_segment_size"`
	MaxOverlap     int `yaml:"max_overlap"`
}

// RetrievalConfig tunes similarity search.
type RetrievalConfig struct {
	TopK       int     `yaml:"top_k"`
	SearchTopK int     `yaml:"search_top_k"`
	MinScore   float32 `yaml:"min_score"`
}

// WeatherConfig holds the weather tool's API settings. An empty key disables
// the tool.
type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
}

// Load reads configuration from a YAML file, applies defaults, and fills
// secrets from the environment. A .env file in the working directory is
// loaded first when present. path may be empty to run on defaults and
// environment alone.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: stat config file: %v", ErrConfiguration, err)
		}
		if info.Size() > maxConfigSize {
			return nil, fmt.Errorf("%w: config file too large: %d bytes", ErrConfiguration, info.Size())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: read config file: %v", ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config: %v", ErrConfiguration, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "ragkit-segments"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.Dimensions == 0 {
		c.OpenAI.Dimensions = 1536
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 60 * time.Second
	}
	if c.Agent.MaxIterations == 0 {
		c.Agent.MaxIterations = 5
	}
	if c.Agent.WindowMax == 0 {
		c.Agent.WindowMax = 20
	}
	if c.Splitter.MaxSegmentSize == 0 {
		c.Splitter.MaxSegmentSize = 500
	}
	if c.Splitter.MaxOverlap == 0 {
		c.Splitter.MaxOverlap = 50
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.SearchTopK == 0 {
		c.Retrieval.SearchTopK = 5
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = 0.5
	}
}

func (c *Config) applyEnv() {
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if c.Redis.Password == "" {
		c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.Qdrant.URL = v
	}
	if c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = os.Getenv("QDRANT_API_KEY")
	}
	if c.Weather.APIKey == "" {
		c.Weather.APIKey = os.Getenv("WEATHER_API_KEY")
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Addr = ":" + v
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: openai api key is required (config or OPENAI_API_KEY)", ErrConfiguration)
	}
	if c.OpenAI.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrConfiguration)
	}
	if c.Splitter.MaxOverlap >= c.Splitter.MaxSegmentSize {
		return fmt.Errorf("%w: splitter overlap %d must be smaller than segment size %d",
			ErrConfiguration, c.Splitter.MaxOverlap, c.Splitter.MaxSegmentSize)
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be in [0,1], got %v", ErrConfiguration, c.Retrieval.MinScore)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1", ErrConfiguration)
	}
	return nil
}
