package config

import (
	"strings"
	"time"

	"topic-crawler/internal/model"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings. Snapshots are only mirrored
// to Redis when Enabled is set.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BilibiliConfig controls the video platform source.
type BilibiliConfig struct {
	SearchURL    string  `mapstructure:"search_url"`
	HotwordURL   string  `mapstructure:"hotword_url"`
	RankingURL   string  `mapstructure:"ranking_url"`
	Cookie       string  `mapstructure:"cookie"`
	Proxy        string  `mapstructure:"proxy"`
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"` // 0 disables pacing
}

// NewsnowConfig controls the news aggregator source.
type NewsnowConfig struct {
	BaseURL          string           `mapstructure:"base_url"`
	Proxy            string           `mapstructure:"proxy"`
	Retries          *int             `mapstructure:"retries"` // 0 disables retries; unset means 2
	MaxDetailFetches int              `mapstructure:"max_detail_fetches"`
	IntervalMS       int              `mapstructure:"interval_ms"`
	Platforms        []model.Platform `mapstructure:"platforms"`
}

// DataSources groups the upstream sources.
type DataSources struct {
	Bilibili BilibiliConfig `mapstructure:"bilibili"`
	Newsnow  NewsnowConfig  `mapstructure:"newsnow"`
}

// OpenAIConfig configures title suggestions.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// OutputConfig controls where snapshots are written.
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	File     string `mapstructure:"file"`
	DataRoot string `mapstructure:"data_root"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// CollectorConfig controls the periodic collector run by serve.
type CollectorConfig struct {
	Interval          string   `mapstructure:"interval"` // duration string, e.g., "30m"
	HotLimit          int      `mapstructure:"hot_limit"`
	EnrichPer         *int     `mapstructure:"enrich_per"` // 0 disables enrichment; unset means 10
	EnrichConcurrency int      `mapstructure:"enrich_concurrency"`
	Keywords          []string `mapstructure:"keywords"` // searched every run; top ranking keywords when empty
}

// Config is the top-level configuration structure.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sources   DataSources     `mapstructure:"sources"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Output    OutputConfig    `mapstructure:"output"`
	Server    ServerConfig    `mapstructure:"server"`
	Collector CollectorConfig `mapstructure:"collector"`
}

// DefaultPlatforms is the news platform list used when none is configured.
func DefaultPlatforms() []model.Platform {
	return []model.Platform{
		{ID: "toutiao", Name: "今日头条"},
		{ID: "weibo", Name: "微博"},
		{ID: "zhihu", Name: "知乎"},
	}
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	n := &c.Sources.Newsnow
	n.Retries = intDefault(n.Retries, defaultRetries)
	if n.MaxDetailFetches <= 0 {
		n.MaxDetailFetches = 8
	}
	if n.IntervalMS <= 0 {
		n.IntervalMS = 1000
	}
	if len(n.Platforms) == 0 {
		n.Platforms = DefaultPlatforms()
	}
	for i := range n.Platforms {
		p := &n.Platforms[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.Name == "" {
			p.Name = p.ID
		}
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.File == "" {
		c.Output.File = "newsnow.json"
	}
	if c.Output.DataRoot == "" {
		c.Output.DataRoot = "data"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Collector.Interval == "" {
		c.Collector.Interval = "30m"
	}
	if c.Collector.HotLimit == 0 {
		c.Collector.HotLimit = 50
	}
	c.Collector.EnrichPer = intDefault(c.Collector.EnrichPer, defaultEnrichPer)
	if c.Collector.EnrichConcurrency == 0 {
		c.Collector.EnrichConcurrency = 5
	}
}

const (
	defaultRetries   = 2
	defaultEnrichPer = 10
)

// intDefault returns def when p is unset and clamps negative values to 0.
func intDefault(p *int, def int) *int {
	v := def
	if p != nil {
		v = max(*p, 0)
	}
	return &v
}

// RetryCount is the configured number of news retries.
func (n NewsnowConfig) RetryCount() int {
	return *intDefault(n.Retries, defaultRetries)
}

// EnrichPageSize is the search page size used to enrich hot topics.
func (c CollectorConfig) EnrichPageSize() int {
	return *intDefault(c.EnrichPer, defaultEnrichPer)
}

// NewsInterval is the pause between platforms of a news batch.
func (c Config) NewsInterval() time.Duration {
	return time.Duration(c.Sources.Newsnow.IntervalMS) * time.Millisecond
}
