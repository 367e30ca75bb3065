package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "SIGNAL_FEED_CONFIG"
	databasePathEnv  = "DATABASE_PATH"
	githubTokenEnv   = "GITHUB_TOKEN"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Logging       LoggingConfig      `yaml:"logging"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Sources       []SourceConfig     `yaml:"sources"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// DatabaseConfig describes the SQLite storage location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines how often ingestion cycles run.
type SchedulerConfig struct {
	IntervalHours int            `yaml:"intervalHours"`
	Timezone      string         `yaml:"timezone"`
	location      *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Interval returns the cycle period as a duration.
func (s SchedulerConfig) Interval() time.Duration {
	hours := s.IntervalHours
	if hours <= 0 {
		hours = 6
	}
	return time.Duration(hours) * time.Hour
}

// LoggingConfig controls slog construction.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ClassifierConfig is the immutable scoring policy threaded into the
// Classifier at construction. No process-wide mutable state.
type ClassifierConfig struct {
	EngagementWeight  float64                 `yaml:"engagementWeight"`
	RecencyWindowDays int                     `yaml:"recencyWindowDays"`
	TieBreakEpsilon   float64                 `yaml:"tieBreakEpsilon"`
	Keywords          KeywordWeights          `yaml:"keywords"`
	EngagementCurves  map[string][]CurvePoint `yaml:"engagementCurves"`
}

// KeywordWeights holds the three disjoint weighted keyword sets.
type KeywordWeights struct {
	Red    map[string]float64 `yaml:"red"`
	Yellow map[string]float64 `yaml:"yellow"`
	Green  map[string]float64 `yaml:"green"`
}

// CurvePoint is one node of a piecewise-linear engagement percentile curve.
// Curves are calibrated per source type empirically; they live in
// configuration rather than code.
type CurvePoint struct {
	Value      float64 `yaml:"value"`
	Percentile float64 `yaml:"percentile"`
}

// SourceConfig describes a single configured source and its adapter.
type SourceConfig struct {
	Name          string            `yaml:"name"`
	Adapter       string            `yaml:"adapter"`
	Type          string            `yaml:"type"`
	Categories    []CategoryConfig  `yaml:"categories"`
	Keywords      []string          `yaml:"keywords"`
	MinEngagement float64           `yaml:"minEngagement"`
	Options       map[string]string `yaml:"options"`
	Token         string            `yaml:"token"`
}

// CategoryConfig holds the concrete endpoints to crawl (e.g., arXiv category
// listing URLs or subreddit names).
type CategoryConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send digests.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
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
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(githubTokenEnv); v != "" {
		for i := range c.Sources {
			if c.Sources[i].Adapter == "github" && c.Sources[i].Token == "" {
				c.Sources[i].Token = v
			}
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler.IntervalHours = override.Scheduler.IntervalHours
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.JSON {
		base.Logging.JSON = true
	}

	base.Classifier = mergeClassifier(base.Classifier, override.Classifier)

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func mergeClassifier(base, override ClassifierConfig) ClassifierConfig {
	if override.EngagementWeight > 0 {
		base.EngagementWeight = override.EngagementWeight
	}
	if override.RecencyWindowDays > 0 {
		base.RecencyWindowDays = override.RecencyWindowDays
	}
	if override.TieBreakEpsilon > 0 {
		base.TieBreakEpsilon = override.TieBreakEpsilon
	}
	if len(override.Keywords.Red) > 0 || len(override.Keywords.Yellow) > 0 || len(override.Keywords.Green) > 0 {
		base.Keywords = override.Keywords
	}
	if len(override.EngagementCurves) > 0 {
		base.EngagementCurves = override.EngagementCurves
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Path: "data/signalfeed.db"},
		Scheduler: SchedulerConfig{IntervalHours: 6, Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
		Classifier: ClassifierConfig{
			EngagementWeight:  1.0,
			RecencyWindowDays: 14,
			TieBreakEpsilon:   0.001,
			Keywords: KeywordWeights{
				Red: map[string]float64{
					"state-of-the-art": 5, "sota": 5, "breakthrough": 5,
					"new model": 4, "outperform": 4, "record": 3,
					"open source": 3, "dataset": 2, "benchmark": 2, "introduce": 2,
				},
				Yellow: map[string]float64{
					"experiment": 3, "explore": 2, "hack": 2, "tool": 2,
					"library": 2, "implementation": 2, "clone": 1,
					"recreation": 1, "attempt": 1,
				},
				Green: map[string]float64{
					"analysis": 3, "survey": 3, "review": 2, "comparison": 2,
					"explain": 2, "understand": 2, "trend": 1, "thoughts": 1,
					"opinion": 1, "commentary": 1,
				},
			},
			// Calibrated from per-source attention thresholds: a repo with
			// 100 stars sits roughly where an HN story with 100 points or a
			// reddit post with 50 upvotes does. Papers carry no engagement.
			EngagementCurves: map[string][]CurvePoint{
				"repository": {
					{Value: 0, Percentile: 0}, {Value: 20, Percentile: 0.5},
					{Value: 100, Percentile: 0.8}, {Value: 1000, Percentile: 1},
				},
				"link": {
					{Value: 0, Percentile: 0}, {Value: 20, Percentile: 0.5},
					{Value: 100, Percentile: 0.8}, {Value: 500, Percentile: 1},
				},
				"discussion": {
					{Value: 0, Percentile: 0}, {Value: 10, Percentile: 0.5},
					{Value: 50, Percentile: 0.8}, {Value: 300, Percentile: 1},
				},
			},
		},
		Sources: []SourceConfig{
			{
				Name:    "arxiv",
				Adapter: "arxiv",
				Type:    "paper",
				Categories: []CategoryConfig{
					{Name: "cs.AI", URL: "https://arxiv.org/list/cs.AI/recent"},
					{Name: "cs.LG", URL: "https://arxiv.org/list/cs.LG/recent"},
					{Name: "cs.CL", URL: "https://arxiv.org/list/cs.CL/recent"},
				},
			},
			{
				Name:    "github",
				Adapter: "github",
				Type:    "repository",
				Keywords: []string{
					"machine-learning", "deep-learning", "llm", "generative-ai",
				},
				MinEngagement: 10,
			},
			{
				Name:    "hackernews",
				Adapter: "hackernews",
				Type:    "link",
				Keywords: []string{
					"AI", "LLM", "machine learning", "neural network",
				},
				MinEngagement: 20,
			},
			{
				Name:    "reddit",
				Adapter: "reddit",
				Type:    "discussion",
				Categories: []CategoryConfig{
					{Name: "MachineLearning"},
					{Name: "LocalLLaMA"},
				},
			},
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
	}
}
