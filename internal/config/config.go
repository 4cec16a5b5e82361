package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"NewsAggregator/internal/classifier"
	"NewsAggregator/internal/domain"
)

const (
	defaultTimezone   = "Europe/Sofia"
	configPathEnv     = "NEWS_AGGREGATOR_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	dbHostEnv         = "DB_HOST"
	dbNameEnv         = "DB_NAME"
	dbUserEnv         = "DB_USER"
	dbPasswordEnv     = "DB_PASSWORD"
	httpAddrEnv       = "HTTP_ADDR"
	logLevelEnv       = "LOG_LEVEL"
	refreshPolicyEnv  = "REFRESH_POLICY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	HTTP          HTTPConfig         `yaml:"http"`
	Logging       LoggingConfig      `yaml:"logging"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// DatabaseConfig selects the SQL dialect and connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when ingestion cycles run and the civil zone
// every timestamp is normalized into.
type SchedulerConfig struct {
	Interval       time.Duration  `yaml:"interval"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     *bool          `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShouldRunOnStart defaults to true.
func (s SchedulerConfig) ShouldRunOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// Spec returns the cron spec for the trigger.
func (s SchedulerConfig) Spec() string {
	if s.CronExpression != "" {
		return s.CronExpression
	}
	return "@every " + s.Interval.String()
}

// PipelineConfig tunes a single ingestion cycle.
type PipelineConfig struct {
	RefreshPolicy        string        `yaml:"refreshPolicy"`
	Workers              int           `yaml:"workers"`
	SourceTimeout        time.Duration `yaml:"sourceTimeout"`
	InlineClassification *bool         `yaml:"inlineClassification"`
}

// Policy returns the parsed refresh policy; Validate guarantees it is known.
func (p PipelineConfig) Policy() domain.RefreshPolicy {
	policy, err := domain.ParseRefreshPolicy(p.RefreshPolicy)
	if err != nil {
		return domain.PolicyReplaceAll
	}
	return policy
}

// ClassifyInline defaults to true.
func (p PipelineConfig) ClassifyInline() bool {
	return p.InlineClassification == nil || *p.InlineClassification
}

// ClassifierConfig carries the editable keyword lists.
type ClassifierConfig struct {
	Keywords map[domain.Category][]string `yaml:"keywords"`
}

// HTTPConfig configures the query API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SourceConfig describes a single news site with its scanner strategy.
type SourceConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	BaseURL    string            `yaml:"baseUrl"`
	FetchLimit int               `yaml:"fetchLimit"`
	Options    map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be postgres or sqlite", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	if _, err := domain.ParseRefreshPolicy(c.Pipeline.RefreshPolicy); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.refreshPolicy: %w", err))
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, errors.New("pipeline.workers must be positive"))
	}
	if c.Scheduler.CronExpression == "" && c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}

	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("at least one source is required"))
	}
	seen := map[string]bool{}
	for i, src := range c.Sources {
		if src.Name == "" || src.Scanner == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: name and scanner are required", i))
		}
		if seen[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name))
		}
		seen[src.Name] = true
		if u, err := url.Parse(src.BaseURL); err != nil || !u.IsAbs() {
			errs = append(errs, fmt.Errorf("sources[%d]: baseUrl %q must be absolute", i, src.BaseURL))
		}
		if src.FetchLimit < 1 {
			errs = append(errs, fmt.Errorf("sources[%d]: fetchLimit must be positive", i))
		}
	}

	for cat := range c.Classifier.Keywords {
		if !cat.Valid() {
			errs = append(errs, fmt.Errorf("classifier.keywords: unknown category %q", cat))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dbHostEnv); v != "" {
		c.Database.Driver = "postgres"
		c.Database.DSN = postgresDSN(v, os.Getenv(dbNameEnv), os.Getenv(dbUserEnv), os.Getenv(dbPasswordEnv))
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(refreshPolicyEnv); v != "" {
		c.Pipeline.RefreshPolicy = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
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
		tz = defaultTimezone
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
}

func postgresDSN(host, name, user, password string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}

	if override.Pipeline.RefreshPolicy != "" {
		base.Pipeline.RefreshPolicy = override.Pipeline.RefreshPolicy
	}
	if override.Pipeline.Workers > 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}
	if override.Pipeline.SourceTimeout > 0 {
		base.Pipeline.SourceTimeout = override.Pipeline.SourceTimeout
	}
	if override.Pipeline.InlineClassification != nil {
		base.Pipeline.InlineClassification = override.Pipeline.InlineClassification
	}

	for cat, words := range override.Classifier.Keywords {
		base.Classifier.Keywords[cat] = words
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

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

func defaultConfig() Config {
	return Config{
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "data/news.db"},
		Scheduler: SchedulerConfig{Interval: 10 * time.Minute, Timezone: defaultTimezone},
		Pipeline: PipelineConfig{
			RefreshPolicy: string(domain.PolicyReplaceAll),
			Workers:       3,
			SourceTimeout: 20 * time.Second,
		},
		Classifier: ClassifierConfig{Keywords: classifier.DefaultKeywords()},
		HTTP:       HTTPConfig{Addr: ":8080"},
		Logging:    LoggingConfig{Level: "info"},
		Sources: []SourceConfig{
			{Name: "24chasa", Scanner: "24chasa", BaseURL: "https://www.24chasa.bg/", FetchLimit: 10},
			{Name: "Dnevnik", Scanner: "dnevnik", BaseURL: "https://www.dnevnik.bg/", FetchLimit: 20},
			{Name: "Fakti", Scanner: "fakti", BaseURL: "https://fakti.bg/", FetchLimit: 10},
		},
	}
}
