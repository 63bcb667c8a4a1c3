// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Scorer    ScorerConfig    `yaml:"scorer" mapstructure:"scorer"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	SMTP      SMTPConfig      `yaml:"smtp" mapstructure:"smtp"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DiscoveryConfig configures the search-based discovery stage.
type DiscoveryConfig struct {
	Endpoints       []string `yaml:"endpoints" mapstructure:"endpoints"`
	MaxResults      int      `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs     int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent       string   `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec      float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	ExcludedDomains []string `yaml:"excluded_domains" mapstructure:"excluded_domains"`
}

// CrawlConfig configures the enrichment crawler.
type CrawlConfig struct {
	MaxPages     int     `yaml:"max_pages" mapstructure:"max_pages"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ScorerConfig holds the scoring policy. All weights are configuration so the
// numeric policy can be tuned without code changes.
type ScorerConfig struct {
	FitWeight        float64            `yaml:"fit_weight" mapstructure:"fit_weight"`
	ContactWeight    float64            `yaml:"contact_weight" mapstructure:"contact_weight"`
	FitScale         float64            `yaml:"fit_scale" mapstructure:"fit_scale"`
	FitKeywords      map[string]float64 `yaml:"fit_keywords" mapstructure:"fit_keywords"`
	NegativeKeywords map[string]float64 `yaml:"negative_keywords" mapstructure:"negative_keywords"`
	EmailWeight      float64            `yaml:"email_weight" mapstructure:"email_weight"`
	PhoneWeight      float64            `yaml:"phone_weight" mapstructure:"phone_weight"`
	FormWeight       float64            `yaml:"form_weight" mapstructure:"form_weight"`
	LinkedInWeight   float64            `yaml:"linkedin_weight" mapstructure:"linkedin_weight"`
	RoleEmailBonus   float64            `yaml:"role_email_bonus" mapstructure:"role_email_bonus"`
	GenericPenalty   float64            `yaml:"generic_penalty" mapstructure:"generic_penalty"`
	RoleEmailHints   []string           `yaml:"role_email_hints" mapstructure:"role_email_hints"`
	GenericPrefixes  []string           `yaml:"generic_prefixes" mapstructure:"generic_prefixes"`
}

// OutreachConfig configures sequence planning and sending.
type OutreachConfig struct {
	Touches        int     `yaml:"touches" mapstructure:"touches"`
	IntervalDays   int     `yaml:"interval_days" mapstructure:"interval_days"`
	MaxPerDay      int     `yaml:"max_per_day" mapstructure:"max_per_day"`
	TemplatesPath  string  `yaml:"templates_path" mapstructure:"templates_path"`
	SendRatePerSec float64 `yaml:"send_rate_per_sec" mapstructure:"send_rate_per_sec"`
}

// SMTPConfig holds the live-send transport settings, typically supplied via
// OUTREACH_SMTP_* environment variables.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

// Validate checks that every setting required for live sending is present.
// Missing settings are a configuration error, not a silent no-op.
func (c SMTPConfig) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "smtp.host")
	}
	if c.User == "" {
		missing = append(missing, "smtp.user")
	}
	if c.Password == "" {
		missing = append(missing, "smtp.password")
	}
	if c.From == "" {
		missing = append(missing, "smtp.from")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: live send requires %s", strings.Join(missing, ", "))
	}
	return nil
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/leads.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("discovery.endpoints", []string{
		"https://lite.duckduckgo.com/lite/?q={query}",
		"https://html.duckduckgo.com/html/?q={query}",
		"https://duckduckgo.com/html/?q={query}",
		"https://r.jina.ai/http://duckduckgo.com/html/?q={query}",
	})
	v.SetDefault("discovery.max_results", 20)
	v.SetDefault("discovery.timeout_secs", 12)
	v.SetDefault("discovery.user_agent", defaultUserAgent)
	v.SetDefault("discovery.rate_per_sec", 1.0)
	v.SetDefault("discovery.excluded_domains", defaultExcludedDomains)

	v.SetDefault("crawl.max_pages", 4)
	v.SetDefault("crawl.timeout_secs", 12)
	v.SetDefault("crawl.user_agent", defaultUserAgent)
	v.SetDefault("crawl.rate_per_sec", 2.0)
	v.SetDefault("crawl.max_body_bytes", 512*1024)

	v.SetDefault("scorer.fit_weight", 0.7)
	v.SetDefault("scorer.contact_weight", 0.3)
	v.SetDefault("scorer.fit_scale", 2.2)
	v.SetDefault("scorer.fit_keywords", defaultFitKeywords)
	v.SetDefault("scorer.negative_keywords", defaultNegativeKeywords)
	v.SetDefault("scorer.email_weight", 45.0)
	v.SetDefault("scorer.phone_weight", 20.0)
	v.SetDefault("scorer.form_weight", 15.0)
	v.SetDefault("scorer.linkedin_weight", 10.0)
	v.SetDefault("scorer.role_email_bonus", 15.0)
	v.SetDefault("scorer.generic_penalty", 5.0)
	v.SetDefault("scorer.role_email_hints", []string{"operations", "plant", "manufacturing", "engineering", "automation"})
	v.SetDefault("scorer.generic_prefixes", []string{"info@", "contact@", "sales@"})

	v.SetDefault("outreach.touches", 3)
	v.SetDefault("outreach.interval_days", 4)
	v.SetDefault("outreach.max_per_day", 25)
	v.SetDefault("outreach.send_rate_per_sec", 0.5)

	// Empty defaults so AutomaticEnv can bind OUTREACH_SMTP_* during Unmarshal.
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("outreach.templates_path", "")
}

const defaultUserAgent = "Mozilla/5.0 (compatible; outreach-cli/1.0)"

var defaultExcludedDomains = []string{
	"duckduckgo.com", "google.com", "bing.com",
	"linkedin.com", "facebook.com", "instagram.com", "youtube.com",
	"x.com", "twitter.com", "wikipedia.org",
	"indeed.com", "ziprecruiter.com", "glassdoor.com",
	"yelp.com", "yellowpages.com", "mapquest.com",
	"thomasnet.com", "mfg.com", "dnb.com", "zoominfo.com",
}

var defaultFitKeywords = map[string]float64{
	"cnc":                    6,
	"machining":              6,
	"machine shop":           7,
	"precision":              3,
	"fabrication":            5,
	"metal":                  3,
	"tooling":                3,
	"assembly":               4,
	"contract manufacturing": 6,
	"injection molding":      6,
	"job shop":               6,
	"high mix":               7,
	"low volume":             5,
	"prototype":              4,
	"production":             3,
	"automation":             2,
}

var defaultNegativeKeywords = map[string]float64{
	"digital marketing": -8,
	"seo agency":        -8,
	"web design":        -7,
	"law firm":          -8,
	"real estate":       -7,
	"staffing agency":   -7,
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
