package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"

	DefaultPath        = "./config/config.yaml"
	DefaultWebhookPath = "/api/bot"
	DefaultListen      = ":8080"
	DefaultPollTimeout = 30
	DefaultPrefix      = "/"
)

type Config struct {
	Name     string   `yaml:"name"`
	Bot      Bot      `yaml:"bot"`
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

type Bot struct {
	Name            string   `yaml:"name"`
	Token           string   `yaml:"token"`
	BaseURL         string   `yaml:"base_url"`
	WebhookPath     string   `yaml:"webhook_path"`
	SecretToken     string   `yaml:"secret_token"`
	PollStartDelay  Duration `yaml:"poll_start_delay"`
	Mode            string   `yaml:"mode"`
	Enabled         *bool    `yaml:"enabled"`
	Debug           bool     `yaml:"debug"`
	Username        string   `yaml:"username"`
	CommandPrefix   string   `yaml:"command_prefix"`
	PollTimeout     int      `yaml:"poll_timeout"`
	PollConcurrency int      `yaml:"poll_concurrency"`
}

// IsEnabled reports whether the bot should be started. Unset means yes.
func (b Bot) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

type Server struct {
	Listen string `yaml:"listen"`
}

type Database struct {
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
	Cache   string `yaml:"cache"`
	Schema  string `yaml:"schema"`
	MaxConn int    `yaml:"max_conn"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Duration reads yaml values like "1s" or "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Option adjusts a config after it is read and before it is defaulted
// and validated.
type Option func(*Config)

// WithMode overrides bot.mode, e.g. from a command line flag. An empty
// mode keeps the file's value.
func WithMode(mode string) Option {
	return func(c *Config) {
		if mode != "" {
			c.Bot.Mode = mode
		}
	}
}

// NewConfig loads the file named by CONFIG_PATH, or DefaultPath.
func NewConfig(opts ...Option) (*Config, error) {
	filename := DefaultPath
	if envFilename := os.Getenv("CONFIG_PATH"); envFilename != "" {
		filename = envFilename
	}
	return Load(filename, opts...)
}

// Load reads, defaults and validates one config file.
func Load(filename string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	for _, opt := range opts {
		opt(&conf)
	}
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) applyDefaults() {
	if c.Bot.Name == "" {
		c.Bot.Name = c.Name
	}
	if c.Bot.Mode == "" {
		c.Bot.Mode = ModeWebhook
		if os.Getenv("APP_ENV") == "development" {
			c.Bot.Mode = ModePolling
		}
	}
	if c.Bot.WebhookPath == "" {
		c.Bot.WebhookPath = DefaultWebhookPath
	}
	if !strings.HasPrefix(c.Bot.WebhookPath, "/") {
		c.Bot.WebhookPath = "/" + c.Bot.WebhookPath
	}
	if c.Bot.PollTimeout <= 0 {
		c.Bot.PollTimeout = DefaultPollTimeout
	}
	if c.Bot.PollConcurrency <= 0 {
		c.Bot.PollConcurrency = 1
	}
	if c.Bot.CommandPrefix == "" {
		c.Bot.CommandPrefix = DefaultPrefix
	}
	c.Bot.Username = strings.TrimPrefix(c.Bot.Username, "@")
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Database.Type == "" {
		c.Database.Type = "file:"
	}
	if c.Database.Address == "" {
		c.Database.Address = "echobot.db"
	}
	if c.Database.Cache == "" {
		c.Database.Cache = "shared"
	}
	if c.Database.MaxConn <= 0 {
		c.Database.MaxConn = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
		if c.Bot.Debug {
			c.Log.Level = "debug"
		}
	}
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var err error
	if c.Bot.IsEnabled() && c.Bot.Token == "" {
		err = multierr.Append(err, errors.New("bot.token is required"))
	}
	switch c.Bot.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Bot.IsEnabled() && c.Bot.BaseURL == "" {
			err = multierr.Append(err, errors.New("bot.base_url is required in webhook mode"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("bot.mode %q must be %q or %q", c.Bot.Mode, ModePolling, ModeWebhook))
	}
	if c.Bot.PollStartDelay < 0 {
		err = multierr.Append(err, errors.New("bot.poll_start_delay must not be negative"))
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
