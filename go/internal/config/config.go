// Package config loads service settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/timehack/go/clients"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sync    SyncConfig    `yaml:"sync"`
	Display DisplayConfig `yaml:"display"`
	Events  EventsConfig  `yaml:"events"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SyncConfig struct {
	Interval   time.Duration                  `yaml:"interval"`
	Timeout    time.Duration                  `yaml:"timeout"`
	StaleAfter time.Duration                  `yaml:"stale_after"`
	TimeAPIURL string                         `yaml:"time_api_url"`
	NTPServer  string                         `yaml:"ntp_server"`
	Sources    []clients.ExternalSourceConfig `yaml:"sources"`
}

type DisplayConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// Live enables the ticking scheduler behind /live and /ws/clock
	Live bool `yaml:"live"`
}

type EventsConfig struct {
	// NATSURL enables publishing clock events to NATS when set
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() Config {
	sources := clients.GetExternalSources()

	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			Interval:   5 * time.Second,
			Timeout:    5 * time.Second,
			StaleAfter: 5 * time.Minute,
			Sources: []clients.ExternalSourceConfig{
				sources[clients.ExternalSourceWorldTime],
				sources[clients.ExternalSourceNTP],
			},
		},
		Display: DisplayConfig{
			RefreshInterval: 100 * time.Millisecond,
			Live:            true,
		},
		Events: EventsConfig{
			SubjectPrefix: "timehack.events",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path may be empty; a missing file is an error
// only when a path was given.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Sync.TimeAPIURL = getEnv("TIME_API_URL", c.Sync.TimeAPIURL)
	c.Sync.NTPServer = getEnv("NTP_SERVER", c.Sync.NTPServer)
	c.Events.NATSURL = getEnv("NATS_URL", c.Events.NATSURL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	var err error
	if c.Sync.Interval, err = getEnvAsDuration("SYNC_INTERVAL", c.Sync.Interval); err != nil {
		return err
	}
	if c.Sync.Timeout, err = getEnvAsDuration("SYNC_TIMEOUT", c.Sync.Timeout); err != nil {
		return err
	}
	if c.Display.RefreshInterval, err = getEnvAsDuration("REFRESH_INTERVAL", c.Display.RefreshInterval); err != nil {
		return err
	}
	if c.Display.Live, err = getEnvAsBool("LIVE_CLOCK", c.Display.Live); err != nil {
		return err
	}

	return nil
}

// Validate rejects settings the service cannot run with
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, errors.New("sync interval must be positive"))
	}
	if c.Sync.Timeout <= 0 {
		errs = append(errs, errors.New("sync timeout must be positive"))
	}
	if c.Display.RefreshInterval <= 0 {
		errs = append(errs, errors.New("refresh interval must be positive"))
	}

	active := 0
	for _, src := range c.Sync.Sources {
		if !clients.ValidateExternalSource(src.Source) {
			errs = append(errs, fmt.Errorf("unknown time source %q", src.Source))
		}
		if src.Active {
			active++
		}
	}
	if active == 0 {
		errs = append(errs, errors.New("at least one time source must be active"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
