package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/reminda/pkg/escalation"
	"github.com/harrisonrobin/reminda/pkg/notify"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "reminda"
	configFile = "config.yaml"
	storeFile  = "reminders.json"

	DefaultGeneralList = "Reminders"
)

const (
	BackendTaskwarrior = "taskwarrior"
	BackendGoogle      = "google"
	BackendFile        = "file"

	SchedulerLog      = "log"
	SchedulerCalendar = "calendar"
	SchedulerCommand  = "command"

	SpellerWords  = "words"
	SpellerDigits = "digits"
)

var ErrInvalid = errors.New("invalid config")

type WatchedList struct {
	Name          string `yaml:"name"`
	LimitCount    int    `yaml:"limit_count"`
	LimitDateDiff int    `yaml:"limit_date_diff"`
}

type Digest struct {
	RequirePriority bool `yaml:"require_priority"`
}

type Notification struct {
	Scheduler      string   `yaml:"scheduler"`
	Speller        string   `yaml:"speller"`
	DeepLink       string   `yaml:"deep_link"`
	Sound          string   `yaml:"sound"`
	TimeAwareSound bool     `yaml:"time_aware_sound"`
	MorningSound   string   `yaml:"morning_sound,omitempty"`
	EveningSound   string   `yaml:"evening_sound,omitempty"`
	EveningHour    int      `yaml:"evening_hour"`
	Calendar       string   `yaml:"calendar,omitempty"`
	Command        []string `yaml:"command,omitempty"`
}

type Config struct {
	Backend      string        `yaml:"backend"`
	GeneralList  string        `yaml:"general_list"`
	InboxList    string        `yaml:"inbox_list,omitempty"`
	WatchedLists []WatchedList `yaml:"watched_lists"`
	Digest       Digest        `yaml:"digest"`
	Notification Notification  `yaml:"notification"`
	FileStore    string        `yaml:"file_store,omitempty"`
	LogLevel     string        `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend:     BackendTaskwarrior,
		GeneralList: DefaultGeneralList,
		Notification: Notification{
			Scheduler:    SchedulerLog,
			Speller:      SpellerWords,
			DeepLink:     notify.DefaultDeepLink,
			Sound:        notify.DefaultSound,
			MorningSound: notify.DefaultSound,
			EveningSound: "alarm",
			EveningHour:  notify.DefaultEveningHour,
			Calendar:     "Tasks",
			Command:      []string{"notify-send", "--app-name=" + xdgAppName},
		},
		LogLevel: "info",
	}
}

// Dir is the reminda config directory, honouring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, xdgAppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config at path, or the default path when path is empty.
// A missing file yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, or the default path when path is empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return b, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.GeneralList == "" {
		errs = append(errs, errors.New("general_list must be set"))
	}
	switch c.Backend {
	case BackendTaskwarrior, BackendGoogle, BackendFile:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	switch c.Notification.Scheduler {
	case SchedulerLog, SchedulerCalendar, SchedulerCommand:
	default:
		errs = append(errs, fmt.Errorf("unknown notification scheduler %q", c.Notification.Scheduler))
	}
	switch c.Notification.Speller {
	case SpellerWords, SpellerDigits:
	default:
		errs = append(errs, fmt.Errorf("unknown number speller %q", c.Notification.Speller))
	}
	if h := c.Notification.EveningHour; h < 0 || h > 23 {
		errs = append(errs, fmt.Errorf("evening_hour %d out of range 0-23", h))
	}

	seen := make(map[string]bool)
	for i, wl := range c.WatchedLists {
		switch {
		case wl.Name == "":
			errs = append(errs, fmt.Errorf("watched_lists[%d]: name must be set", i))
		case seen[wl.Name]:
			errs = append(errs, fmt.Errorf("watched_lists[%d]: duplicate list %q", i, wl.Name))
		}
		seen[wl.Name] = true
		if wl.LimitCount < 0 || wl.LimitDateDiff < 0 {
			errs = append(errs, fmt.Errorf("watched_lists[%d]: limits must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Watched converts the configured lists for the evaluator.
func (c *Config) Watched() []escalation.WatchedList {
	out := make([]escalation.WatchedList, 0, len(c.WatchedLists))
	for _, wl := range c.WatchedLists {
		out = append(out, escalation.WatchedList{
			Name:          wl.Name,
			LimitCount:    wl.LimitCount,
			LimitDateDiff: wl.LimitDateDiff,
		})
	}
	return out
}

// NotifyOptions converts the notification settings for the composer.
func (c *Config) NotifyOptions() notify.Options {
	n := c.Notification
	return notify.Options{
		DeepLink:       n.DeepLink,
		Sound:          n.Sound,
		TimeAwareSound: n.TimeAwareSound,
		MorningSound:   n.MorningSound,
		EveningSound:   n.EveningSound,
		EveningHour:    n.EveningHour,
	}
}

// NumberSpeller returns the speller used for notification titles.
func (c *Config) NumberSpeller() notify.Speller {
	if c.Notification.Speller == SpellerDigits {
		return notify.Digits{}
	}
	return notify.Num2Words{}
}

// StorePath is the file store location.
func (c *Config) StorePath() (string, error) {
	if c.FileStore != "" {
		return c.FileStore, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, storeFile), nil
}
