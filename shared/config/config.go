package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/furisto/debrief/shared"
)

const (
	fileName  = "config.yaml"
	envPrefix = "DEBRIEF_"
)

type Config struct {
	Models     ModelsConfig     `yaml:"models,omitempty"`
	Archive    ArchiveConfig    `yaml:"archive,omitempty"`
	Log        LogConfig        `yaml:"log,omitempty"`
	Analytics  AnalyticsConfig  `yaml:"analytics,omitempty"`
	Sentry     SentryConfig     `yaml:"sentry,omitempty"`
	Credential CredentialConfig `yaml:"credential,omitempty"`
}

type ModelsConfig struct {
	Fast string `yaml:"fast,omitempty"`
	Deep string `yaml:"deep,omitempty"`
}

type ArchiveConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

type AnalyticsConfig struct {
	PosthogKey string `yaml:"posthog_key,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty"`
}

type SentryConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

type CredentialConfig struct {
	Store string `yaml:"store,omitempty"`
}

const (
	ArchiveBackendFile   = "file"
	ArchiveBackendSQLite = "sqlite"
)

type key struct {
	get     func(c *Config) string
	set     func(c *Config, v string)
	allowed []string
}

var keys = map[string]key{
	"models.fast": {
		get: func(c *Config) string { return c.Models.Fast },
		set: func(c *Config, v string) { c.Models.Fast = v },
	},
	"models.deep": {
		get: func(c *Config) string { return c.Models.Deep },
		set: func(c *Config, v string) { c.Models.Deep = v },
	},
	"archive.backend": {
		get:     func(c *Config) string { return c.Archive.Backend },
		set:     func(c *Config, v string) { c.Archive.Backend = v },
		allowed: []string{ArchiveBackendFile, ArchiveBackendSQLite},
	},
	"archive.path": {
		get: func(c *Config) string { return c.Archive.Path },
		set: func(c *Config, v string) { c.Archive.Path = v },
	},
	"log.level": {
		get:     func(c *Config) string { return c.Log.Level },
		set:     func(c *Config, v string) { c.Log.Level = v },
		allowed: []string{"debug", "info", "warn", "error"},
	},
	"analytics.posthog_key": {
		get: func(c *Config) string { return c.Analytics.PosthogKey },
		set: func(c *Config, v string) { c.Analytics.PosthogKey = v },
	},
	"analytics.endpoint": {
		get: func(c *Config) string { return c.Analytics.Endpoint },
		set: func(c *Config, v string) { c.Analytics.Endpoint = v },
	},
	"sentry.dsn": {
		get: func(c *Config) string { return c.Sentry.DSN },
		set: func(c *Config, v string) { c.Sentry.DSN = v },
	},
	"credential.store": {
		get:     func(c *Config) string { return c.Credential.Store },
		set:     func(c *Config, v string) { c.Credential.Store = v },
		allowed: []string{"keyring", "file"},
	},
}

// Keys lists the supported configuration keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnvName returns the environment variable overriding key.
func EnvName(k string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
}

// Store reads and writes the YAML configuration file. Values from the
// environment take precedence over the file but are never written back.
type Store struct {
	fs     *afero.Afero
	path   string
	file   Config
	getenv func(string) string
}

func NewStore(fs *afero.Afero, userInfo shared.UserInfo) (*Store, error) {
	configDir, err := userInfo.ConfigDir()
	if err != nil {
		return nil, err
	}

	s := &Store{
		fs:     fs,
		path:   filepath.Join(configDir, fileName),
		getenv: os.Getenv,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	exists, err := s.fs.Exists(s.path)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}
	if !exists {
		return nil
	}

	content, err := s.fs.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(content, &s.file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	return nil
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	c := s.file
	for name, k := range keys {
		if v := strings.TrimSpace(s.getenv(EnvName(name))); v != "" {
			k.set(&c, v)
		}
	}
	if c.Archive.Backend == "" {
		c.Archive.Backend = ArchiveBackendFile
	}
	if c.Credential.Store == "" {
		c.Credential.Store = "keyring"
	}
	return c
}

// Get returns the effective value of key.
func (s *Store) Get(name string) (string, error) {
	k, ok := keys[name]
	if !ok {
		return "", unknownKey(name)
	}
	c := s.Config()
	return k.get(&c), nil
}

// Set validates value and persists it under key. An empty value removes
// the key from the file.
func (s *Store) Set(name, value string) error {
	k, ok := keys[name]
	if !ok {
		return unknownKey(name)
	}

	value = strings.TrimSpace(value)
	if value != "" && len(k.allowed) > 0 && !slices.Contains(k.allowed, value) {
		return fmt.Errorf("invalid value %q for %s: must be one of %s", value, name, strings.Join(k.allowed, ", "))
	}

	k.set(&s.file, value)
	return s.save()
}

func (s *Store) save() error {
	content, err := yaml.Marshal(&s.file)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.fs.WriteFile(s.path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

type Entry struct {
	Key    string `json:"key" yaml:"key" detail:"default"`
	Value  string `json:"value" yaml:"value" detail:"default"`
	Source string `json:"source" yaml:"source" detail:"default"`
}

// List returns every key with its effective value and where it came from.
func (s *Store) List() []Entry {
	effective := s.Config()
	entries := make([]Entry, 0, len(keys))
	for _, name := range Keys() {
		k := keys[name]
		source := "default"
		switch {
		case strings.TrimSpace(s.getenv(EnvName(name))) != "":
			source = "env"
		case k.get(&s.file) != "":
			source = "file"
		}
		entries = append(entries, Entry{Key: name, Value: k.get(&effective), Source: source})
	}
	return entries
}

func unknownKey(name string) error {
	return fmt.Errorf("unknown config key %q (valid keys: %s)", name, strings.Join(Keys(), ", "))
}
