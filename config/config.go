// Package config loads and saves the gridcalc settings file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSheet = "default"
	DefaultModel = "gemini-2.5-flash"
	DefaultAIURL = "https://generativelanguage.googleapis.com"
)

// AI holds the settings of the content generator.
type AI struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
	URL    string `yaml:"url,omitempty"`
}

type Config struct {
	// Sheet is the sheet used by commands that do not name one.
	Sheet string `yaml:"sheet,omitempty"`
	AI    AI     `yaml:"ai,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Sheet: DefaultSheet,
		AI:    AI{Model: DefaultModel, URL: DefaultAIURL},
	}
}

func dir() (string, error) {
	if v := os.Getenv("GRIDCALC_CONFIG_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gridcalc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gridcalc"), nil
}

// Path returns the location of the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the config file at Path and applies environment overrides.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads the config file at p, fills unset fields with defaults and applies environment
// overrides. A missing file is not an error.
func LoadFile(p string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, err
		}
		cfg.merge(fileCfg)
	}
	cfg.merge(fromEnv())
	return cfg, nil
}

func fromEnv() Config {
	return Config{
		Sheet: os.Getenv("GRIDCALC_SHEET"),
		AI: AI{
			APIKey: os.Getenv("GRIDCALC_AI_API_KEY"),
			Model:  os.Getenv("GRIDCALC_AI_MODEL"),
			URL:    os.Getenv("GRIDCALC_AI_URL"),
		},
	}
}

// merge overwrites the fields of c that are set in o.
func (c *Config) merge(o Config) {
	if o.Sheet != "" {
		c.Sheet = o.Sheet
	}
	if o.AI.APIKey != "" {
		c.AI.APIKey = o.AI.APIKey
	}
	if o.AI.Model != "" {
		c.AI.Model = o.AI.Model
	}
	if o.AI.URL != "" {
		c.AI.URL = o.AI.URL
	}
}

// Save writes the config to Path atomically using a temp file + rename.
func Save(cfg Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, cfg)
}

// SaveFile writes the config to p atomically using a temp file + rename. The file may hold an API
// key, so it is only readable by its owner.
func SaveFile(p string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
