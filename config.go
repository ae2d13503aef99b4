package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is read from an optional TOML file, then overridden by the
// environment.
type Config struct {
	Port        string `toml:"port"`
	ProjectID   string `toml:"gcp_project_id"`
	Region      string `toml:"gcp_region"`
	Model       string `toml:"gemini_model"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	PuzzleFile  string `toml:"puzzle_file"`
	BucketFile  string `toml:"bucket_file"`
	Anniversary string `toml:"anniversary"` // YYYY-MM-DD, also the gate answer
}

// envKeys maps environment variables onto config fields.
var envKeys = []struct {
	name string
	dst  func(*Config) *string
}{
	{"PORT", func(c *Config) *string { return &c.Port }},
	{"GCP_PROJECT_ID", func(c *Config) *string { return &c.ProjectID }},
	{"GCP_REGION", func(c *Config) *string { return &c.Region }},
	{"GEMINI_MODEL", func(c *Config) *string { return &c.Model }},
	{"LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"LOG_FORMAT", func(c *Config) *string { return &c.LogFormat }},
	{"PUZZLE_FILE", func(c *Config) *string { return &c.PuzzleFile }},
	{"BUCKET_FILE", func(c *Config) *string { return &c.BucketFile }},
	{"ANNIVERSARY", func(c *Config) *string { return &c.Anniversary }},
}

func defaultConfig() Config {
	return Config{
		Port:        "8080",
		LogLevel:    "info",
		LogFormat:   "text",
		BucketFile:  "bucket.json",
		Anniversary: "2023-04-22",
	}
}

// loadConfig builds the configuration. path may be empty; a path that does
// not exist is an error.
func loadConfig(path string, getenv func(string) string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
		}
	}

	for _, k := range envKeys {
		if v := getenv(k.name); v != "" {
			*k.dst(&cfg) = v
		}
	}

	if cfg.Port == "" {
		return nil, errors.New("port must not be empty")
	}
	return &cfg, nil
}

// configPath returns the config file named by ANNIVERSARY_CONFIG, if any.
func configPath() string {
	return os.Getenv("ANNIVERSARY_CONFIG")
}
