// Package config loads server configuration from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	DownloadDir string `yaml:"download_dir"`
	ExportDir   string `yaml:"export_dir"`

	StoreType  string `yaml:"store_type"` // "file" or "sqlite"
	JobsFile   string `yaml:"jobs_file"`
	SQLitePath string `yaml:"sqlite_path"`

	OllamaURL        string `yaml:"ollama_url"`
	OllamaModel      string `yaml:"ollama_model"`
	DefaultNumTracks int    `yaml:"default_num_tracks"`

	AudioFormat  string `yaml:"audio_format"`
	AudioQuality string `yaml:"audio_quality"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:       ":8080",
		MetricsAddr:      ":9090",
		DownloadDir:      "downloads",
		ExportDir:        "exports",
		StoreType:        "file",
		JobsFile:         "jobs.json",
		SQLitePath:       "tunepull.db",
		OllamaURL:        "http://localhost:11434",
		OllamaModel:      "llama3",
		DefaultNumTracks: 30,
		AudioFormat:      "mp3",
		AudioQuality:     "320K",
		LogLevel:         "info",
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
