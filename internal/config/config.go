package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Provider struct {
		BaseURL string `yaml:"baseUrl"`
		Timeout string `yaml:"timeout"`
	} `yaml:"provider"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Round struct {
		Size             int    `yaml:"size"`
		CountdownSeconds int    `yaml:"countdownSeconds"`
		PreviewSeconds   int    `yaml:"previewSeconds"`
		OpenSeconds      int    `yaml:"openSeconds"`
		RevealSeconds    int    `yaml:"revealSeconds"`
		BaseMaxPoints    int    `yaml:"baseMaxPoints"`
		PointsIncrement  int    `yaml:"pointsIncrement"`
		MinPoints        int    `yaml:"minPoints"`
		StreakBonus      int    `yaml:"streakBonus"`
		CacheTTL         string `yaml:"cacheTtl"`
	} `yaml:"round"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Seconds converts a configured second count, keeping the fallback for zero
// or negative values.
func Seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
