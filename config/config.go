// Package config loads runtime settings from an optional YAML file with
// environment-variable overrides. Everything has a working default so the
// demo runs with no file and no env at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	// CallDelay is the simulated wallet-signature delay, ConfirmDelay the
	// simulated block-confirmation delay.
	CallDelay    time.Duration
	ConfirmDelay time.Duration

	// OpenAIKey enables the assistant gateway when set. OpenAIBaseURL
	// points at a compatible endpoint, e.g. a proxy.
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// DatabaseURL enables the Postgres timeline archive when set.
	DatabaseURL string

	// SessionSecret signs wallet session tokens.
	SessionSecret string
}

type configFile struct {
	Simulator struct {
		CallDelayMS    int `yaml:"call_delay_ms"`
		ConfirmDelayMS int `yaml:"confirm_delay_ms"`
	} `yaml:"simulator"`
	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"openai"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Session struct {
		Secret string `yaml:"secret"`
	} `yaml:"session"`
}

// Load reads the YAML file at path (missing file is fine) and applies env
// overrides on top.
func Load(path string) (Config, error) {
	cfg := Config{
		CallDelay:     1500 * time.Millisecond,
		ConfirmDelay:  3 * time.Second,
		SessionSecret: "flowhub-dev-secret",
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("config: parse file: %w", unmarshalErr)
		}
		if f.Simulator.CallDelayMS > 0 {
			cfg.CallDelay = time.Duration(f.Simulator.CallDelayMS) * time.Millisecond
		}
		if f.Simulator.ConfirmDelayMS > 0 {
			cfg.ConfirmDelay = time.Duration(f.Simulator.ConfirmDelayMS) * time.Millisecond
		}
		if f.OpenAI.APIKey != "" {
			cfg.OpenAIKey = f.OpenAI.APIKey
		}
		if f.OpenAI.Model != "" {
			cfg.OpenAIModel = f.OpenAI.Model
		}
		if f.OpenAI.BaseURL != "" {
			cfg.OpenAIBaseURL = f.OpenAI.BaseURL
		}
		if f.Database.URL != "" {
			cfg.DatabaseURL = f.Database.URL
		}
		if f.Session.Secret != "" {
			cfg.SessionSecret = f.Session.Secret
		}
	}

	cfg.CallDelay = time.Duration(envInt("SIM_CALL_DELAY_MS", int(cfg.CallDelay.Milliseconds()))) * time.Millisecond
	cfg.ConfirmDelay = time.Duration(envInt("SIM_CONFIRM_DELAY_MS", int(cfg.ConfirmDelay.Milliseconds()))) * time.Millisecond
	cfg.OpenAIKey = envOrDefault("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.OpenAIModel = envOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = envOrDefault("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.SessionSecret = envOrDefault("SESSION_SECRET", cfg.SessionSecret)

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
