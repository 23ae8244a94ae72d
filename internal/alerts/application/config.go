package application

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRiskThreshold applies when no department override matches.
const DefaultRiskThreshold = 70

// Config defines alerting configuration.
type Config struct {
	DefaultThreshold     int            `yaml:"default_threshold"`
	DepartmentThresholds map[string]int `yaml:"departments"`
	WebhookURL           string         `yaml:"webhook_url"`
	NotifyTemplate       string         `yaml:"notify_template"`
	NotifyCooldown       time.Duration  `yaml:"notify_cooldown"`
	NotifyTimeout        time.Duration  `yaml:"notify_timeout"`
}

// LoadConfig loads alert config from yaml or env. ALERTS_CONFIG points
// at a yaml file; env vars fill the rest.
func LoadConfig() (Config, error) {
	cfg := Config{
		DefaultThreshold: getenvIntDefault("ALERT_RISK_THRESHOLD", DefaultRiskThreshold),
		WebhookURL:       os.Getenv("ALERT_WEBHOOK_URL"),
		NotifyTemplate:   os.Getenv("ALERT_NOTIFY_TEMPLATE"),
		NotifyCooldown:   getenvDuration("ALERT_NOTIFY_COOLDOWN", 0),
		NotifyTimeout:    getenvDuration("ALERT_NOTIFY_TIMEOUT", 5*time.Second),
	}

	if path := os.Getenv("ALERTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DefaultThreshold <= 0 || cfg.DefaultThreshold > 100 {
		return cfg, errors.New("alerts config: default threshold out of range")
	}
	for dept, threshold := range cfg.DepartmentThresholds {
		if threshold <= 0 || threshold > 100 {
			return cfg, errors.New("alerts config: threshold out of range for " + dept)
		}
	}
	return cfg, nil
}

// ThresholdFor resolves the threshold for a department.
func (c Config) ThresholdFor(department string) int {
	if threshold, ok := c.DepartmentThresholds[department]; ok {
		return threshold
	}
	if c.DefaultThreshold > 0 {
		return c.DefaultThreshold
	}
	return DefaultRiskThreshold
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
