package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvString returns the trimmed value of name when it is set and non-empty.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses name as an integer when it is set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvDuration parses name as a Go duration such as "250ms".
func EnvDuration(name string) (time.Duration, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// ApplyEnv overrides cfg with any SCRAPER_* variables present.
func ApplyEnv(cfg *Config) error {
	if value, ok := EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok := EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(value)
	}
	if value, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"SCRAPER_PAGES", &cfg.MaxPages},
		{"SCRAPER_WORKERS", &cfg.Workers},
		{"SCRAPER_MAX_RETRIES", &cfg.MaxRetries},
		{"SCRAPER_CACHE_SIZE", &cfg.ProductCacheSize},
	}
	for _, v := range ints {
		value, ok, err := EnvInt(v.name)
		if err != nil {
			return err
		}
		if ok {
			*v.dst = value
		}
	}

	value, ok, err := EnvDuration("SCRAPER_DELAY")
	if err != nil {
		return err
	}
	if ok {
		cfg.Delay = value
	}
	return nil
}
