package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/psantana5/hibernate-retry/internal/config"
)

const defaultConfigHint = config.DefaultConfigFile

// loadConfig builds the run configuration.
// Precedence: flags > environment > policy file > defaults.
func loadConfig(v *viper.Viper, path string) (*config.Config, error) {
	cfg, err := loadBase(path)
	if err != nil {
		return nil, err
	}

	overlayString(v, "log_file", &cfg.LogFile)
	overlayString(v, "retry_log_file", &cfg.RetryLogFile)
	overlayString(v, "log_level", &cfg.LogLevel)
	overlayString(v, "audit_key", &cfg.AuditKey)
	overlayString(v, "audit_since", &cfg.AuditSince)
	overlayString(v, "hibernate_method", &cfg.HibernateMethod)
	overlayString(v, "hibernate_timeout", &cfg.HibernateTimeout)
	overlayString(v, "audit_timeout", &cfg.AuditTimeout)
	overlayString(v, "metrics_file", &cfg.MetricsFile)
	overlayString(v, "lock_file", &cfg.LockFile)
	overlayString(v, "tracing.endpoint", &cfg.Tracing.Endpoint)

	if v.IsSet("kill_budget") {
		raw := v.GetString("kill_budget")
		budget, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid kill budget %q: %w", raw, err)
		}
		cfg.KillBudget = budget
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadBase reads the policy file. Without --config the default path is used
// when it exists; an explicit path must exist.
func loadBase(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if _, err := os.Stat(config.DefaultConfigFile); err == nil {
		return config.LoadFile(config.DefaultConfigFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", config.DefaultConfigFile, err)
	}
	return config.Default(), nil
}

func overlayString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}
