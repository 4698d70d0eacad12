package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/psantana5/hibernate-retry/internal/audit"
	"github.com/psantana5/hibernate-retry/internal/power"
)

const (
	DefaultLogFile      = "/var/log/hibernate-retry/hibernate.log"
	DefaultRetryLogFile = "/var/log/hibernate-retry/retry.log"
	DefaultLockFile     = "/run/lock/hibernate-retry.lock"
	DefaultConfigFile   = "/etc/hibernate-retry/config.yaml"
	DefaultKillBudget   = 3
)

// DefaultWhitelist names processes that are never signalled. systemd-sleep
// and friends write the power state themselves and show up in every audit
// trail of a hibernation attempt.
var DefaultWhitelist = []string{
	"systemd",
	"systemd-sleep",
	"systemd-logind",
	"systemd-journal",
	"systemd-udevd",
	"systemd-hiberna",
	"init",
	"kthreadd",
	"auditd",
	"dbus-daemon",
	"dbus-broker",
	"polkitd",
	"sshd",
	"NetworkManager",
	"Xorg",
	"Xwayland",
	"gnome-shell",
	"kwin_wayland",
	"kwin_x11",
	"gdm",
	"sddm",
	"lightdm",
	"hibretry",
}

// Config represents the complete configuration for one run. It is built once
// at startup and never mutated afterwards.
type Config struct {
	LogFile      string `yaml:"log_file"`
	RetryLogFile string `yaml:"retry_log_file"`
	LogLevel     string `yaml:"log_level"`

	KillBudget int      `yaml:"kill_budget"`
	Whitelist  []string `yaml:"whitelist"`

	AuditKey   string `yaml:"audit_key"`
	AuditSince string `yaml:"audit_since"` // ausearch -ts value, empty = all

	HibernateMethod  string `yaml:"hibernate_method"`  // systemctl or sysfs
	HibernateTimeout string `yaml:"hibernate_timeout"` // e.g. "5m", empty = block
	AuditTimeout     string `yaml:"audit_timeout"`     // e.g. "30s", empty = block

	MetricsFile string `yaml:"metrics_file"` // node_exporter textfile, empty = disabled
	LockFile    string `yaml:"lock_file"`

	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig configures optional OTLP span export
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogFile:         DefaultLogFile,
		RetryLogFile:    DefaultRetryLogFile,
		LogLevel:        "info",
		KillBudget:      DefaultKillBudget,
		Whitelist:       slices.Clone(DefaultWhitelist),
		AuditKey:        audit.DefaultKey,
		HibernateMethod: power.MethodSystemctl,
		LockFile:        DefaultLockFile,
	}
}

// LoadFile loads configuration from a YAML file on top of Default().
// Keys absent from the file keep their defaults; a whitelist in the file
// replaces the default whitelist.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for values the run cannot work with
func (c *Config) Validate() error {
	if c.KillBudget < 0 {
		return fmt.Errorf("kill_budget must be >= 0, got %d", c.KillBudget)
	}
	if c.AuditKey == "" {
		return fmt.Errorf("audit_key must not be empty")
	}
	if c.RetryLogFile == "" {
		return fmt.Errorf("retry_log_file must not be empty")
	}
	for i, name := range c.Whitelist {
		if name == "" {
			return fmt.Errorf("whitelist entry %d is empty", i)
		}
	}
	if _, err := power.New(c.HibernateMethod); err != nil {
		return err
	}
	if _, err := c.HibernateTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.AuditTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// HibernateTimeoutDuration parses hibernate_timeout; zero means no timeout
func (c *Config) HibernateTimeoutDuration() (time.Duration, error) {
	return parseTimeout("hibernate_timeout", c.HibernateTimeout)
}

// AuditTimeoutDuration parses audit_timeout; zero means no timeout
func (c *Config) AuditTimeoutDuration() (time.Duration, error) {
	return parseTimeout("audit_timeout", c.AuditTimeout)
}

func parseTimeout(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return d, nil
}

// YAML renders the configuration as a YAML document
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AuditRule returns the auditctl rule that records writes to the power-state
// attribute under the configured key.
func (c *Config) AuditRule() string {
	return fmt.Sprintf("-w %s -p w -k %s", power.DefaultStatePath, c.AuditKey)
}

// Example configuration as a string
const ExampleConfig = `# hibernate-retry configuration

# General log and the append-only retry narrative
# (LOG_FILE and HIBERNATION_RETRY_LOG override these)
log_file: /var/log/hibernate-retry/hibernate.log
retry_log_file: /var/log/hibernate-retry/retry.log
log_level: info

# Maximum number of distinct process names killed per remediation pass
kill_budget: 3

# Processes that are never killed (exact, case-sensitive command names).
# Replaces the built-in list when present.
whitelist:
  - systemd
  - systemd-sleep
  - systemd-logind
  - init
  - auditd
  - dbus-daemon
  - sshd
  - Xorg
  - gnome-shell

# Audit rule key of the power-state watch:
#   auditctl -w /sys/power/state -p w -k hibernate-issue
audit_key: hibernate-issue
audit_since: ""          # ausearch -ts value, e.g. "recent" or "boot"

# How to hibernate: systemctl (systemctl hibernate) or sysfs (/sys/power/state)
hibernate_method: systemctl
hibernate_timeout: ""    # empty = wait until the call returns
audit_timeout: ""

# node_exporter textfile collector output, empty disables
metrics_file: ""

lock_file: /run/lock/hibernate-retry.lock

tracing:
  endpoint: ""           # OTLP/HTTP endpoint, empty disables
`
