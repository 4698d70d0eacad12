package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "dev"

// ErrNotHibernated is returned when a run ends without hibernating. The
// outcome is already in the logs, so main only sets the exit status.
var ErrNotHibernated = errors.New("machine did not hibernate")

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hibretry",
	Short: "Hibernate, and retry once after killing the processes that blocked it",
	Long: `hibretry triggers hibernation. When it fails, the audit trail of writes to
/sys/power/state (key "hibernate-issue") names the processes involved; a
bounded number of them that are not whitelisted are killed with SIGKILL and
hibernation is retried exactly once. Every step is appended to the retry log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

// settingFlags maps configuration keys to their persistent flags
var settingFlags = map[string]string{
	"log_file":          "log-file",
	"retry_log_file":    "retry-log",
	"log_level":         "log-level",
	"kill_budget":       "kill-budget",
	"audit_key":         "audit-key",
	"audit_since":       "audit-since",
	"hibernate_method":  "method",
	"hibernate_timeout": "hibernate-timeout",
	"audit_timeout":     "audit-timeout",
	"metrics_file":      "metrics-file",
	"lock_file":         "lock-file",
}

// settingEnv maps configuration keys to their environment variables
var settingEnv = map[string]string{
	"log_file":         "LOG_FILE",
	"retry_log_file":   "HIBERNATION_RETRY_LOG",
	"log_level":        "LOG_LEVEL",
	"kill_budget":      "HIBERNATION_KILL_BUDGET",
	"audit_key":        "HIBERNATION_AUDIT_KEY",
	"audit_since":      "HIBERNATION_AUDIT_SINCE",
	"hibernate_method": "HIBERNATION_METHOD",
	"metrics_file":     "HIBERNATION_METRICS_FILE",
	"tracing.endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "policy file (default "+defaultConfigHint+" when present)")
	addSettingFlags(pf)
	bindSettings(viper.GetViper(), pf)
}

// initConfig binds environment variables. The policy file itself is read by
// loadConfig with the config package, so only flags and env go through viper.
func initConfig() {
	bindEnv(viper.GetViper())
}

func addSettingFlags(fs *pflag.FlagSet) {
	fs.String("log-file", "", "general log file (env LOG_FILE)")
	fs.String("retry-log", "", "append-only retry log (env HIBERNATION_RETRY_LOG)")
	fs.String("log-level", "", "general log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.Int("kill-budget", 0, "max distinct process names killed per pass (env HIBERNATION_KILL_BUDGET)")
	fs.String("audit-key", "", "audit rule key to query (env HIBERNATION_AUDIT_KEY)")
	fs.String("audit-since", "", "ausearch -ts start, e.g. recent or boot (env HIBERNATION_AUDIT_SINCE)")
	fs.String("method", "", "hibernate method: systemctl or sysfs (env HIBERNATION_METHOD)")
	fs.String("hibernate-timeout", "", "per-attempt hibernate timeout, e.g. 5m (default: wait)")
	fs.String("audit-timeout", "", "audit query timeout, e.g. 30s (default: wait)")
	fs.String("metrics-file", "", "node_exporter textfile to write (env HIBERNATION_METRICS_FILE)")
	fs.String("lock-file", "", "single-instance lock file")
}

func bindSettings(v *viper.Viper, fs *pflag.FlagSet) {
	for key, flag := range settingFlags {
		v.BindPFlag(key, fs.Lookup(flag))
	}
}

func bindEnv(v *viper.Viper) {
	for key, env := range settingEnv {
		v.BindEnv(key, env)
	}
}
