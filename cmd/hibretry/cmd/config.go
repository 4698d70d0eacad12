package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/hibernate-retry/internal/config"
	"github.com/psantana5/hibernate-retry/pkg/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
	Long:  `Commands for writing the policy file, the audit rule and the logrotate stanza.`,
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example policy file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.ExampleConfig)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Prints the configuration after defaults, policy file, environment and flags are applied.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

var configAuditRuleCmd = &cobra.Command{
	Use:   "audit-rule",
	Short: "Print the auditctl rule that records power-state writes",
	Long: `Prints the audit watch rule whose records run and analyze search.

Install:
  hibretry config audit-rule | sudo tee /etc/audit/rules.d/hibernate-retry.rules
  sudo augenrules --load`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(cfg.AuditRule())
		return nil
	},
}

var configLogrotateCmd = &cobra.Command{
	Use:   "logrotate",
	Short: "Print a logrotate stanza for the general and retry logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		fmt.Print(logging.GenerateLogrotateConfig(cfg.LogFile, cfg.RetryLogFile))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configExampleCmd, configShowCmd, configAuditRuleCmd, configLogrotateCmd)
}
