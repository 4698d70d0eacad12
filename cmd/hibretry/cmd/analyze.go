package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/hibernate-retry/internal/remediate"
	"github.com/psantana5/hibernate-retry/pkg/logging"
	"github.com/psantana5/hibernate-retry/pkg/tracing"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show what a remediation pass would kill, without killing anything",
	Long: `Analyze queries the audit trail and applies the whitelist and kill budget
exactly like run does after a failed attempt, but sends no signals and writes
nothing to the retry log.

Example:
  hibretry analyze
  hibretry analyze --audit-since boot --json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output plan as JSON")
}

type analyzeOutput struct {
	*remediate.Report
	Budget     int    `json:"budget"`
	QueryError string `json:"query_error,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), false)
	engine, err := buildEngine(cfg, nil, logger, nil, tracing.Noop())
	if err != nil {
		return err
	}

	plan := engine.Plan(cmd.Context())

	if analyzeJSON {
		out := analyzeOutput{Report: plan, Budget: cfg.KillBudget}
		if plan.QueryErr != nil {
			out.QueryError = plan.QueryErr.Error()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if plan.QueryErr != nil {
		return fmt.Errorf("audit query for key %q failed: %w", cfg.AuditKey, plan.QueryErr)
	}
	if len(plan.Candidates) == 0 {
		fmt.Printf("No processes recorded under audit key %q.\n", cfg.AuditKey)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Process", "Decision", "PIDs", "Detail")
	for _, d := range plan.Decisions {
		table.Append(d.Name, d.Action.String(), remediate.FormatPIDs(d.PIDs), d.Detail)
	}
	table.Render()

	fmt.Printf("\nCandidates: %d, would kill: %d (budget %d)\n",
		len(plan.Candidates), plan.Count(remediate.ActionWouldKill), cfg.KillBudget)
	return nil
}
