package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List recorded sync failures",
	Long: `Lists every failure recorded across sync runs: records whose
enrichment failed, pages that could not be fetched, and index items
the search index rejected. The log is append-only and purely
diagnostic; entries do not block future syncs.`,
	RunE: runFailures,
}

func init() {
	rootCmd.AddCommand(failuresCmd)
}

func runFailures(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := openState(cfg)
	if err != nil {
		return err
	}
	defer state.close() //nolint:errcheck

	failures, err := state.failures.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(failures) == 0 {
		cmd.Println("No failures recorded.")
		return nil
	}

	cmd.Printf("%d failure(s) recorded:\n", len(failures))
	for _, f := range failures {
		when := ""
		if !f.Time.IsZero() {
			when = f.Time.UTC().Format(time.RFC3339) + "  "
		}
		run := ""
		if f.RunID != "" {
			run = " (run " + f.RunID + ")"
		}
		cmd.Printf("  %s%s: %s%s\n", when, f.ID, f.Error, run)
	}
	return nil
}
