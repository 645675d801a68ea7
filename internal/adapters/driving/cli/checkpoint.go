package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/lakeway-labs/tablesync-cli/internal/core/domain"
)

// displayPrecision rounds durations and timestamps for terminal output.
const displayPrecision = time.Millisecond

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or reset the sync checkpoint",
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current checkpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		state, err := openState(cfg)
		if err != nil {
			return err
		}
		defer state.close() //nolint:errcheck

		cp, err := state.checkpoints.Load(cmd.Context())
		if err != nil {
			return err
		}

		if cp.IsZero() {
			cmd.Println("No checkpoint: the next sync starts from page 1.")
			return nil
		}

		cmd.Printf("Last processed page:      %d\n", cp.LastProcessedPage)
		cmd.Printf("Last processed record ID: %d\n", cp.LastProcessedRecordID)
		cmd.Printf("Saved at:                 %s\n", cp.Timestamp.UTC().Format(time.RFC3339))
		cmd.Printf("Next sync resumes at page %d.\n", cp.LastProcessedPage+1)
		return nil
	},
}

var checkpointResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the checkpoint so the next sync starts from page 1",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		state, err := openState(cfg)
		if err != nil {
			return err
		}
		defer state.close() //nolint:errcheck

		if err := state.checkpoints.Save(cmd.Context(), domain.Checkpoint{Timestamp: time.Now().UTC()}); err != nil {
			return err
		}

		cmd.Println("Checkpoint reset. The next sync starts from page 1.")
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointResetCmd)
	rootCmd.AddCommand(checkpointCmd)
}
