package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise table records into the search index",
	Long: `Resumes from the persisted checkpoint and pages through the table,
embedding new records and upserting them into the search index.
Interrupting the run is safe: the next invocation continues from the
last completed page.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := openState(cfg)
	if err != nil {
		return err
	}
	defer state.close() //nolint:errcheck

	svc, closer, err := buildSyncService(cfg, state)
	if err != nil {
		return err
	}
	defer closer() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Synchronising table %d into index %q...\n", cfg.Source.TableID, cfg.Index.Name)

	report, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Run %s finished in %s\n", report.RunID, report.Duration.Round(displayPrecision))
	cmd.Printf("  Pages:    %d processed, %d empty or failed (started at page %d of %d)\n",
		report.PagesProcessed, report.PagesEmpty, report.StartPage, report.TotalPages)
	cmd.Printf("  Records:  %d fetched, %d already indexed, %d indexed, %d embedded\n",
		report.RecordsFetched, report.RecordsExisting, report.RecordsIndexed, report.RecordsEmbedded)
	if report.FailureCount > 0 {
		cmd.Printf("  Failures: %d (see 'tablesync failures')\n", report.FailureCount)
	}

	return nil
}
