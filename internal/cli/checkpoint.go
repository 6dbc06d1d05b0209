package cli

import (
	"fmt"

	"github.com/moatscan/moatscan/internal/checkpoint"
	"github.com/spf13/cobra"
)

var checkpointFile string

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect batch checkpoint state",
	Long: `Inspect the checkpoint file that makes pipeline runs resumable.
Succeeded items are skipped on re-run; failed items are retried.`,
}

var checkpointStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show succeeded and failed item counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := checkpoint.NewManager(checkpointFile)
		if err != nil {
			return err
		}
		succeeded, failed := m.Stats()
		fmt.Printf("Checkpoint: %s\n", checkpointFile)
		fmt.Printf("  succeeded  %d\n", succeeded)
		fmt.Printf("  failed     %d\n", failed)
		return nil
	},
}

var checkpointFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List failed item ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := checkpoint.NewManager(checkpointFile)
		if err != nil {
			return err
		}
		ids := m.IDs(checkpoint.StatusFailed)
		if len(ids) == 0 {
			fmt.Println("no failed items")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointStatsCmd)
	checkpointCmd.AddCommand(checkpointFailedCmd)

	checkpointCmd.PersistentFlags().StringVar(&checkpointFile, "file", "moatscan-output/checkpoint.json", "checkpoint file path")
}
