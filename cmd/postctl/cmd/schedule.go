package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Assign peak-time slots to unassigned pending posts",
	Long: `Assign each pending post without a scheduled time the next free slot from
the daily slot table, computed as that slot's next occurrence from now.

Already-assigned posts are never touched, so running schedule twice changes
nothing. Posts beyond the table's capacity stay unassigned until a later run.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			cmd.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		engine, err := newEngine(cfg)
		if err != nil {
			cmd.Printf("Failed to initialize: %v\n", err)
			os.Exit(1)
		}

		n, err := engine.AssignSlots(cmd.Context())
		if err != nil {
			cmd.Printf("Slot assignment failed: %v\n", err)
			os.Exit(1)
		}
		if n == 0 {
			cmd.Println("Nothing to assign.")
			return
		}
		cmd.Printf("✓ Assigned slots to %d post(s)\n", n)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
