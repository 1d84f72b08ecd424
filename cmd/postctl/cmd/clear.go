package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove completed posts from the store",
	Long: `Remove every post that reached a terminal status (posted, failed, dry_run,
no_publisher). Pending posts keep their order and content. The history log is
never touched.

With --pending the operation inverts: pending posts are dropped and terminal
ones kept. Use it to discard a stocked batch that should not go out.`,
	Run: func(cmd *cobra.Command, args []string) {
		pending, _ := cmd.Flags().GetBool("pending")

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

		var removed int
		if pending {
			removed, err = engine.ClearPending(cmd.Context())
		} else {
			removed, err = engine.ClearCompleted(cmd.Context())
		}
		if err != nil {
			cmd.Printf("Clear failed: %v\n", err)
			os.Exit(1)
		}

		if removed == 0 {
			cmd.Println("Nothing to clear.")
			return
		}
		cmd.Printf("✓ Removed %d post(s)\n", removed)
	},
}

func init() {
	clearCmd.Flags().Bool("pending", false, "Remove pending posts instead of completed ones")

	rootCmd.AddCommand(clearCmd)
}
