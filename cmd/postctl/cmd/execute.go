package cmd

import (
	"os"

	"postpilot/internal/scheduler"
	"postpilot/internal/store"

	"github.com/spf13/cobra"
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute all posts that are due right now",
	Long: `Run a single execution pass: every pending post whose scheduled time is at
or before now gets exactly one publish attempt. A failed publish marks that
post failed and the rest of the batch is still attempted. Failed posts are
not retried automatically; re-stock them explicitly if wanted.

With --dry-run, due posts are marked dry_run and the publisher is never
called.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

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

		results, err := engine.ExecuteDue(cmd.Context(), dryRun)
		if err != nil {
			cmd.Printf("Execution failed: %v\n", err)
			os.Exit(1)
		}

		if len(results) == 0 {
			cmd.Println("📭 Nothing due right now.")
			return
		}

		for _, res := range results {
			printResult(cmd, res)
		}
		cmd.Printf("\n%d post(s) attempted\n", len(results))
	},
}

func printResult(cmd *cobra.Command, res scheduler.Result) {
	switch res.Status {
	case store.StatusPosted:
		cmd.Printf("%s %s %s(id %s)%s\n", statusIcon(res.Status), res.Text, colorDim, res.PublishID, colorReset)
	case store.StatusFailed:
		cmd.Printf("%s %s %s%s%s\n", statusIcon(res.Status), res.Text, colorRed, res.Err, colorReset)
	default:
		cmd.Printf("%s %s %s[%s]%s\n", statusIcon(res.Status), res.Text, colorDim, res.Status, colorReset)
	}
}

func init() {
	executeCmd.Flags().Bool("dry-run", false, "Mark due posts dry_run without publishing")

	rootCmd.AddCommand(executeCmd)
}
