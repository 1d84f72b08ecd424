package cmd

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var postNowCmd = &cobra.Command{
	Use:   "post-now [record_id]",
	Short: "Force a pending post due immediately",
	Long: `Rewrite a pending post's scheduled time to the past so the next execution
pass picks it up. Other posts are untouched. With --all, every pending post
is forced due instead.

With --execute, an execution pass runs in the same invocation, so the post
goes out immediately.

Example:
  postctl post-now 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --execute`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		execute, _ := cmd.Flags().GetBool("execute")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if !all && len(args) == 0 {
			cmd.Println("Error: give a record ID or --all")
			os.Exit(1)
		}
		if all && len(args) > 0 {
			cmd.Println("Error: --all and a record ID are mutually exclusive")
			os.Exit(1)
		}

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

		if all {
			n, err := engine.ForceImmediateAll(cmd.Context())
			if err != nil {
				cmd.Printf("Force failed: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("✓ Forced %d post(s) due\n", n)
		} else {
			id, err := uuid.Parse(args[0])
			if err != nil {
				cmd.Printf("Invalid record ID %q: %v\n", args[0], err)
				os.Exit(1)
			}
			if err := engine.ForceImmediate(cmd.Context(), id); err != nil {
				cmd.Printf("Force failed: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("✓ Forced %s due\n", args[0])
		}

		if execute {
			results, err := engine.ExecuteDue(cmd.Context(), dryRun)
			if err != nil {
				cmd.Printf("Execution failed: %v\n", err)
				os.Exit(1)
			}
			for _, res := range results {
				printResult(cmd, res)
			}
			cmd.Printf("\n%d post(s) attempted\n", len(results))
		}
	},
}

func init() {
	flags := postNowCmd.Flags()
	flags.Bool("all", false, "Force every pending post due")
	flags.Bool("execute", false, "Run an execution pass right after forcing")
	flags.Bool("dry-run", false, "When executing, mark posts dry_run without publishing")

	rootCmd.AddCommand(postNowCmd)
}
