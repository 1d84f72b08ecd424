package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"postpilot/internal/scheduler"
	"postpilot/internal/store"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schedule status and upcoming posts",
	Long:  `Report how many posts sit in each lifecycle status and preview the next scheduled posts, soonest first.`,
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

		sum, err := engine.Summarize(cmd.Context())
		if err != nil {
			cmd.Printf("Status failed: %v\n", err)
			os.Exit(1)
		}

		printSummary(cmd, sum)
	},
}

func printSummary(cmd *cobra.Command, sum *scheduler.Summary) {
	cmd.Printf("%sSchedule Status%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sPending:%s       %d\n", colorDim, colorReset, sum.Counts[store.StatusPending])
	cmd.Printf("%sPosted:%s        %d\n", colorDim, colorReset, sum.Counts[store.StatusPosted])
	cmd.Printf("%sFailed:%s        %d\n", colorDim, colorReset, sum.Counts[store.StatusFailed])
	cmd.Printf("%sDry run:%s       %d\n", colorDim, colorReset, sum.Counts[store.StatusDryRun])
	cmd.Printf("%sNo publisher:%s  %d\n", colorDim, colorReset, sum.Counts[store.StatusNoPublisher])
	cmd.Printf("%sTotal:%s         %d\n", colorDim, colorReset, sum.Total)

	if len(sum.Upcoming) == 0 {
		return
	}

	cmd.Printf("\n%sNext scheduled posts:%s\n", colorBold, colorReset)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WHEN\tPERIOD\tID\tTEXT")
	for _, rec := range sum.Upcoming {
		text := rec.Text
		if len([]rune(text)) > 40 {
			text = string([]rune(text)[:40]) + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rec.ScheduledTime.Format(time.RFC3339), rec.Period, shortID(rec.ID.String()), text)
	}
	w.Flush()
}

// shortID keeps summary tables readable; the full UUID shows in the store file.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func statusIcon(status store.Status) string {
	switch status {
	case store.StatusPosted:
		return colorGreen + "✓" + colorReset
	case store.StatusFailed:
		return colorRed + "✗" + colorReset
	case store.StatusPending:
		return colorCyan + "◯" + colorReset
	case store.StatusDryRun:
		return colorDim + "≈" + colorReset
	default:
		return "•"
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
