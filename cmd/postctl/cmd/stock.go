package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock [text ...]",
	Short: "Add approved texts to the pending stock",
	Long: `Append one pending post record per text, in order.

Texts come from arguments or from a file (one post per line; blank lines and
lines starting with '#' are skipped). Validation happens upstream in the
approval step; stock adds what it is given.

Example:
  postctl stock "Shipping v2 today."
  postctl stock --file approved.txt --assign`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath, _ := cmd.Flags().GetString("file")
		assign, _ := cmd.Flags().GetBool("assign")

		texts := args
		if filePath != "" {
			fromFile, err := readTextsFile(filePath)
			if err != nil {
				cmd.Printf("Failed to read %s: %v\n", filePath, err)
				os.Exit(1)
			}
			texts = append(texts, fromFile...)
		}

		if len(texts) == 0 {
			cmd.Println("Error: no texts given (pass arguments or --file)")
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

		created, err := engine.Stock(cmd.Context(), texts)
		if err != nil {
			cmd.Printf("Stock failed: %v\n", err)
			os.Exit(1)
		}
		cmd.Printf("✓ Stocked %d post(s)\n", len(created))

		if assign {
			n, err := engine.AssignSlots(cmd.Context())
			if err != nil {
				cmd.Printf("Slot assignment failed: %v\n", err)
				os.Exit(1)
			}
			cmd.Printf("✓ Assigned slots to %d post(s)\n", n)
		}
	},
}

// readTextsFile reads one post text per line, skipping blanks and '#'
// comment lines.
func readTextsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		texts = append(texts, line)
	}
	return texts, scanner.Err()
}

func init() {
	flags := stockCmd.Flags()
	flags.StringP("file", "f", "", "File with one post text per line")
	flags.Bool("assign", false, "Assign time slots immediately after stocking")

	rootCmd.AddCommand(stockCmd)
}
