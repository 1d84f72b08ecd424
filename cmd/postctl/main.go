// Package main is the entry point for the postpilot CLI.
// The CLI is the operator tool for stocking, scheduling, and executing posts.
package main

import (
	"os"

	"postpilot/cmd/postctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
