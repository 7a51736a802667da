// Package main is the entry point for the asset rendition pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/adobe/asset-compute-pipeline/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cmd.Exit(err)
	}
}
