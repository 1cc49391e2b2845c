package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolkov/fieldwatch"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print fieldwatch version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("fieldwatch version %s\n", fieldwatch.Version)
		return nil
	},
}
