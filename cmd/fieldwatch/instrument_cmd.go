package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kolkov/fieldwatch/internal/rewrite"
)

var writeInPlace bool

var instrumentCmd = &cobra.Command{
	Use:   "instrument [files...]",
	Short: "Rewrite tracked field writes to call TransformAndSaveFieldWrite",
	Long: `instrument parses each file, inserts a fieldwatch.TransformAndSaveFieldWrite
call before every assignment to a field named in the config, and by default
prints the result to stdout. Pass -w to overwrite the file in place.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			result, err := rewrite.InstrumentFile(path, nil, config)
			if err != nil {
				return fmt.Errorf("instrument %s: %w", path, err)
			}
			logger.Debug("instrumented file",
				zap.String("path", path),
				zap.Int("field_writes", result.Stats.FieldWritesInstrumented))

			if !writeInPlace {
				fmt.Print(result.Code)
				continue
			}
			if result.Stats.FieldWritesInstrumented == 0 {
				continue
			}
			if err := os.WriteFile(path, []byte(result.Code), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Printf("instrumented %s (%d writes)\n", path, result.Stats.FieldWritesInstrumented)
		}
		return nil
	},
}

func init() {
	instrumentCmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "overwrite the source file instead of printing it")
}
