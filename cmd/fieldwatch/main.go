// Command fieldwatch drives source instrumentation and build/run of
// instrumented programs from the command line.
//
// Usage:
//
//	fieldwatch instrument [files...]   # rewrite files, print or write in place
//	fieldwatch build [files...]        # instrument then 'go build'
//	fieldwatch run <file> [args...]    # instrument, build, execute, forward exit code
//	fieldwatch version                 # print version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kolkov/fieldwatch/internal/watchconfig"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
	config *watchconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "fieldwatch",
	Short: "Container modification tracking via source instrumentation",
	Long: `fieldwatch instruments Go source to record writes of tracked fields
and the subsequent mutations of the containers they point at, the way a
debugger's collection breakpoint records them without one attached.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			zapCfg.Encoding = "console"
			zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("fieldwatch: initialize logger: %w", err)
		}

		config, err = watchconfig.Load(configPath)
		if err != nil {
			return fmt.Errorf("fieldwatch: load %s: %w", configPath, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".fieldwatch.yaml", "tracked-field config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(instrumentCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
