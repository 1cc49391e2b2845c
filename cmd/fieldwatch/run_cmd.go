package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file> [program args...]",
	Short: "Instrument, build, and execute a program",
	Long: `run instruments the given source file, builds it to a temporary
binary, executes it with the remaining arguments forwarded, and exits with
the child process's exit code.`,
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceFile, programArgs := args[0], args[1:]

		tempBinary, err := os.CreateTemp("", "fieldwatch-run-*")
		if err != nil {
			return fmt.Errorf("create temp binary: %w", err)
		}
		tempPath := tempBinary.Name()
		_ = tempBinary.Close()
		defer func() { _ = os.Remove(tempPath) }()

		if _, err := buildInstrumented([]string{sourceFile}, tempPath); err != nil {
			return err
		}

		exitCode := executeBinary(tempPath, programArgs)
		os.Exit(exitCode)
		return nil
	},
}

func executeBinary(binaryPath string, args []string) int {
	cmd := exec.Command(binaryPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "fieldwatch run: %v\n", err)
		return 1
	}
	return 0
}
