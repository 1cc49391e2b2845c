package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/kolkov/fieldwatch/internal/rewrite"
	"github.com/kolkov/fieldwatch/internal/watchconfig"
)

// fieldwatchModulePath mirrors rewrite.FieldwatchImportPath; kept separate
// so this file has no import-cycle-prone dependency on package rewrite
// beyond InstrumentFile itself.
const fieldwatchModulePath = "github.com/kolkov/fieldwatch"

// workspace is a scratch directory holding instrumented sources plus a
// go.mod overlay that resolves the fieldwatch import to this binary's own
// module, so `go build`/`go run` succeed without the caller's project
// having fieldwatch in its go.mod.
type workspace struct {
	dir    string
	srcDir string
}

func createWorkspace() (*workspace, error) {
	dir, err := os.MkdirTemp("", "fieldwatch-build-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("create src dir: %w", err)
	}
	return &workspace{dir: dir, srcDir: srcDir}, nil
}

func (w *workspace) cleanup() {
	if w.dir != "" {
		_ = os.RemoveAll(w.dir)
	}
}

// instrumentInto rewrites each source file against cfg and writes the
// result into the workspace's src directory, flattening directory
// structure the same way the teacher's build command does.
func (w *workspace) instrumentInto(files []string, cfg *watchconfig.Config) error {
	for _, path := range files {
		result, err := rewrite.InstrumentFile(path, nil, cfg)
		if err != nil {
			return fmt.Errorf("instrument %s: %w", path, err)
		}
		outPath := filepath.Join(w.srcDir, filepath.Base(path))
		if err := os.WriteFile(outPath, []byte(result.Code), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		if logger != nil {
			logger.Debug("instrumented for build",
				zap.String("path", path),
				zap.Int("field_writes", result.Stats.FieldWritesInstrumented))
		}
	}
	return nil
}

// setupModuleOverlay writes a go.mod in the workspace root that requires
// this fieldwatch module and replaces it with the on-disk location of the
// binary's own module, found by findFieldwatchModuleRoot — the same
// strategy the teacher uses to tell development checkouts from published
// installs.
func (w *workspace) setupModuleOverlay() error {
	projectRoot, err := findFieldwatchModuleRoot()
	if err != nil {
		// Published mode: fieldwatch is presumably already resolvable via
		// the module cache, so no overlay is needed.
		return nil
	}

	var sb strings.Builder
	sb.WriteString("module fieldwatch-instrumented\n\n")
	sb.WriteString("go 1.24\n\n")
	fmt.Fprintf(&sb, "require %s v0.0.0\n\n", fieldwatchModulePath)
	fmt.Fprintf(&sb, "replace %s => %s\n", fieldwatchModulePath, projectRoot)

	goModPath := filepath.Join(w.dir, "go.mod")
	if err := os.WriteFile(goModPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write go.mod overlay: %w", err)
	}

	tidy := exec.Command("go", "mod", "tidy")
	tidy.Dir = w.dir
	tidy.Stdout = os.Stdout
	tidy.Stderr = os.Stderr
	if err := tidy.Run(); err != nil {
		return fmt.Errorf("go mod tidy: %w", err)
	}
	return nil
}

// build runs 'go build' against the workspace's instrumented sources.
func (w *workspace) build(outputPath string, extraFlags []string) error {
	args := []string{"build"}
	if outputPath != "" {
		args = append(args, "-o", outputPath)
	}
	args = append(args, extraFlags...)
	args = append(args, ".")

	cmd := exec.Command("go", args...)
	cmd.Dir = w.srcDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// findFieldwatchModuleRoot walks up from the current working directory,
// then the running executable's directory, looking for a go.mod that
// declares fieldwatchModulePath — the marker that we're running from a
// development checkout rather than an installed binary.
func findFieldwatchModuleRoot() (string, error) {
	for _, start := range candidateStartDirs() {
		dir := start
		for {
			modPath := filepath.Join(dir, "go.mod")
			if data, err := os.ReadFile(modPath); err == nil {
				if mf, err := modfile.Parse(modPath, data, nil); err == nil {
					if mf.Module != nil && mf.Module.Mod.Path == fieldwatchModulePath {
						return dir, nil
					}
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return "", fmt.Errorf("fieldwatch module root not found")
}

func candidateStartDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}
