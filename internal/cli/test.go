package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/notelog/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r TestResult) String() string {
	if r.Total == 0 {
		return "No scenarios found.\n"
	}
	var b strings.Builder
	for _, s := range r.Scenarios {
		if s.Pass {
			fmt.Fprintf(&b, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		b.WriteString("✓ All scenarios passed\n")
	}
	return b.String()
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run annotation scenarios",
		Long: `Run YAML scenarios through a fresh notebook, checking step expectations,
final assertions and, when present, the golden summary stored in
golden/<name>.golden beside the scenario (or beside its directory).

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  notelog test ./scenarios
  notelog test ./scenarios --filter "erase*"
  notelog test ./scenarios --update
  notelog test ./scenarios/pen_stroke.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if errors.Is(err, fs.ErrNotExist) {
			return NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", p))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(opts, file, cmd)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	out := opts.formatter(cmd)
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		if opts.Format == "json" {
			_ = out.Error(CodeScenario, msg, result)
		} else {
			_ = out.Success(result)
		}
		return NewExitError(ExitFailure, msg)
	}
	return out.Success(result)
}

// findScenarioFiles returns path itself when it is a file, or every .yaml
// and .yml file below it that matches filter.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	return files, err
}

func runScenario(opts *TestOptions, file string, cmd *cobra.Command) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("load error: %v", err)},
		}
	}
	sr := ScenarioResult{Name: scenario.Name}

	runOpts := []harness.Option{harness.WithLogger(opts.logger())}
	if opts.Config.EraserRadius > 0 {
		runOpts = append(runOpts, harness.WithEraserRadius(opts.Config.EraserRadius))
	}
	result, err := harness.Run(cmd.Context(), scenario, runOpts...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution error: %v", err)}
		return sr
	}
	summary := result.Summary(scenario.Name)

	if opts.Update {
		path := goldenFilePath(file)
		if err := writeGolden(path, summary); err != nil {
			sr.Errors = []string{fmt.Sprintf("golden update error: %v", err)}
			return sr
		}
		sr.Golden = path
		sr.Pass = result.Pass
		sr.Errors = result.Errors
		return sr
	}

	sr.Pass = result.Pass
	sr.Errors = result.Errors
	path, ok := findGolden(file)
	if !ok {
		return sr
	}
	sr.Golden = path
	want, err := os.ReadFile(path)
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden read error: %v", err))
		return sr
	}
	if string(want) != summary {
		sr.Pass = false
		sr.Errors = append(sr.Errors, "summary does not match golden file (run with --update to regenerate)")
	}
	return sr
}

// goldenFilePath is where --update writes the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// findGolden looks for golden/<name>.golden beside the scenario, then beside
// its directory, which is the testdata layout of the harness package.
func findGolden(scenarioFile string) (string, bool) {
	primary := goldenFilePath(scenarioFile)
	sibling := filepath.Join(filepath.Dir(filepath.Dir(scenarioFile)), "golden", filepath.Base(primary))
	for _, p := range []string{primary, sibling} {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func writeGolden(path, summary string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
