package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Path        string         `json:"path"`
	Valid       bool           `json:"valid"`
	Transitions int            `json:"transitions"`
	Error       *DecodeFailure `json:"error,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return fmt.Sprintf("✓ %s: valid (%d transitions)\n", r.Path, r.Transitions)
	}
	return fmt.Sprintf("✗ %s: %s at offset %d: %s\n", r.Path, r.Error.Field, r.Error.Offset, r.Error.Cause)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Strictly decode notebooks",
		Long: `Strictly decode one or more notebook files without replaying them.

A file that does not decode is reported with the field path and byte offset
where decoding stopped.

Exit codes:
  0 - Every file decoded
  1 - One or more files did not decode
  2 - Command error (file not found, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(_ context.Context, opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	results := make([]ValidationResult, 0, len(paths))
	failed := 0

	for _, path := range paths {
		f, _, err := readNotebook(path)
		if err != nil {
			if isExitError(err) {
				return err
			}
			failure := decodeFailure(err)
			results = append(results, ValidationResult{Path: path, Error: &failure})
			failed++
			continue
		}
		results = append(results, ValidationResult{Path: path, Valid: true, Transitions: len(f.Transitions)})
	}

	if opts.Format == "json" {
		if err := out.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprint(cmd.OutOrStdout(), r.String())
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d notebooks did not decode", failed, len(paths)))
	}
	return nil
}
