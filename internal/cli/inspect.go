package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// InspectResult describes a decoded notebook.
type InspectResult struct {
	Path        string           `json:"path"`
	Title       string           `json:"title"`
	CreatedAt   uint64           `json:"created_at"`
	UpdatedAt   uint64           `json:"updated_at"`
	Tool        string           `json:"tool"`
	Bytes       int              `json:"bytes"`
	Transitions []TransitionView `json:"transitions"`
}

func (r InspectResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Path)
	fmt.Fprintf(&b, "  title:   %q\n", r.Title)
	fmt.Fprintf(&b, "  created: %s\n", formatEpoch(r.CreatedAt))
	fmt.Fprintf(&b, "  updated: %s\n", formatEpoch(r.UpdatedAt))
	fmt.Fprintf(&b, "  tool:    %s\n", r.Tool)
	fmt.Fprintf(&b, "  size:    %d bytes, %d transitions\n", r.Bytes, len(r.Transitions))
	writeTransitions(&b, r.Transitions)
	return b.String()
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show a notebook's metadata and transition log",
		Long: `Decode a notebook and print its metadata, initial tool and every
transition record in log order.

Exit codes:
  0 - Notebook decoded
  1 - Notebook did not decode
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(_ context.Context, opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	f, data, err := readNotebook(path)
	if err != nil {
		if isExitError(err) {
			return err
		}
		_ = out.Error(CodeDecode, "notebook did not decode", decodeFailure(err))
		return WrapExitError(ExitFailure, "notebook did not decode", err)
	}

	return out.Success(InspectResult{
		Path:        path,
		Title:       f.Metadata.Title,
		CreatedAt:   f.Metadata.CreatedAt,
		UpdatedAt:   f.Metadata.UpdatedAt,
		Tool:        f.InitialTool.String(),
		Bytes:       len(data),
		Transitions: viewTransitions(f.Transitions),
	})
}
