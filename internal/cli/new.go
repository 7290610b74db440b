package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/notelog/internal/engine"
	"github.com/roach88/notelog/internal/ir"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Title string
	Tool  string
	Force bool
}

// NewResult describes a created notebook.
type NewResult struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	Tool      string `json:"tool"`
	CreatedAt uint64 `json:"created_at"`
}

func (r NewResult) String() string {
	return fmt.Sprintf("created %s (title %q, tool %s)\n", r.Path, r.Title, r.Tool)
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Write an empty notebook",
		Long: `Write an empty notebook file.

The notebook starts with the configured default tool unless --tool is given.
An existing file is left alone unless --force is set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "notebook title")
	cmd.Flags().StringVar(&opts.Tool, "tool", "", "initial tool (defaults to config default_tool)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing file")

	return cmd
}

func runNew(_ context.Context, opts *NewOptions, path string, cmd *cobra.Command) error {
	tool := opts.Config.Tool()
	if opts.Tool != "" {
		t, err := ir.ParseTool(opts.Tool)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --tool", err)
		}
		tool = t
	}

	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("file exists: %s (use --force to overwrite)", path))
		}
	}

	nb := engine.NewWithTool(tool, engine.WithLogger(opts.logger()))
	nb.SetTitle(opts.Title)
	if err := nb.SaveFile(path); err != nil {
		return WrapExitError(ExitCommandError, "failed to write notebook", err)
	}

	meta := nb.Metadata()
	return opts.formatter(cmd).Success(NewResult{
		Path:      path,
		Title:     meta.Title,
		Tool:      nb.Tool().String(),
		CreatedAt: meta.CreatedAt,
	})
}
