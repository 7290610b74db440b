package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/notelog/internal/document"
	"github.com/roach88/notelog/internal/store"
)

// LibraryOptions holds flags shared by the library subcommands.
type LibraryOptions struct {
	*RootOptions
	DB string
}

// path returns the library database path, --db over config.
func (o *LibraryOptions) path() string {
	if o.DB != "" {
		return o.DB
	}
	return o.Config.Library
}

func (o *LibraryOptions) open() (*store.Store, error) {
	st, err := store.Open(o.path())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open library", err)
	}
	return st, nil
}

// LibraryList is the text form of a library listing.
type LibraryList []store.Summary

func (l LibraryList) String() string {
	if len(l) == 0 {
		return "library is empty\n"
	}
	var b strings.Builder
	for _, s := range l {
		fmt.Fprintf(&b, "%-24s %-32q %4d transitions  updated %s\n", s.ID, s.Title, s.Transitions, formatEpoch(s.UpdatedAt))
	}
	return b.String()
}

// LibraryLog is the text form of a stored transition index.
type LibraryLog []TransitionView

func (l LibraryLog) String() string {
	var b strings.Builder
	writeTransitions(&b, l)
	return b.String()
}

// LibraryMessage is a one-line confirmation.
type LibraryMessage struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Path   string `json:"path,omitempty"`
}

func (m LibraryMessage) String() string {
	if m.Path != "" {
		return fmt.Sprintf("%s %s (%s)\n", m.Action, m.ID, m.Path)
	}
	return fmt.Sprintf("%s %s\n", m.Action, m.ID)
}

// NewLibraryCommand creates the library command and its subcommands.
func NewLibraryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Move notebooks between files and the SQLite library",
		Long: `Store notebooks in a SQLite library, list them, read their transition
index, and write them back to files.

The library path comes from the config file's library key unless --db is given.`,
	}
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "library database path (overrides config)")

	cmd.AddCommand(newLibraryPutCommand(opts))
	cmd.AddCommand(newLibraryGetCommand(opts))
	cmd.AddCommand(newLibraryListCommand(opts))
	cmd.AddCommand(newLibraryLogCommand(opts))
	cmd.AddCommand(newLibraryDeleteCommand(opts))

	return cmd
}

func newLibraryPutCommand(opts *LibraryOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:           "put <file>",
		Short:         "Store a notebook file in the library",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibraryPut(cmd.Context(), opts, args[0], id, cmd)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "library id (defaults to the file name without extension)")
	return cmd
}

func runLibraryPut(ctx context.Context, opts *LibraryOptions, path, id string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	f, _, err := readNotebook(path)
	if err != nil {
		if isExitError(err) {
			return err
		}
		_ = out.Error(CodeDecode, "notebook did not decode", decodeFailure(err))
		return WrapExitError(ExitFailure, "notebook did not decode", err)
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.PutNotebook(ctx, id, f); err != nil {
		return WrapExitError(ExitCommandError, "failed to store notebook", err)
	}
	opts.logger().Info("notebook stored", "id", id, "transitions", len(f.Transitions), "library", opts.path())
	return out.Success(LibraryMessage{Action: "stored", ID: id, Path: path})
}

func newLibraryGetCommand(opts *LibraryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id> <file>",
		Short:         "Write a library notebook to a file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibraryGet(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}
}

func runLibraryGet(ctx context.Context, opts *LibraryOptions, id, path string, cmd *cobra.Command) error {
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := st.GetNotebookBytes(ctx, id)
	if err != nil {
		return libraryError(opts.formatter(cmd), err)
	}
	if err := document.WriteFileAtomic(path, data); err != nil {
		return WrapExitError(ExitCommandError, "failed to write notebook", err)
	}
	return opts.formatter(cmd).Success(LibraryMessage{Action: "wrote", ID: id, Path: path})
}

func newLibraryListCommand(opts *LibraryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List library notebooks",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.open()
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListNotebooks(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list library", err)
			}
			return opts.formatter(cmd).Success(LibraryList(list))
		},
	}
}

func newLibraryLogCommand(opts *LibraryOptions) *cobra.Command {
	var annotation string
	cmd := &cobra.Command{
		Use:           "log <id>",
		Short:         "Show the stored transition index of a notebook",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := uuid.Nil
			if annotation != "" {
				parsed, err := uuid.Parse(annotation)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --annotation", err)
				}
				filter = parsed
			}

			st, err := opts.open()
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := st.GetNotebookBytes(cmd.Context(), args[0]); err != nil {
				return libraryError(opts.formatter(cmd), err)
			}
			rows, err := st.ReadTransitions(cmd.Context(), args[0], filter)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read transitions", err)
			}
			views := make(LibraryLog, len(rows))
			for i, r := range rows {
				views[i] = TransitionView{
					Seq:        int(r.Seq),
					Annotation: r.AnnotationID.String(),
					From:       r.From.String(),
					To:         r.To.String(),
					Event:      r.Event.String(),
					Timestamp:  r.Timestamp,
				}
			}
			return opts.formatter(cmd).Success(views)
		},
	}
	cmd.Flags().StringVar(&annotation, "annotation", "", "only show records of this annotation id")
	return cmd
}

func newLibraryDeleteCommand(opts *LibraryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Remove a notebook from the library",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.open()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteNotebook(cmd.Context(), args[0]); err != nil {
				return libraryError(opts.formatter(cmd), err)
			}
			return opts.formatter(cmd).Success(LibraryMessage{Action: "deleted", ID: args[0]})
		},
	}
}

// libraryError reports a lookup failure. A corrupt blob is a check failure;
// a missing id or anything else is a command error.
func libraryError(out *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		_ = out.Error(CodeLibrary, err.Error(), nil)
		return WrapExitError(ExitCommandError, "not in library", err)
	case errors.Is(err, store.ErrChecksumMismatch):
		_ = out.Error(CodeLibrary, err.Error(), nil)
		return WrapExitError(ExitFailure, "library blob is corrupt", err)
	}
	return WrapExitError(ExitCommandError, "library read failed", err)
}
