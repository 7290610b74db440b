package cli

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/notelog/internal/engine"
	"github.com/roach88/notelog/internal/metrics"
)

// AnnotationReplay is the outcome of replay for one annotation.
type AnnotationReplay struct {
	ID           string `json:"id"`
	Final        string `json:"final"`
	LastRecorded string `json:"last_recorded"`
	Match        bool   `json:"match"`
}

// SkipView describes one skipped record.
type SkipView struct {
	Index      int    `json:"index"`
	Annotation string `json:"annotation"`
	Event      string `json:"event"`
	Error      string `json:"error"`
}

// ReplayResult holds replay verification results.
type ReplayResult struct {
	Path        string             `json:"path"`
	Records     int                `json:"records"`
	Applied     int                `json:"applied"`
	Skipped     []SkipView         `json:"skipped"`
	Mismatched  int                `json:"mismatched"`
	Annotations []AnnotationReplay `json:"annotations"`
	Live        int                `json:"live"`
	Clean       bool               `json:"clean"`

	// Metrics is the Prometheus text exposition of the replay, set with --metrics.
	Metrics string `json:"metrics,omitempty"`
}

func (r ReplayResult) String() string {
	var b strings.Builder
	mark := "✓"
	if !r.Clean {
		mark = "✗"
	}
	fmt.Fprintf(&b, "%s %s: %d records, %d applied, %d skipped, %d mismatched, %d live\n",
		mark, r.Path, r.Records, r.Applied, len(r.Skipped), r.Mismatched, r.Live)
	for _, a := range r.Annotations {
		status := "ok"
		if !a.Match {
			status = "DIVERGED (last record " + a.LastRecorded + ")"
		}
		fmt.Fprintf(&b, "  %s %-9s %s\n", a.ID, a.Final, status)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(&b, "  skipped #%d %s %s: %s\n", s.Index, s.Annotation, s.Event, s.Error)
	}
	if r.Metrics != "" {
		b.WriteString(r.Metrics)
	}
	return b.String()
}

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Metrics bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Rebuild a notebook from its log and verify it",
		Long: `Replay a notebook's transition log through fresh state machines.

Every annotation's rebuilt final state is compared with the To state of its
last stored record.

Exit codes:
  0 - Every record applied as stored and every final state matches
  1 - Records were skipped or disagreed with their stored states, a final
      state diverged, or the file did not decode
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "append replay metrics in Prometheus text format")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	f, _, err := readNotebook(path)
	if err != nil {
		if isExitError(err) {
			return err
		}
		_ = out.Error(CodeDecode, "notebook did not decode", decodeFailure(err))
		return WrapExitError(ExitFailure, "notebook did not decode", err)
	}

	collector := metrics.NewCollector()
	m := engine.NewManager(engine.WithLogger(opts.logger()), engine.WithMetrics(collector))
	report := m.Replay(ctx, f.Transitions)

	result := ReplayResult{
		Path:        path,
		Records:     len(f.Transitions),
		Applied:     report.Applied,
		Skipped:     []SkipView{},
		Mismatched:  len(report.Mismatched),
		Annotations: []AnnotationReplay{},
		Live:        m.Len(),
	}
	for _, s := range report.Skipped {
		result.Skipped = append(result.Skipped, SkipView{
			Index:      s.Index,
			Annotation: s.AnnotationID.String(),
			Event:      s.Event.String(),
			Error:      s.Err.Error(),
		})
	}

	ids := make([]uuid.UUID, 0, len(report.Final))
	for id := range report.Final {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	for _, id := range ids {
		final, last := report.Final[id], report.LastRecorded[id]
		result.Annotations = append(result.Annotations, AnnotationReplay{
			ID:           id.String(),
			Final:        final.String(),
			LastRecorded: last.String(),
			Match:        final == last,
		})
	}
	result.Clean = report.Clean() && len(report.Divergent()) == 0

	if opts.Metrics {
		var buf strings.Builder
		if err := collector.WriteText(&buf); err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
		result.Metrics = buf.String()
	}

	if err := out.Success(result); err != nil {
		return err
	}
	if !result.Clean {
		return NewExitError(ExitFailure, fmt.Sprintf("replay of %s is not clean", path))
	}
	return nil
}
