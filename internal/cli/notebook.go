package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/roach88/notelog/internal/codec"
	"github.com/roach88/notelog/internal/document"
	"github.com/roach88/notelog/internal/ir"
)

// TransitionView is the printable form of one transition record.
type TransitionView struct {
	Seq        int    `json:"seq"`
	Annotation string `json:"annotation"`
	From       string `json:"from"`
	To         string `json:"to"`
	Event      string `json:"event"`
	Timestamp  uint64 `json:"timestamp"`
	PayloadLen int    `json:"payload_len,omitempty"`
}

func (v TransitionView) String() string {
	return fmt.Sprintf("%4d %s %-9s -> %-9s %s", v.Seq, v.Annotation, v.From, v.To, v.Event)
}

func viewTransitions(trs []ir.Transition) []TransitionView {
	out := make([]TransitionView, len(trs))
	for i, t := range trs {
		out[i] = TransitionView{
			Seq:        i,
			Annotation: t.AnnotationID.String(),
			From:       t.From.String(),
			To:         t.To.String(),
			Event:      t.Event.Kind().String(),
			Timestamp:  t.Timestamp,
			PayloadLen: len(t.Payload),
		}
	}
	return out
}

// DecodeFailure describes bytes that did not decode.
type DecodeFailure struct {
	Field  string `json:"field,omitempty"`
	Offset int    `json:"offset"`
	Cause  string `json:"cause"`
}

func decodeFailure(err error) DecodeFailure {
	var de *codec.DecodeError
	if errors.As(err, &de) {
		return DecodeFailure{Field: de.Field, Offset: de.Offset, Cause: de.Err.Error()}
	}
	return DecodeFailure{Cause: err.Error()}
}

// readNotebook reads and strictly decodes path. Read failures are command
// errors; decode failures are returned unwrapped for the caller to report.
func readNotebook(path string) (ir.NotebookFile, []byte, error) {
	data, err := document.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ir.NotebookFile{}, nil, NewExitError(ExitCommandError, fmt.Sprintf("notebook not found: %s", path))
	}
	if err != nil {
		return ir.NotebookFile{}, nil, WrapExitError(ExitCommandError, "failed to read notebook", err)
	}
	f, err := document.Load(data)
	return f, data, err
}

func formatEpoch(s uint64) string {
	if s == 0 {
		return "never"
	}
	return time.Unix(int64(s), 0).UTC().Format(time.RFC3339)
}

func writeTransitions(b *strings.Builder, views []TransitionView) {
	for _, v := range views {
		fmt.Fprintf(b, "%s\n", v)
	}
}
