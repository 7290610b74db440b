package harness

import (
	"fmt"
	"math"
	"strings"
)

// boundsTolerance absorbs float drift from repeated deltas.
const boundsTolerance = 1e-9

// AssertionError provides structured information about assertion failures.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}

	return buf.String()
}

// evaluate checks every assertion against the notebook and the collected
// result, returning one message per failure.
func (h *Harness) evaluate(assertions []Assertion, result *Result) []string {
	var errs []string
	for _, a := range assertions {
		if err := h.check(a, result); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func (h *Harness) check(a Assertion, result *Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: result.Trace}
	}

	switch a.Type {
	case AssertState:
		if got := h.state(a.Ref).String(); got != a.Is {
			return fail(fmt.Sprintf("%s in state %s", a.Ref, a.Is), got)
		}
	case AssertTransitionCount:
		if got := len(result.Trace); got != *a.N {
			return fail(fmt.Sprintf("%d transitions", *a.N), fmt.Sprintf("%d transitions", got))
		}
	case AssertSelectedCount:
		if got := len(h.nb.Selected()); got != *a.N {
			return fail(fmt.Sprintf("%d selected", *a.N), fmt.Sprintf("%d selected", got))
		}
	case AssertBounds:
		rd, ok := h.nb.Annotation(h.refs[a.Ref])
		if !ok {
			return fail(fmt.Sprintf("bounds of %s", a.Ref), "annotation not live")
		}
		b := rd.Bounds
		var diffs []string
		for _, f := range []struct {
			name string
			want *float64
			got  float64
		}{
			{"x", a.X, b.X}, {"y", a.Y, b.Y}, {"w", a.W, b.Width}, {"h", a.H, b.Height},
		} {
			if f.want != nil && math.Abs(*f.want-f.got) > boundsTolerance {
				diffs = append(diffs, fmt.Sprintf("%s=%g (want %g)", f.name, f.got, *f.want))
			}
		}
		if len(diffs) > 0 {
			return fail(fmt.Sprintf("bounds of %s", a.Ref), strings.Join(diffs, ", "))
		}
	case AssertPoints:
		rd, ok := h.nb.Annotation(h.refs[a.Ref])
		if !ok {
			return fail(fmt.Sprintf("%d points on %s", *a.N, a.Ref), "annotation not live")
		}
		if len(rd.Points) != *a.N {
			return fail(fmt.Sprintf("%d points on %s", *a.N, a.Ref), fmt.Sprintf("%d points", len(rd.Points)))
		}
	case AssertTool:
		if result.Tool != a.Is {
			return fail("tool "+a.Is, "tool "+result.Tool)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
