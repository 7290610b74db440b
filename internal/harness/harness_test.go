package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name matches scenario name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/exclusive_selection.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Summary(scenario.Name), second.Summary(scenario.Name))
}

func intRef(n int) *int { return &n }

func floatRef(f float64) *float64 { return &f }

func TestRun_UnexpectedRejection(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_rejection",
		Description: "move before select",
		Steps: []Step{
			{Op: OpCreate, Ref: "a", Type: "pen"},
			{Op: OpFinish, Ref: "a"},
			{Op: OpMoveBegin, Ref: "a"},
		},
		Assertions: []Assertion{{Type: AssertTransitionCount, N: intRef(2)}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 2 (move_begin a): expected accepted")
	assert.Contains(t, result.Errors[0], "beginMove")
}

func TestRun_UnexpectedAcceptance(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_acceptance",
		Description: "select is legal here",
		Steps: []Step{
			{Op: OpCreate, Ref: "a", Type: "pen"},
			{Op: OpFinish, Ref: "a"},
			{Op: OpSelect, Ref: "a", Expect: ExpectRejected},
		},
		Assertions: []Assertion{{Type: AssertSelectedCount, N: intRef(1)}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected rejected, was accepted")
}

func TestRun_AssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing_assertions",
		Description: "every assertion is wrong",
		Tool:        "pen",
		Steps: []Step{
			{Op: OpCreate, Ref: "a", Type: "pen"},
			{Op: OpStroke, Ref: "a", X: 3, Y: 4},
		},
		Assertions: []Assertion{
			{Type: AssertState, Ref: "a", Is: "committed"},
			{Type: AssertTransitionCount, N: intRef(5)},
			{Type: AssertSelectedCount, N: intRef(1)},
			{Type: AssertBounds, Ref: "a", X: floatRef(0)},
			{Type: AssertPoints, Ref: "a", N: intRef(3)},
			{Type: AssertTool, Is: "eraser"},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)

	assert.Contains(t, result.Errors[0], "Actual: creating")
	assert.Contains(t, result.Errors[1], "Actual: 2 transitions")
	assert.Contains(t, result.Errors[2], "Actual: 0 selected")
	assert.Contains(t, result.Errors[3], "x=3 (want 0)")
	assert.Contains(t, result.Errors[4], "Actual: 1 points")
	assert.Contains(t, result.Errors[5], "Actual: tool pen")
	assert.Contains(t, result.Errors[0], "000 a idle -> creating createAnnotation", "failures carry the trace")
}

func TestRun_TraceNamesRefs(t *testing.T) {
	scenario := &Scenario{
		Name:        "refs",
		Description: "trace uses scenario refs",
		Steps: []Step{
			{Op: OpCreate, Ref: "first", Type: "pen"},
			{Op: OpCreate, Ref: "second", Type: "text"},
		},
		Assertions: []Assertion{{Type: AssertTransitionCount, N: intRef(2)}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []TraceEvent{
		{Seq: 0, Ref: "first", From: "idle", To: "creating", Event: "createAnnotation"},
		{Seq: 1, Ref: "second", From: "idle", To: "creating", Event: "createAnnotation"},
	}, result.Trace)
	assert.Equal(t, []string{"first", "second"}, result.Refs)
	assert.Equal(t, map[string]string{"first": "creating", "second": "creating"}, result.Final)
}

func TestRun_EraseAlong(t *testing.T) {
	scenario := &Scenario{
		Name:        "erase_along",
		Description: "a swipe across a stroke empties it",
		Steps: []Step{
			{Op: OpCreate, Ref: "a", Type: "pen"},
			{Op: OpStroke, Ref: "a", X: 2, Y: 1},
			{Op: OpStroke, Ref: "a", X: 8, Y: -1},
			{Op: OpFinish, Ref: "a"},
			{Op: OpErase, X: 0, Y: 0, X2: floatRef(10), Y2: floatRef(0), Radius: 1.5},
		},
		Assertions: []Assertion{{Type: AssertState, Ref: "a", Is: "deleted"}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_EraserRadiusOption(t *testing.T) {
	scenario := &Scenario{
		Name:        "wide_eraser",
		Description: "erase steps without a radius use the configured one",
		Steps: []Step{
			{Op: OpCreate, Ref: "a", Type: "pen"},
			{Op: OpStroke, Ref: "a", X: 5, Y: 0},
			{Op: OpFinish, Ref: "a"},
			{Op: OpErase, X: 0, Y: 0},
		},
		Assertions: []Assertion{{Type: AssertState, Ref: "a", Is: "deleted"}},
	}

	narrow, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, narrow.Pass, "default radius %v does not reach the point", DefaultEraserRadius)

	wide, err := Run(context.Background(), scenario, WithEraserRadius(6))
	require.NoError(t, err)
	assert.True(t, wide.Pass, "errors: %v", wide.Errors)
}

func TestRun_ToolSwitch(t *testing.T) {
	scenario := &Scenario{
		Name:        "tool_switch",
		Description: "tool changes survive reload",
		Steps: []Step{
			{Op: OpTool, Tool: "highlighter"},
			{Op: OpSaveReload},
		},
		Assertions: []Assertion{{Type: AssertTool, Is: "highlighter"}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenario := &Scenario{
		Name:        "cancelled",
		Description: "never runs",
		Steps:       []Step{{Op: OpCreate, Ref: "a", Type: "pen"}},
		Assertions:  []Assertion{{Type: AssertTransitionCount, N: intRef(0)}},
	}
	_, err := Run(ctx, scenario)
	assert.ErrorIs(t, err, context.Canceled)
}
