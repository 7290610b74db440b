package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/ir"
)

func TestTool_AnyToAny(t *testing.T) {
	for _, from := range ir.Tools() {
		for _, to := range ir.Tools() {
			tool := NewTool(from, WithLogger(quiet))
			prev, err := tool.Select(to)
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, from, prev)
			assert.Equal(t, to, tool.Current())
		}
	}
}

func TestTool_InvalidValue(t *testing.T) {
	tool := NewTool(ir.ToolPen, WithLogger(quiet))

	prev, err := tool.Select(ir.Tool(99))
	assert.ErrorIs(t, err, ErrInvalidTool)
	assert.Equal(t, ir.ToolPen, prev)
	assert.Equal(t, ir.ToolPen, tool.Current())
}

func TestTool_InvalidInitialFallsBackToIdle(t *testing.T) {
	tool := NewTool(ir.Tool(42))
	assert.Equal(t, ir.ToolIdle, tool.Current())
}
