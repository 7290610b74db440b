package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/notelog/internal/ir"
)

// Scenario is one scripted notebook session.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tool is the raw name of the tool the notebook starts with. Empty means idle.
	Tool string `yaml:"tool,omitempty"`

	// Steps are executed in order against one notebook.
	Steps []Step `yaml:"steps"`

	// Assertions validate the notebook after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one user action.
type Step struct {
	// Op names the action; see the Op constants.
	Op string `yaml:"op"`

	// Ref names the annotation the step addresses.
	Ref string `yaml:"ref,omitempty"`

	// create
	Type       string            `yaml:"type,omitempty"`
	Bounds     *Rect             `yaml:"bounds,omitempty"`
	Content    *string           `yaml:"content,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`

	// stroke, erase
	X float64 `yaml:"x,omitempty"`
	Y float64 `yaml:"y,omitempty"`

	// erase along a segment ending at (X2, Y2) when set
	X2     *float64 `yaml:"x2,omitempty"`
	Y2     *float64 `yaml:"y2,omitempty"`
	Radius float64  `yaml:"radius,omitempty"`

	// move
	DX float64 `yaml:"dx,omitempty"`
	DY float64 `yaml:"dy,omitempty"`

	// resize
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
	Anchor string  `yaml:"anchor,omitempty"`

	// tool
	Tool string `yaml:"tool,omitempty"`

	// Expect is accepted (the default) or rejected.
	Expect string `yaml:"expect,omitempty"`
}

// Rect is a rectangle in scenario files.
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

func (r Rect) toIR() ir.Rect {
	return ir.Rect{X: r.X, Y: r.Y, Width: r.W, Height: r.H}
}

// Assertion validates final notebook state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Ref names the annotation (state, bounds, points).
	Ref string `yaml:"ref,omitempty"`

	// Is is the expected state (state) or tool name (tool).
	Is string `yaml:"is,omitempty"`

	// N is the expected count (transition_count, selected_count, points).
	N *int `yaml:"n,omitempty"`

	// Expected bounds; nil fields are not compared.
	X *float64 `yaml:"x,omitempty"`
	Y *float64 `yaml:"y,omitempty"`
	W *float64 `yaml:"w,omitempty"`
	H *float64 `yaml:"h,omitempty"`
}

// Step operations.
const (
	OpCreate      = "create"
	OpStroke      = "stroke"
	OpFinish      = "finish"
	OpSelect      = "select"
	OpDeselect    = "deselect"
	OpEdit        = "edit"
	OpCommit      = "commit"
	OpMoveBegin   = "move_begin"
	OpMove        = "move"
	OpMoveEnd     = "move_end"
	OpResizeBegin = "resize_begin"
	OpResize      = "resize"
	OpResizeEnd   = "resize_end"
	OpDelete      = "delete"
	OpErase       = "erase"
	OpTool        = "tool"
	OpSaveReload  = "save_reload"
)

// Expect values.
const (
	ExpectAccepted = "accepted"
	ExpectRejected = "rejected"
)

// Assertion type constants.
const (
	AssertState           = "state"
	AssertTransitionCount = "transition_count"
	AssertSelectedCount   = "selected_count"
	AssertBounds          = "bounds"
	AssertPoints          = "points"
	AssertTool            = "tool"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Tool != "" {
		if _, err := ir.ParseTool(s.Tool); err != nil {
			return fmt.Errorf("tool: %w", err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	// Refs must be created before use.
	created := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, step, created); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, assertion, created); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(i int, step Step, created map[string]bool) error {
	switch step.Expect {
	case "", ExpectAccepted, ExpectRejected:
	default:
		return fmt.Errorf("steps[%d]: expect must be %s or %s, got %q", i, ExpectAccepted, ExpectRejected, step.Expect)
	}

	switch step.Op {
	case OpCreate:
		if step.Ref == "" {
			return fmt.Errorf("steps[%d]: ref is required for create", i)
		}
		if created[step.Ref] {
			return fmt.Errorf("steps[%d]: ref %q already created", i, step.Ref)
		}
		if step.Type == "" {
			return fmt.Errorf("steps[%d]: type is required for create", i)
		}
		created[step.Ref] = true
	case OpStroke, OpFinish, OpSelect, OpDeselect, OpEdit, OpCommit,
		OpMoveBegin, OpMove, OpMoveEnd, OpResizeBegin, OpResizeEnd, OpDelete:
		if !created[step.Ref] {
			return fmt.Errorf("steps[%d]: %s references unknown ref %q", i, step.Op, step.Ref)
		}
	case OpResize:
		if !created[step.Ref] {
			return fmt.Errorf("steps[%d]: %s references unknown ref %q", i, step.Op, step.Ref)
		}
		if _, err := ir.ParseResizeAnchor(step.Anchor); err != nil {
			return fmt.Errorf("steps[%d]: anchor: %w", i, err)
		}
	case OpErase:
		if (step.X2 == nil) != (step.Y2 == nil) {
			return fmt.Errorf("steps[%d]: x2 and y2 must be given together", i)
		}
		if step.Radius < 0 {
			return fmt.Errorf("steps[%d]: radius must be non-negative", i)
		}
	case OpTool:
		if _, err := ir.ParseTool(step.Tool); err != nil {
			return fmt.Errorf("steps[%d]: tool: %w", i, err)
		}
	case OpSaveReload:
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, created map[string]bool) error {
	needRef := func() error {
		if !created[a.Ref] {
			return fmt.Errorf("assertions[%d]: %s references unknown ref %q", index, a.Type, a.Ref)
		}
		return nil
	}
	needN := func() error {
		if a.N == nil || *a.N < 0 {
			return fmt.Errorf("assertions[%d]: non-negative n is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertState:
		if err := needRef(); err != nil {
			return err
		}
		if _, err := ir.ParseState(a.Is); err != nil {
			return fmt.Errorf("assertions[%d]: is: %w", index, err)
		}
	case AssertTransitionCount, AssertSelectedCount:
		return needN()
	case AssertBounds:
		if err := needRef(); err != nil {
			return err
		}
		if a.X == nil && a.Y == nil && a.W == nil && a.H == nil {
			return fmt.Errorf("assertions[%d]: bounds needs at least one of x, y, w, h", index)
		}
	case AssertPoints:
		if err := needRef(); err != nil {
			return err
		}
		return needN()
	case AssertTool:
		if _, err := ir.ParseTool(a.Is); err != nil {
			return fmt.Errorf("assertions[%d]: is: %w", index, err)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
