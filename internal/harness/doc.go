// Package harness runs scripted notebook sessions and checks their outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: move_selected
//	description: "A committed stroke is selected and dragged"
//	tool: pen
//	steps:
//	  - op: create
//	    ref: a
//	    type: pen
//	  - op: stroke
//	    ref: a
//	    x: 1
//	    y: 2
//	  - op: finish
//	    ref: a
//	  - op: select
//	    ref: a
//	  - op: move_begin
//	    ref: a
//	  - op: move
//	    ref: a
//	    dx: 10
//	    dy: -5
//	  - op: move_end
//	    ref: a
//	  - op: select
//	    ref: a
//	    expect: rejected
//	assertions:
//	  - type: state
//	    ref: a
//	    is: selected
//	  - type: bounds
//	    ref: a
//	    x: 11
//	    y: -3
//
// Annotations are named by scenario-local refs; create binds a ref to the
// identity the notebook assigned. Every step expects acceptance unless it
// says expect: rejected.
//
// # Assertion Types
//
//   - state: the annotation's current state (deleted refs read as deleted)
//   - transition_count: number of records in the log
//   - selected_count: annotations currently selected
//   - bounds: bounding rectangle, only the fields given are compared
//   - points: number of stroke points
//   - tool: the active tool
//
// # Deterministic Testing
//
// Each run uses sequential identities and a stepping clock starting at
// testutil.Epoch, so traces are identical across runs and can be compared
// with golden files under testdata/golden.
package harness
