// Package engine owns the live annotations of a notebook.
//
// ARCHITECTURE:
//
// Manager:
// Holds the identity → machine map and the identity → RenderData map. Every
// mutation goes through a Manager method that applies the event to the
// machine first and only then updates render data, so the two maps always
// describe the same set of annotations.
//
// Notebook:
// Coordinates a Manager, the tool machine, notebook metadata and the
// append-only transition log. Accepted transitions are appended in the order
// the manager returns them, under one mutex, which gives the log a single
// total order.
//
// Session:
// A single-writer command loop over a Notebook for callers that arrive from
// several goroutines (UI event loops, HTTP handlers). Commands run one at a
// time in FIFO order.
//
// CRITICAL PATTERNS:
//
// Explicit transitions:
// Machines return the transition they produced. Nothing is emitted through
// callbacks, so appending to the log is a visible step in Notebook.
//
// Replay on load:
// Annotation data is never stored directly. Open decodes the whole file,
// then rebuilds every annotation by replaying its transitions through a
// fresh machine. A record the machine rejects is skipped with a warning.
package engine
