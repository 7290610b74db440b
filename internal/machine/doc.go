// Package machine implements the per-annotation lifecycle state machine and
// the editor tool machine.
//
// An Annotation accepts an ir.Event only when its transition table allows the
// event from the current state. Accepted events return the transition record
// to the caller; rejected events return *InvalidTransitionError and leave the
// machine untouched. Nothing is pushed to observers: appending the record to
// a log is the caller's job.
//
// Machines are not safe for concurrent use. The engine Manager serializes
// access per notebook.
package machine
