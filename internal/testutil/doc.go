// Package testutil provides deterministic clocks and identity generators
// shared by tests across the module.
package testutil
