// Package recursion detects self-reaching target types and tracks the target
// objects produced for each source object during one mapping call.
//
// Cyclic type pairs are compiled once as named procedures. At run time the
// Registry maps a source pointer to the target it produced, so a revisited
// source object resolves to the same target and object graphs with reference
// cycles terminate.
package recursion
