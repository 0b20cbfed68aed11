// Package progress keeps aggregated counters for a single batch run
// (an evaluation pass or an action session). Batch operations never fail
// wholesale; they record per-unit outcomes here instead.
package progress
