// Package watch implements the reconciliation watcher: a periodic loop
// that diffs oracle prices against the last observed values and auto-heals
// stuck travel. A trip counts as stuck once its arrival time has passed
// without anyone submitting the completion, which happens whenever the
// client that started it crashed or navigated away.
package watch
