// Package tasks wires the dashboard's moving parts together.
//
// [SessionEngine] consumes timer phase completions: a focus completion runs
// the progression engine's full update cycle (increment counters, recompute
// achievements against the new counters, persist) and reports any newly
// unlocked achievements; break completions pass through untouched.
//
// [NowPlayingPoller] fetches the current or last-played track on a fixed
// cadence, rate-limited and context-cancelled, delivering updates over a
// channel in the same shape the TUI consumes. The timer tick and the poll
// cadence are independent; they share no state.
package tasks
