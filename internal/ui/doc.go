// Package ui implements the dashboard terminal interface using bubbletea's
// Elm architecture.
//
// The [Model] renders four panels: the pomodoro timer, session stats, the
// achievement list partitioned into unlocked/in-progress groups, and the
// Spotify now-playing widget when connected.
//
// A one-second [tea.Tick] drives the timer state machine; phase completions
// are handed to the session engine off the render path and the resulting
// counters and unlocks flow back as messages. Track updates arrive over the
// poller's channel on its own 30-second cadence, independent of the tick.
//
// Keyboard bindings: space (start/pause), r (reset), s (switch phase),
// q (quit), with contextual help via charmbracelet/bubbles/help.
package ui
