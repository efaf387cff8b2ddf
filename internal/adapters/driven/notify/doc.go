// Package notify provides driven.NotificationSink implementations.
//
//   - Console: styled lines for an interactive terminal
//   - Log: routes notifications through the verbose logger
//   - Multi: fans a notification out to several sinks
//   - Recorder: keeps notifications in memory for the TUI and tests
package notify
