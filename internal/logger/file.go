package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions controls log file rotation.
type FileOptions struct {
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int
}

// DefaultFileOptions returns rotation defaults suitable for long sync runs.
func DefaultFileOptions() FileOptions {
	return FileOptions{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
}

// ToFile routes all log output to a rotating file at path and enables
// timestamps. The returned closer must be closed on exit.
func ToFile(path string, opts FileOptions) io.WriteCloser {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	SetOutput(w)
	SetTimestamps(true)
	return w
}
