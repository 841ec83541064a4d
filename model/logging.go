package model

import "log/slog"

// logger traces device lifecycle events at Debug level: context creation,
// kernel builds and frees. Kernel launches are not traced; they run once per
// timestep and the hot path stays quiet.
var logger = slog.Default()

// SetLogger routes the lifecycle trace to l. A nil l restores the process
// default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

func (dt DataType) String() string {
	if dt == Float32 {
		return "float32"
	}
	return "float64"
}
