package core

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the core's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l as the core's logger. Call it once during startup,
// before the owning thread starts loading cores.
func SetLogger(l *zap.Logger) {
	logger = l
	loggerOnce.Do(func() {})
}
