package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogType is stored in the log_type field; OutputRouterHook picks a
// destination from it.
type LogType string

const (
	UserLog LogType = "user"
	OpLog   LogType = "op"
)

// UnifiedLogger holds the one logrus instance that User and Op share, so a
// single Setup call reconfigures both streams.
type UnifiedLogger struct {
	mu sync.RWMutex
	l  *logrus.Logger
}

var (
	shared     *UnifiedLogger
	sharedOnce sync.Once
)

// GetLogger returns the process-wide logger. Before Setup runs it prints
// plain user lines at info level to stdout.
func GetLogger() *UnifiedLogger {
	sharedOnce.Do(func() {
		shared = &UnifiedLogger{l: &logrus.Logger{
			Out:       os.Stdout,
			Hooks:     make(logrus.LevelHooks),
			Formatter: &CLIFormatter{DisableTimestamp: true, DisableLevel: true},
			Level:     logrus.InfoLevel,
			ExitFunc:  os.Exit,
		}}
	})
	return shared
}

func (u *UnifiedLogger) GetInternalLogger() *logrus.Logger {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.l
}
