package logger

import (
	"sync"
	"sync/atomic"
)

type LoggerArg struct {
	Key   string
	Value string
}

type GlobalLoggerConfig struct {
	Args  []LoggerArg
	Level *LoggerConfig
}

var (
	defaultLogger atomic.Pointer[Logger]
	onceLogger    sync.Once
)

func InitDefaultLogger(config GlobalLoggerConfig) {
	onceLogger.Do(func() {
		var l *Logger
		if config.Level != nil {
			l = NewFromConfig(*config.Level)
		} else {
			l = New()
		}

		fields := make(map[string]string, len(config.Args))
		for _, arg := range config.Args {
			fields[arg.Key] = arg.Value
		}
		if len(fields) > 0 {
			l = l.WithFields(fields)
		}

		defaultLogger.Store(l)
	})
}

// Default is safe to call from any goroutine once InitDefaultLogger has run.
func Default() *Logger {
	l := defaultLogger.Load()
	if l == nil {
		panic("Default logger not initialized: call InitDefaultLogger() first")
	}
	return l
}
