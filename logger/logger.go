// Package logger is a minimal leveled logger in the style the retrieval
// pack's VNC libraries use internally instead of reaching for fmt.Println
// at call sites. It never alters encoder wire output: the level is a
// runtime toggle only (see spec.md §6, "Optional feature toggles").
package logger

import "fmt"

type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelError
	LogLevelNone
)

type Logger interface {
	Tracef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

type SimpleLogger struct {
	level LogLevel
}

func (sl *SimpleLogger) Tracef(format string, v ...interface{}) {
	if sl.level <= LogLevelTrace {
		fmt.Printf("[Trace] "+format+"\n", v...)
	}
}

func (sl *SimpleLogger) Debugf(format string, v ...interface{}) {
	if sl.level <= LogLevelDebug {
		fmt.Printf("[Debug] "+format+"\n", v...)
	}
}

func (sl *SimpleLogger) Errorf(format string, v ...interface{}) {
	if sl.level <= LogLevelError {
		fmt.Printf("[Error] "+format+"\n", v...)
	}
}

var simpleLogger = SimpleLogger{level: LogLevelNone}

// SetLevel adjusts the package-level verbosity. The default is silent.
func SetLevel(l LogLevel) { simpleLogger.level = l }

func Tracef(format string, v ...interface{}) { simpleLogger.Tracef(format, v...) }
func Debugf(format string, v ...interface{}) { simpleLogger.Debugf(format, v...) }
func Errorf(format string, v ...interface{}) { simpleLogger.Errorf(format, v...) }
