package restfit

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger receives the structured debug output. Key-value pairs alternate
// keys and values, slog style.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes formatted lines to standard output.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a console logger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.New(os.Stdout, "restfit ", log.LstdFlags|log.Lmicroseconds),
	}
}

// Debug logs at debug level.
func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) {
	l.write("DEBUG", msg, keysAndValues)
}

// Info logs at info level.
func (l *SimpleLogger) Info(msg string, keysAndValues ...any) {
	l.write("INFO", msg, keysAndValues)
}

// Warn logs at warn level.
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) {
	l.write("WARN", msg, keysAndValues)
}

// Error logs at error level.
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) {
	l.write("ERROR", msg, keysAndValues)
}

func (l *SimpleLogger) write(level, msg string, keysAndValues []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 != 0 {
		fmt.Fprintf(&b, " %v=?", keysAndValues[len(keysAndValues)-1])
	}
	l.logger.Println(b.String())
}
