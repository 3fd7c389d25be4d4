package fs

import (
	"sync"

	"github.com/bft-labs/mailship/internal/ports"
)

// recordingLogger implements ports.Logger and keeps error messages for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (*recordingLogger) Debug(msg string, fields ...ports.Field) {}
func (*recordingLogger) Info(msg string, fields ...ports.Field)  {}
func (*recordingLogger) Warn(msg string, fields ...ports.Field)  {}
func (l *recordingLogger) Error(msg string, fields ...ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.errors...)
}
