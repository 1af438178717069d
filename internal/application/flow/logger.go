// Package flow holds the view models of the validation-workflow UI: the
// status checker, the start flow, the pending approvals list and the
// decision modal. Renderers (console, CLI) read their View snapshots.
package flow

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func orNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}
