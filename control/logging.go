// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Injectable structured logger for the rest of the module. Defaults to
// a no-op so importing sock never forces a logging dependency on a
// caller that doesn't want one.
package control

import "go.uber.org/zap"

var logger *zap.Logger = zap.NewNop()

// SetLogger installs l as the process-wide logger. Passing nil restores
// the no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Logger returns the currently installed logger.
func Logger() *zap.Logger {
	return logger
}
