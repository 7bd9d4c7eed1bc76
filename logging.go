package sock

import (
	"github.com/wiresock/sock/control"
	"go.uber.org/zap"
)

// SetLogger installs l as the structured logger used for fatal I/O
// errors, registry growth, and pool exhaustion. Passing nil restores the
// no-op default so importing sock never forces logging output on a
// caller that hasn't asked for it.
func SetLogger(l *zap.Logger) {
	control.SetLogger(l)
}
