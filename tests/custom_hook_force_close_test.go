package tests

import (
	"sync/atomic"
	"testing"

	"github.com/wiresock/sock"
	"github.com/wiresock/sock/hooks"
	"golang.org/x/sys/unix"
)

// TestCustomHookWriteErrorForcesCloseAndFiresOnClearOnce installs a hook
// whose Write always fails with EPROTO and checks that a subsequent
// write forces the connection closed, invoking OnClear exactly once.
func TestCustomHookWriteErrorForcesCloseAndFiresOnClearOnce(t *testing.T) {
	srv, client, accepted := dial(t)
	defer sock.ForceClose(srv)
	defer sock.ForceClose(client)

	var onClearCount int32
	h := &hooks.Table{
		Write: func(fd int, buf []byte) (int, error) {
			return 0, unix.EPROTO
		},
		OnClear: func(uuid int64, _ *hooks.Table) {
			atomic.AddInt32(&onClearCount, 1)
		},
	}
	if err := sock.RWHookSet(accepted, h); err != nil {
		t.Fatalf("rw hook set: %v", err)
	}

	if _, err := sock.Write(accepted, []byte("doomed")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if sock.IsValid(accepted) {
		t.Fatal("connection should have been force-closed by the failing hook")
	}
	if atomic.LoadInt32(&onClearCount) != 1 {
		t.Fatalf("OnClear called %d times, want exactly 1", onClearCount)
	}
}
