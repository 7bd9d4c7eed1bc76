package tests

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/wiresock/sock"
)

// freePort finds an unused TCP port by briefly binding to port 0 via the
// standard library and releasing it; sock.Listen then rebinds the same
// port directly through the raw socket path under test.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("freePort: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// dial opens a loopback listener and connects to it, returning the
// listener, client, and server-accepted UUIDs once the handshake
// completes.
func dial(t *testing.T) (srv, client, accepted sock.UUID) {
	t.Helper()
	addr := fmt.Sprintf("127.0.0.1:%d", freePort(t))

	srv, err := sock.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	client, err = sock.Connect("tcp", addr)
	if err != nil {
		sock.ForceClose(srv)
		t.Fatalf("connect: %v", err)
	}

	accepted = acceptEventually(t, srv)
	return srv, client, accepted
}

func acceptEventually(t *testing.T, srv sock.UUID) sock.UUID {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		u, err := sock.Accept(srv)
		if err == nil {
			return u
		}
		if time.Now().After(deadline) {
			t.Fatalf("accept timed out: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

func readEventually(t *testing.T, u sock.UUID, buf []byte) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := sock.Read(u, buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if n > 0 {
			return n
		}
		if time.Now().After(deadline) {
			t.Fatalf("read timed out waiting for data")
		}
		time.Sleep(time.Millisecond)
	}
}

func flushUntilDrained(t *testing.T, u sock.UUID, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for sock.HasPending(u) {
		if err := sock.Flush(u); err != nil {
			t.Fatalf("flush: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatalf("flush never drained the queue")
		}
		time.Sleep(time.Millisecond)
	}
}
