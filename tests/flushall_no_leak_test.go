package tests

import (
	"fmt"
	"testing"
	"time"

	"github.com/wiresock/sock"
	"github.com/wiresock/sock/control"
)

// TestFlushAllDrainsThreeConnectionsWithoutLeaks queues ten writes on
// each of three connections, calls FlushAll, and checks the packet pool
// reports the same in-use count afterward as it did before any writes
// were queued.
func TestFlushAllDrainsThreeConnectionsWithoutLeaks(t *testing.T) {
	mr := control.NewMetricsRegistry()
	sock.PublishMetrics(mr)
	before := mr.GetSnapshot()["sock.pool.in_use"]

	type conn struct{ srv, client, accepted sock.UUID }
	conns := make([]conn, 3)
	for i := range conns {
		srv, client, accepted := dial(t)
		conns[i] = conn{srv, client, accepted}
	}
	defer func() {
		for _, c := range conns {
			sock.ForceClose(c.srv)
			sock.ForceClose(c.client)
			sock.ForceClose(c.accepted)
		}
	}()

	for _, c := range conns {
		for i := 0; i < 10; i++ {
			msg := fmt.Sprintf("msg-%d", i)
			if _, err := sock.Write(c.accepted, []byte(msg)); err != nil {
				t.Fatalf("queue write: %v", err)
			}
		}
	}

	sock.FlushAll()

	deadline := time.Now().Add(2 * time.Second)
	for _, c := range conns {
		for sock.HasPending(c.accepted) {
			sock.FlushAll()
			if time.Now().After(deadline) {
				t.Fatal("flushAll never drained all connections")
			}
			time.Sleep(time.Millisecond)
		}
	}

	// Drain the client side so the server's writes don't linger in the
	// kernel socket buffer and keep fds readable past the test.
	buf := make([]byte, 4096)
	for _, c := range conns {
		for {
			n, err := sock.Read(c.client, buf)
			if err != nil || n == 0 {
				break
			}
		}
	}

	sock.PublishMetrics(mr)
	after := mr.GetSnapshot()["sock.pool.in_use"]
	if before != after {
		t.Fatalf("packet pool in-use changed from %v to %v: packets leaked", before, after)
	}
}
