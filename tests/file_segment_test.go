package tests

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wiresock/sock"
	"golang.org/x/sys/unix"
)

// TestFileSegmentSendClosesFDExactlyOnce queues a 100-byte file segment
// and checks the caller-supplied closer runs exactly once once the
// segment has fully drained.
func TestFileSegmentSendClosesFDExactlyOnce(t *testing.T) {
	srv, client, accepted := dial(t)
	defer sock.ForceClose(srv)
	defer sock.ForceClose(client)
	defer sock.ForceClose(accepted)

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	f, err := os.CreateTemp(t.TempDir(), "segment")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	if _, err := f.Write(payload); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	path := f.Name()
	f.Close()

	srcFD, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var closeCount int32
	err = sock.Write2(sock.WriteOptions{
		UUID:   accepted,
		Buffer: srcFD,
		Length: len(payload),
		IsFD:   true,
		Closer: func(fd int) error {
			atomic.AddInt32(&closeCount, 1)
			return unix.Close(fd)
		},
	})
	if err != nil {
		t.Fatalf("write2: %v", err)
	}

	flushUntilDrained(t, accepted, 2*time.Second)

	buf := make([]byte, len(payload))
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < len(payload) {
		n := readEventually(t, client, buf[got:])
		got += n
		if time.Now().After(deadline) {
			t.Fatalf("timed out reading file segment, got %d of %d bytes", got, len(payload))
		}
	}
	if string(buf) != string(payload) {
		t.Fatalf("file segment mismatch")
	}
	if atomic.LoadInt32(&closeCount) != 1 {
		t.Fatalf("closer called %d times, want exactly 1", closeCount)
	}
}
