//go:build linux

package reactor

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestEpollReactorReportsWritability(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	r, err := NewReactor()
	if err != nil {
		t.Fatalf("new reactor: %v", err)
	}
	defer r.Close()

	const userData = 0xFEED
	if err := r.Register(uintptr(fds[0]), userData); err != nil {
		t.Fatalf("register: %v", err)
	}

	events := make([]Event, 4)
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := r.Wait(events, 100)
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		if n > 0 {
			if events[0].UserData != userData {
				t.Fatalf("want userData %d, got %d", userData, events[0].UserData)
			}
			if !events[0].Writable {
				t.Fatal("freshly connected socketpair fd should be writable")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reactor never reported writability")
		}
	}

	if err := r.Unregister(uintptr(fds[0])); err != nil {
		t.Fatalf("unregister: %v", err)
	}
}

func TestEpollReactorReportsReadability(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	r, err := NewReactor()
	if err != nil {
		t.Fatalf("new reactor: %v", err)
	}
	defer r.Close()

	if err := r.Register(uintptr(fds[0]), 7); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	events := make([]Event, 4)
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := r.Wait(events, 100)
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		found := false
		for i := 0; i < n; i++ {
			if events[i].Readable {
				found = true
			}
		}
		if found {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("reactor never reported readability")
		}
	}
}
