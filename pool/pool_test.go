package pool

import (
	"sync"
	"testing"

	"github.com/wiresock/sock/packet"
)

func TestGrabReleaseRoundTrip(t *testing.T) {
	p := New()
	pk := p.TryGrab()
	if pk == nil {
		t.Fatal("want non-nil packet from fresh pool")
	}
	pk.SetInline([]byte("x"))
	p.Release(pk)

	pk2 := p.TryGrab()
	if pk2 == nil {
		t.Fatal("want packet back on free list after release")
	}
	if pk2.Length != 0 {
		t.Fatalf("want recycled packet neutral, got length=%d", pk2.Length)
	}
}

func TestTryGrabExhaustionReturnsNil(t *testing.T) {
	p := New()
	var grabbed []*packet.Packet
	for i := 0; i < packet.BufferPacketPool; i++ {
		pk := p.TryGrab()
		if pk == nil {
			t.Fatalf("pool exhausted early at %d", i)
		}
		grabbed = append(grabbed, pk)
	}
	if pk := p.TryGrab(); pk != nil {
		t.Fatal("want nil once the static pool is exhausted")
	}
	for _, pk := range grabbed {
		p.Release(pk)
	}
}

func TestGrabSpillsToHeapWithoutFlushHook(t *testing.T) {
	p := New()
	for i := 0; i < packet.BufferPacketPool; i++ {
		if pk := p.TryGrab(); pk == nil {
			t.Fatalf("pool exhausted early at %d", i)
		}
	}
	// No flushAll installed: Grab must spill rather than block forever.
	pk := p.Grab()
	if pk == nil {
		t.Fatal("want a heap-overflow packet, got nil")
	}
	p.Release(pk) // must be a silent no-op, not a panic
}

func TestGrabRetriesFlushAllOnExhaustion(t *testing.T) {
	p := New()
	var held []*packet.Packet
	for i := 0; i < packet.BufferPacketPool; i++ {
		held = append(held, p.TryGrab())
	}

	var mu sync.Mutex
	released := false
	p.SetFlushAll(func() {
		mu.Lock()
		defer mu.Unlock()
		if released {
			return
		}
		released = true
		p.Release(held[0])
	})

	pk := p.Grab()
	if pk == nil {
		t.Fatal("want a packet returned after flushAll frees one")
	}
	if !released {
		t.Fatal("want flushAll invoked before Grab succeeded")
	}
	p.Release(pk)
	for _, h := range held[1:] {
		p.Release(h)
	}
}

func TestConcurrentGrabRelease(t *testing.T) {
	p := New()
	const workers = 8
	const iterations = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				pk := p.Grab()
				pk.SetInline([]byte("payload"))
				p.Release(pk)
			}
		}()
	}
	wg.Wait()
}

func TestReleaseOfHeapPacketIsNoop(t *testing.T) {
	p := New()
	pk := &packet.Packet{}
	pk.SetInline([]byte("heap"))
	p.Release(pk) // must not panic or corrupt the free list
	if n := p.TryGrab(); n == nil {
		t.Fatal("pool should still hand out its own packets after a foreign release")
	}
}
