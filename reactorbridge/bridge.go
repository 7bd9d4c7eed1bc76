// Package reactorbridge wires an optional reactor.EventReactor to the
// registry's flush engine: a poller goroutine turns kernel readiness
// events into UUIDs pushed onto a queue, and a worker goroutine drains
// that queue by calling Flush, so callers get event-driven delivery
// instead of having to poll HasPending themselves.
//
// Author: momentics <momentics@gmail.com>
package reactorbridge

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/wiresock/sock/reactor"
	"github.com/wiresock/sock/registry"
)

// Bridge owns the poller and worker goroutines for one reactor instance.
type Bridge struct {
	r   reactor.EventReactor
	reg *registry.Registry

	mu    sync.Mutex
	ready *queue.Queue
	cond  *sync.Cond

	stopped atomic.Bool
	done    chan struct{}
}

// New starts a bridge between r and reg. Call Close to stop both of its
// goroutines.
func New(r reactor.EventReactor, reg *registry.Registry) *Bridge {
	b := &Bridge{
		r:     r,
		reg:   reg,
		ready: queue.New(),
		done:  make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.pollLoop()
	go b.flushLoop()
	return b
}

// Add registers uuid's underlying fd with the reactor so its readiness
// drives a future flush.
func (b *Bridge) Add(uuid int64, fd int) error {
	return b.r.Register(uintptr(fd), uintptr(uuid))
}

// Remove unregisters fd from the reactor, e.g. once its connection is
// closed.
func (b *Bridge) Remove(fd int) error {
	return b.r.Unregister(uintptr(fd))
}

func (b *Bridge) pollLoop() {
	events := make([]reactor.Event, 128)
	for {
		if b.stopped.Load() {
			return
		}
		n, err := b.r.Wait(events, 100)
		if err != nil || n == 0 {
			continue
		}
		b.mu.Lock()
		for i := 0; i < n; i++ {
			b.ready.Add(int64(events[i].UserData))
		}
		b.cond.Signal()
		b.mu.Unlock()
	}
}

func (b *Bridge) flushLoop() {
	for {
		b.mu.Lock()
		for b.ready.Length() == 0 && !b.stopped.Load() {
			b.cond.Wait()
		}
		if b.stopped.Load() {
			b.mu.Unlock()
			close(b.done)
			return
		}
		uuid := b.ready.Remove().(int64)
		b.mu.Unlock()

		b.reg.Flush(uuid)
	}
}

// Close stops the bridge's goroutines and closes the underlying
// reactor.
func (b *Bridge) Close() error {
	b.stopped.Store(true)
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
	<-b.done
	return b.r.Close()
}
