// Package pool implements the fixed-size packet pool: grab never returns
// empty, release recycles a packet and routes it back to the free list or
// the general allocator depending on where it lives.
package pool

import (
	"sync"

	"github.com/wiresock/sock/control"
	"github.com/wiresock/sock/internal/xsync"
	"github.com/wiresock/sock/packet"
)

// node links a pool-resident packet into the free list without needing a
// separate allocation; the link lives in node, not in packet.Packet,
// because the free list and a connection's write queue must never share
// a link field (I3: a packet is present in exactly one queue).
type node struct {
	pk   packet.Packet
	next *node
}

// Pool is the process-wide packet allocator described in spec.md §4.B.
type Pool struct {
	mem  [packet.BufferPacketPool]node
	head *node
	lock xsync.Spinlock
	once sync.Once

	// flushAll is called when the pool is exhausted; it's expected to
	// release packets as connections drain their queues. Wired by the
	// root sock package at startup via SetFlushAll (alongside
	// registry.Registry.AttachPool) to avoid an import cycle between pool
	// and registry.
	flushAll func()
}

// New creates an empty, lazily-initialized packet pool.
func New() *Pool {
	return &Pool{}
}

// SetFlushAll installs the backpressure hook invoked by Grab when the
// pool is momentarily exhausted.
func (p *Pool) SetFlushAll(fn func()) {
	p.flushAll = fn
}

func (p *Pool) init() {
	p.once.Do(func() {
		for i := range p.mem {
			p.mem[i].pk.Recycle() // establish the neutral state once
			if i > 0 {
				p.mem[i-1].next = &p.mem[i]
			}
		}
		p.head = &p.mem[0]
	})
}

// TryGrab pops the free-list head, or returns nil if the pool is
// currently empty (the caller falls back to the general allocator).
func (p *Pool) TryGrab() *packet.Packet {
	p.init()
	p.lock.Lock()
	n := p.head
	if n != nil {
		p.head = n.next
		n.next = nil
	}
	p.lock.Unlock()
	if n == nil {
		return nil
	}
	return &n.pk
}

// Grab always returns a usable packet. If the static pool is exhausted it
// invokes the installed flushAll hook (which makes progress by draining
// connection queues and releasing their packets) and retries; if nothing
// is installed or that flush pass freed no packet, it spills to the
// general allocator so a burst of writers never deadlocks.
func (p *Pool) Grab() *packet.Packet {
	if pk := p.TryGrab(); pk != nil {
		return pk
	}
	if p.flushAll != nil {
		p.flushAll()
		if pk := p.TryGrab(); pk != nil {
			return pk
		}
	}
	control.Logger().Debug("packet pool exhausted, spilling to heap")
	return &packet.Packet{}
}

// Release recycles pk (invoking its release function exactly once and
// resetting it to a neutral state) and returns it to the free list if it
// is pool-resident, or drops it for the garbage collector otherwise.
func (p *Pool) Release(pk *packet.Packet) {
	pk.Recycle()
	n := p.nodeOf(pk)
	if n == nil {
		return // heap-overflow packet: nothing more to do
	}
	p.lock.Lock()
	n.next = p.head
	p.head = n
	p.lock.Unlock()
}

// Stats reports the static pool's current occupancy.
type Stats struct {
	Capacity int
	Free     int
	InUse    int
}

// Stats returns a snapshot of free-list occupancy, for metrics/debug
// probes.
func (p *Pool) Stats() Stats {
	p.init()
	free := 0
	p.lock.Lock()
	for n := p.head; n != nil; n = n.next {
		free++
	}
	p.lock.Unlock()
	return Stats{
		Capacity: len(p.mem),
		Free:     free,
		InUse:    len(p.mem) - free,
	}
}

// nodeOf returns the owning node if pk lies within the pool's static
// array, or nil if pk was heap-allocated overflow. The pool is small
// enough (BufferPacketPool entries) that a linear scan costs less than
// the unsafe pointer arithmetic it would take to avoid one.
func (p *Pool) nodeOf(pk *packet.Packet) *node {
	for i := range p.mem {
		if &p.mem[i].pk == pk {
			return &p.mem[i]
		}
	}
	return nil
}
