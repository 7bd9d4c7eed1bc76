package registry

import (
	"github.com/wiresock/sock/hooks"
	"github.com/wiresock/sock/internal/xsync"
	"github.com/wiresock/sock/packet"
)

// entry is the per-fd slot in the registry's table. Every field except
// gen is only meaningful while open is true; gen survives Clear so a
// stale UUID from before the fd was last closed can be recognized as
// stale instead of silently addressing the fd's new occupant.
type entry struct {
	mu xsync.Spinlock

	gen uint8
	open,
	closing,
	erred bool

	sent int
	head *packet.Packet
	tail *packet.Packet

	hooks *hooks.Table
}

// drained is the queue and hooks state swapped out of an entry by reset
// or clear, handed back to the caller so it can release packets and
// invoke the outgoing hooks' OnClear outside the entry's own lock.
type drained struct {
	head  *packet.Packet
	hooks *hooks.Table
}

// reset bumps the generation counter and installs a fresh slot for fd,
// open for business under the default hooks. Any packets and hooks the
// slot previously held are returned so the caller can dispose of them;
// the generation always advances here, whether or not the slot was
// previously in use, so a UUID minted before this call never matches
// again.
func (e *entry) reset() drained {
	old := drained{head: e.head, hooks: e.hooks}
	e.gen++
	e.open = true
	e.closing = false
	e.erred = false
	e.sent = 0
	e.head = nil
	e.tail = nil
	e.hooks = hooks.Default()
	return old
}

// clear advances the generation and marks the slot's openness as
// isOpen: true keeps the slot addressable as a live (if soon-to-be-
// reassigned) fd, false reports it fully closed. Either way the
// existing write queue and hooks are evicted and returned for disposal.
func (e *entry) clear(isOpen bool) drained {
	old := drained{head: e.head, hooks: e.hooks}
	e.gen++
	e.open = isOpen
	e.closing = false
	e.erred = false
	e.sent = 0
	e.head = nil
	e.tail = nil
	e.hooks = nil
	return old
}

// pushTail appends pk to the end of the write queue.
func (e *entry) pushTail(pk *packet.Packet) {
	pk.Next = nil
	if e.tail == nil {
		e.head = pk
		e.tail = pk
		return
	}
	e.tail.Next = pk
	e.tail = pk
}

// pushUrgent inserts pk ahead of the rest of the queue. If the current
// head is already partway transmitted (sent > 0) pk goes in right after
// it so the in-flight packet isn't split; otherwise pk becomes the new
// head.
func (e *entry) pushUrgent(pk *packet.Packet) {
	if e.head == nil {
		e.head = pk
		e.tail = pk
		pk.Next = nil
		return
	}
	if e.sent > 0 {
		pk.Next = e.head.Next
		e.head.Next = pk
		if e.tail == e.head {
			e.tail = pk
		}
		return
	}
	pk.Next = e.head
	e.head = pk
}

// popHead removes and returns the current head packet, if any.
func (e *entry) popHead() *packet.Packet {
	pk := e.head
	if pk == nil {
		return nil
	}
	e.head = pk.Next
	if e.head == nil {
		e.tail = nil
	}
	pk.Next = nil
	e.sent = 0
	return pk
}
