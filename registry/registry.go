package registry

import (
	"github.com/wiresock/sock/control"
	"github.com/wiresock/sock/hooks"
	"github.com/wiresock/sock/internal/xsync"
	"github.com/wiresock/sock/packet"
	"go.uber.org/zap"
)

const minCapacity = 1024

// packetReleaser is satisfied by *pool.Pool; it's expressed as an
// interface here, rather than importing the pool package directly, to
// keep registry free of a pool -> registry -> pool import cycle (the
// pool's backpressure hook calls back into the registry's FlushAll).
type packetReleaser interface {
	Release(*packet.Packet)
}

// Registry is the process-wide fd -> entry table. It grows on demand and
// never shrinks: a slot is reused (via reset) rather than freed, so a
// UUID minted before a grow is still validated against the same
// generation-tagged slot afterward.
type Registry struct {
	growMu xsync.Spinlock
	slots  []*entry
	pool   packetReleaser
}

// New constructs an empty registry pre-sized to minCapacity, matching
// the table's usual steady-state fd range for a long-lived server.
func New() *Registry {
	r := &Registry{slots: make([]*entry, minCapacity)}
	for i := range r.slots {
		r.slots[i] = &entry{}
	}
	return r
}

var defaultRegistry = New()

// Default returns the process-wide registry used by the package-level
// convenience functions in the root sock package.
func Default() *Registry { return defaultRegistry }

// AttachPool wires the packet pool that owns packets flowing through
// this registry's entries, so Clear/reset can return evicted packets to
// it instead of merely dropping them for the garbage collector.
func (r *Registry) AttachPool(p packetReleaser) {
	r.pool = p
}

// releaseChain returns every packet in the chain starting at head to the
// pool (or lets it go if no pool is attached).
func (r *Registry) releaseChain(head *packet.Packet) {
	for pk := head; pk != nil; {
		next := pk.Next
		if r.pool != nil {
			r.pool.Release(pk)
		} else {
			pk.Recycle()
		}
		pk = next
	}
}

// grow ensures the table can address fd, expanding to at least double
// its current size (or to fd+1, if that is larger) so repeated single-fd
// growth doesn't degrade into O(n^2) reallocation under a slow fd ramp.
func (r *Registry) grow(fd int) {
	r.growMu.Lock()
	defer r.growMu.Unlock()
	if fd < len(r.slots) {
		return
	}
	newCap := len(r.slots) * 2
	if newCap < fd+1 {
		newCap = fd + 1
	}
	if newCap < minCapacity {
		newCap = minCapacity
	}
	oldCap := len(r.slots)
	grown := make([]*entry, newCap)
	copy(grown, r.slots)
	for i := oldCap; i < newCap; i++ {
		grown[i] = &entry{}
	}
	r.slots = grown
	control.Logger().Debug("registry grown", zap.Int("old_capacity", oldCap), zap.Int("new_capacity", newCap))
}

func (r *Registry) slot(fd int) *entry {
	if fd >= len(r.slots) {
		r.grow(fd)
	}
	return r.slots[fd]
}

// Open claims the slot for fd, bumping its generation counter, and
// returns the freshly minted UUID for the caller to hand back to
// clients. Any packets left over from a prior occupant of this fd are
// released and its outgoing hooks' OnClear is invoked with the UUID
// that's now stale.
func (r *Registry) Open(fd int) int64 {
	e := r.slot(fd)
	e.mu.Lock()
	old := e.reset()
	gen := e.gen
	e.mu.Unlock()

	r.releaseChain(old.head)
	if old.hooks != nil && old.hooks.OnClear != nil {
		old.hooks.OnClear(MakeUUID(fd, gen-1), old.hooks)
	}
	return MakeUUID(fd, gen)
}

// Clear marks fd's slot closed. isOpen mirrors facil.io's clear_fd
// semantics: true means the fd is still a live descriptor being
// recycled for reuse by the OS (generation must still advance so old
// UUIDs are rejected), false means it's being reported closed with no
// fd reuse implied yet. Any queued packets are released and the
// outgoing hooks' OnClear is invoked exactly once with the UUID that's
// now stale.
func (r *Registry) Clear(fd int, isOpen bool) {
	if fd < 0 || fd >= len(r.slots) {
		return
	}
	e := r.slots[fd]
	e.mu.Lock()
	gen := e.gen
	old := e.clear(isOpen)
	e.mu.Unlock()

	uuid := MakeUUID(fd, gen)
	r.releaseChain(old.head)
	if old.hooks != nil && old.hooks.OnClear != nil {
		old.hooks.OnClear(uuid, old.hooks)
	}
}

// Validate reports whether uuid still addresses the fd's current
// occupant, i.e. the slot is open and its generation matches.
func (r *Registry) Validate(uuid int64) bool {
	fd, gen := SplitUUID(uuid)
	if fd < 0 || fd >= len(r.slots) {
		return false
	}
	e := r.slots[fd]
	e.mu.Lock()
	ok := e.open && e.gen == gen
	e.mu.Unlock()
	return ok
}

// IsValid is an alias for Validate matching the public API's naming.
func (r *Registry) IsValid(uuid int64) bool { return r.Validate(uuid) }

// FD2UUID returns the current UUID for an open fd, or (0, false) if the
// fd isn't tracked as open.
func (r *Registry) FD2UUID(fd int) (int64, bool) {
	if fd < 0 || fd >= len(r.slots) {
		return 0, false
	}
	e := r.slots[fd]
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return 0, false
	}
	return MakeUUID(fd, e.gen), true
}

// HasPending reports whether uuid has packets still queued for write.
func (r *Registry) HasPending(uuid int64) bool {
	fd, gen := SplitUUID(uuid)
	if fd < 0 || fd >= len(r.slots) {
		return false
	}
	e := r.slots[fd]
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open && e.gen == gen && e.head != nil
}

// HooksFor returns the hook table installed for (fd, gen), or nil if
// that generation is no longer the slot's current occupant.
func (r *Registry) HooksFor(fd int, gen uint8) *hooks.Table {
	if fd < 0 || fd >= len(r.slots) {
		return nil
	}
	e := r.slots[fd]
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || e.gen != gen {
		return nil
	}
	return e.hooks
}

// SetHooks installs h for (fd, gen), returning false if that generation
// is no longer current.
func (r *Registry) SetHooks(fd int, gen uint8, h *hooks.Table) bool {
	if fd < 0 || fd >= len(r.slots) {
		return false
	}
	e := r.slots[fd]
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || e.gen != gen {
		return false
	}
	e.hooks = h
	return true
}

// Stats reports coarse registry occupancy for metrics/debug probes.
type Stats struct {
	Capacity int
	Open     int
	Pending  int // open connections with a non-empty write queue
}

// Stats returns a snapshot of the registry's current occupancy.
func (r *Registry) Stats() Stats {
	s := Stats{Capacity: len(r.slots)}
	for _, e := range r.slots {
		e.mu.Lock()
		if e.open {
			s.Open++
			if e.head != nil {
				s.Pending++
			}
		}
		e.mu.Unlock()
	}
	return s
}
