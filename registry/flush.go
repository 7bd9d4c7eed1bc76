package registry

import (
	"github.com/wiresock/sock/control"
	"github.com/wiresock/sock/hooks"
	"github.com/wiresock/sock/internal/ioerr"
	"github.com/wiresock/sock/packet"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Flush drains as much of uuid's write queue as the kernel will accept
// right now. It returns nil once the queue is empty (nothing left
// pending) or once a write would block; a non-nil error means the
// connection hit a fatal I/O error and has already been force-closed.
func (r *Registry) Flush(uuid int64) error {
	fd, gen := SplitUUID(uuid)
	if fd < 0 || fd >= len(r.slots) {
		return nil
	}
	e := r.slots[fd]

	e.mu.Lock()
	if !e.open || e.gen != gen {
		e.mu.Unlock()
		return nil
	}
	h := e.hooks
	e.mu.Unlock()

	if drained, err := drainTransportBuffer(fd, h); err != nil {
		control.Logger().Warn("transport flush failed, forcing close", zap.Int("fd", fd), zap.Error(err))
		r.ForceClose(uuid)
		return err
	} else if drained {
		// transport still has buffered bytes of its own; don't touch the
		// packet queue until it's clear.
		return nil
	}

	for {
		e.mu.Lock()
		if !e.open || e.gen != gen {
			e.mu.Unlock()
			return nil
		}
		pk := e.head
		if pk == nil {
			shouldClose := e.closing
			e.mu.Unlock()
			if shouldClose {
				r.ForceClose(uuid)
			}
			return nil
		}
		sent := e.sent
		hooks := e.hooks
		e.mu.Unlock()

		n, err := pk.Write(fd, hooks, sent)
		if err != nil {
			control.Logger().Warn("packet write failed, forcing close", zap.Int("fd", fd), zap.Error(err))
			r.ForceClose(uuid)
			return err
		}
		if n <= 0 {
			return nil // would block: try again on the next readiness event
		}

		e.mu.Lock()
		e.sent += n
		done := e.sent >= pk.Length
		if done {
			e.popHead()
			e.mu.Unlock()
			r.releasePacket(pk)
		} else {
			e.mu.Unlock()
		}
	}
}

// drainTransportBuffer gives the connection's Flush hook (e.g. TLS
// record buffering) a chance to push out anything it's holding before
// the packet queue is touched, mirroring facil.io's two-phase flush. It
// reports true when the hook still holds bytes it could not push out
// (it hit a transient error), false once the hook reports nothing left.
func drainTransportBuffer(fd int, h *hooks.Table) (bool, error) {
	for {
		n, err := h.Flush(fd)
		if err != nil {
			if ioerr.IsTransient(err) {
				return true, nil
			}
			return true, err
		}
		if n <= 0 {
			return false, nil
		}
	}
}

// releasePacket returns pk to the attached pool, if any.
func (r *Registry) releasePacket(pk *packet.Packet) {
	if r.pool != nil {
		r.pool.Release(pk)
	} else {
		pk.Recycle()
	}
}

// FlushStrong flushes uuid until its queue is empty or it hits a fatal
// error. It busy-polls rather than block, matching the "strong" flush's
// documented semantics: call it only when you're prepared to spin.
func (r *Registry) FlushStrong(uuid int64) error {
	for {
		if !r.HasPending(uuid) {
			return nil
		}
		if err := r.Flush(uuid); err != nil {
			return err
		}
		if !r.Validate(uuid) {
			return nil
		}
	}
}

// FlushAll calls Flush for every open fd with a non-empty queue. It's
// the backpressure hook the packet pool invokes when it runs out of
// pre-allocated packets, so progress happens without extra allocation.
func (r *Registry) FlushAll() {
	for fd, e := range r.slots {
		e.mu.Lock()
		pending := e.open && e.head != nil
		gen := e.gen
		e.mu.Unlock()
		if !pending {
			continue
		}
		r.Flush(MakeUUID(fd, gen))
	}
}

// ForceClose closes the underlying fd immediately, discarding any
// queued packets without sending them, and clears the registry slot.
func (r *Registry) ForceClose(uuid int64) {
	if !r.Validate(uuid) {
		return
	}
	fd, _ := SplitUUID(uuid)
	_ = unix.Shutdown(fd, unix.SHUT_RDWR)
	_ = unix.Close(fd)
	r.Clear(fd, false)
	control.Logger().Debug("connection force-closed", zap.Int("fd", fd), zap.Int64("uuid", uuid))
}

// Close marks uuid for disconnection once its queue drains, then kicks
// a flush to make progress immediately if possible.
func (r *Registry) Close(uuid int64) {
	fd, gen := SplitUUID(uuid)
	if fd < 0 || fd >= len(r.slots) {
		return
	}
	e := r.slots[fd]
	e.mu.Lock()
	if !e.open || e.gen != gen {
		e.mu.Unlock()
		return
	}
	e.closing = true
	hasQueue := e.head != nil
	e.mu.Unlock()
	if !hasQueue {
		r.ForceClose(uuid)
		return
	}
	r.Flush(uuid)
}
