package registry

import "github.com/wiresock/sock/packet"

// Enqueue appends (or, if urgent, fast-tracks) pk onto uuid's write
// queue and immediately attempts a flush so data that fits goes out
// without waiting for the next readiness event. It returns false if
// uuid no longer identifies an open connection, in which case the
// caller is responsible for disposing of pk.
func (r *Registry) Enqueue(uuid int64, pk *packet.Packet, urgent bool) bool {
	fd, gen := SplitUUID(uuid)
	if fd < 0 || fd >= len(r.slots) {
		return false
	}
	e := r.slots[fd]
	e.mu.Lock()
	if !e.open || e.gen != gen {
		e.mu.Unlock()
		return false
	}
	if urgent {
		e.pushUrgent(pk)
	} else {
		e.pushTail(pk)
	}
	e.mu.Unlock()

	r.Flush(uuid)
	return true
}
