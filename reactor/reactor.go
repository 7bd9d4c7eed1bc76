// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral event reactor interface for cross-platform IO
// multiplexing. This package is an optional convenience: sock's core
// registry and flush engine never require one, but reactorbridge uses
// it to drive Flush/FlushAll from real readiness events instead of
// polling.

package reactor

// EventReactor defines basic reactor operations across OS platforms.
type EventReactor interface {
	// Register adds fd to the watch set, tagged with userData (typically
	// a connection UUID) so Wait can report which connection fired.
	Register(fd uintptr, userData uintptr) error

	// Unregister removes fd from the watch set.
	Unregister(fd uintptr) error

	// Wait blocks until at least one event is available (or timeoutMs
	// elapses, if >= 0) and writes into events. Returns the number of
	// events written.
	Wait(events []Event, timeoutMs int) (n int, err error)

	// Close releases the reactor's underlying resources.
	Close() error
}

// Event contains event information returned by Wait call.
type Event struct {
	Fd       uintptr
	UserData uintptr
	Readable bool
	Writable bool
	Errored  bool
}
