// Package xsync provides small synchronization primitives used on the
// hot write/flush path, where a full sync.Mutex is heavier than needed
// for the very short critical sections involved.
package xsync

import (
	"runtime"
	"sync/atomic"
)

// spinSpins is the number of bare CompareAndSwap attempts before a
// waiting goroutine yields the processor via runtime.Gosched.
const spinSpins = 32

// Spinlock is a mutual-exclusion primitive for short critical sections.
// Callers must not block or perform syscalls while holding it, except the
// read/write/flush hook calls and positional reads the package explicitly
// documents as callable under lock.
type Spinlock struct {
	held atomic.Bool
}

// Lock acquires the spinlock, busy-waiting until it succeeds.
func (s *Spinlock) Lock() {
	spins := 0
	for !s.held.CompareAndSwap(false, true) {
		spins++
		if spins > spinSpins {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock attempts to acquire the spinlock without blocking.
func (s *Spinlock) TryLock() bool {
	return s.held.CompareAndSwap(false, true)
}

// Unlock releases the spinlock. Unlocking an unheld lock is a caller bug.
func (s *Spinlock) Unlock() {
	s.held.Store(false)
}
