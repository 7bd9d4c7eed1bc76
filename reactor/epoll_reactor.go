//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll implementation.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// epollReactor implements EventReactor using Linux epoll. userData is
// tracked out of band, keyed by fd, rather than packed into the kernel
// event's data union, since this package only needs fd-keyed lookup and
// not raw union access.
type epollReactor struct {
	epfd     int
	userData sync.Map // map[uintptr]uintptr
}

// NewReactor constructs a new platform-specific EventReactor for Linux.
func NewReactor() (EventReactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll create: %w", err)
	}
	return &epollReactor{epfd: epfd}, nil
}

// Register adds fd to the epoll watch list for read and write readiness.
func (r *epollReactor) Register(fd uintptr, userData uintptr) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return fmt.Errorf("reactor: epoll ctl add: %w", err)
	}
	r.userData.Store(fd, userData)
	return nil
}

// Unregister removes fd from the epoll watch list.
func (r *epollReactor) Unregister(fd uintptr) error {
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("reactor: epoll ctl del: %w", err)
	}
	r.userData.Delete(fd)
	return nil
}

// Wait blocks for readiness events, translating raw epoll flags into
// the package's platform-neutral Event shape.
func (r *epollReactor) Wait(out []Event, timeoutMs int) (int, error) {
	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(r.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("reactor: epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		fd := uintptr(raw[i].Fd)
		var userData uintptr
		if v, ok := r.userData.Load(fd); ok {
			userData = v.(uintptr)
		}
		out[i] = Event{
			Fd:       fd,
			UserData: userData,
			Readable: raw[i].Events&unix.EPOLLIN != 0,
			Writable: raw[i].Events&unix.EPOLLOUT != 0,
			Errored:  raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
		}
	}
	return n, nil
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
