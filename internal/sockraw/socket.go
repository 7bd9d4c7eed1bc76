// Package sockraw wraps the raw, non-blocking socket syscalls that back
// the registry's Listen/Accept/Connect/Open entry points, generalized
// from this codebase's existing Linux transport socket setup.
//
// Author: momentics <momentics@gmail.com>
package sockraw

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Listen creates a non-blocking TCP listening socket bound to sa
// ("host:port" via net-style resolution isn't used here; sa is an
// already-resolved unix.SockaddrInet4/6) and returns its fd.
func Listen(sa unix.Sockaddr) (int, error) {
	family := unix.AF_INET
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		family = unix.AF_INET6
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("sockraw: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("sockraw: reuseaddr: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("sockraw: bind: %w", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("sockraw: listen: %w", err)
	}
	return fd, nil
}

// Accept accepts one pending connection from a listening fd, returning
// the new non-blocking client fd. It returns unix.EAGAIN, unwrapped, when
// nothing is pending.
func Accept(listenFD int) (int, error) {
	fd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, err
	}
	return fd, nil
}

// Connect starts a non-blocking connection attempt to sa, returning the
// new fd immediately; the connection may still be in progress
// (EINPROGRESS) when this returns, and the caller must wait for
// writability before trusting the socket.
func Connect(sa unix.Sockaddr) (int, error) {
	family := unix.AF_INET
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		family = unix.AF_INET6
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("sockraw: socket: %w", err)
	}
	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return -1, fmt.Errorf("sockraw: connect: %w", err)
	}
	return fd, nil
}

// SetNonBlock toggles O_NONBLOCK on an arbitrary fd, for callers handing
// an externally obtained descriptor to Open.
func SetNonBlock(fd int, nonblocking bool) error {
	return unix.SetNonblock(fd, nonblocking)
}
