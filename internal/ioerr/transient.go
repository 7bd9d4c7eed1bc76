// Package ioerr classifies socket errors the way the write pipeline and
// flush engine need to: transient conditions that mean "try again later"
// versus fatal conditions that force a connection closed.
package ioerr

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsTransient reports whether err represents EAGAIN, EWOULDBLOCK, EINTR,
// or ENOTCONN — conditions that must never be escalated to a close.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.ENOTCONN)
}
