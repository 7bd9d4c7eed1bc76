// Package hooks defines the pluggable read/write/flush/on-clear quartet
// that lets a transport layer (e.g. TLS) sit between the write pipeline
// and the raw socket without callers changing anything.
package hooks

import "golang.org/x/sys/unix"

// Table is a caller-installable set of I/O hooks for one connection.
// A replacement table need only supply Read and Write; missing entries
// are backfilled with the defaults at install time (see Fill).
type Table struct {
	// Read attempts to read up to len(buf) bytes for the connection
	// identified by fd. Return value and error semantics match unix.Read.
	Read func(fd int, buf []byte) (int, error)

	// Write attempts to send buf for the connection identified by fd.
	Write func(fd int, buf []byte) (int, error)

	// Flush drains any transport-internal buffering. It returns >0 while
	// more remains to be flushed, 0 when done, and an error on failure.
	Flush func(fd int) (int, error)

	// OnClear is invoked exactly once, with the UUID that is about to be
	// invalidated, when the owning connection slot is cleared.
	OnClear func(uuid int64, hooks *Table)
}

func defaultRead(fd int, buf []byte) (int, error)  { return unix.Read(fd, buf) }
func defaultWrite(fd int, buf []byte) (int, error) { return unix.Write(fd, buf) }
func defaultFlush(int) (int, error)                { return 0, nil }
func defaultOnClear(int64, *Table)                 {}

// defaultTable is the process-wide singleton installed on every freshly
// cleared registry entry. It must never be mutated.
var defaultTable = &Table{
	Read:    defaultRead,
	Write:   defaultWrite,
	Flush:   defaultFlush,
	OnClear: defaultOnClear,
}

// Default returns the shared default hook table.
func Default() *Table { return defaultTable }

// IsDefault reports whether t is the shared default table. The file
// segment writer uses this to decide whether the sendfile fast path is
// safe: a non-default table (e.g. TLS) must see every byte through
// Write, so sendfile would silently bypass it.
func IsDefault(t *Table) bool { return t == defaultTable }

// Fill returns a copy of t with any nil field replaced by the matching
// default hook, following the install-time backfill rule.
func Fill(t *Table) *Table {
	if t == nil {
		return defaultTable
	}
	filled := *t
	if filled.Read == nil {
		filled.Read = defaultRead
	}
	if filled.Write == nil {
		filled.Write = defaultWrite
	}
	if filled.Flush == nil {
		filled.Flush = defaultFlush
	}
	if filled.OnClear == nil {
		filled.OnClear = defaultOnClear
	}
	return &filled
}
