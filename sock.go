package sock

import (
	"fmt"
	"net"
	"strconv"

	"github.com/wiresock/sock/hooks"
	"github.com/wiresock/sock/internal/sockraw"
	"github.com/wiresock/sock/packet"
	"github.com/wiresock/sock/pool"
	"github.com/wiresock/sock/registry"
	"golang.org/x/sys/unix"
)

// UUID identifies a connection independently of its underlying fd,
// surviving fd reuse by pairing the fd with a generation counter (see
// registry.MakeUUID). The zero value is never valid.
type UUID = int64

var (
	defaultRegistry = registry.Default()
	defaultPool     = pool.New()
)

func init() {
	defaultRegistry.AttachPool(defaultPool)
	defaultPool.SetFlushAll(defaultRegistry.FlushAll)
}

func resolveTCP(network, addr string) (unix.Sockaddr, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("sock: invalid port %q: %w", portStr, err)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return nil, fmt.Errorf("sock: cannot resolve %q", host)
		}
		ip = ips[0]
	}
	if ip4 := ip.To4(); ip4 != nil {
		var a [4]byte
		copy(a[:], ip4)
		return &unix.SockaddrInet4{Port: port, Addr: a}, nil
	}
	var a [16]byte
	copy(a[:], ip.To16())
	return &unix.SockaddrInet6{Port: port, Addr: a}, nil
}

// Listen opens a non-blocking listening socket on addr and returns its
// UUID. network is presently expected to be "tcp", "tcp4" or "tcp6".
func Listen(network, addr string) (UUID, error) {
	sa, err := resolveTCP(network, addr)
	if err != nil {
		return 0, err
	}
	fd, err := sockraw.Listen(sa)
	if err != nil {
		return 0, err
	}
	return defaultRegistry.Open(fd), nil
}

// Accept accepts one pending connection on the listening socket srv. It
// returns unix.EAGAIN, unwrapped, when nothing is pending.
func Accept(srv UUID) (UUID, error) {
	fd, _ := registry.SplitUUID(srv)
	if !defaultRegistry.IsValid(srv) {
		return 0, fmt.Errorf("sock: accept on invalid uuid")
	}
	client, err := sockraw.Accept(fd)
	if err != nil {
		return 0, err
	}
	return defaultRegistry.Open(client), nil
}

// Connect starts a non-blocking outbound connection to addr. The
// connection may still be in progress (not yet writable) when this
// returns.
func Connect(network, addr string) (UUID, error) {
	sa, err := resolveTCP(network, addr)
	if err != nil {
		return 0, err
	}
	fd, err := sockraw.Connect(sa)
	if err != nil {
		return 0, err
	}
	return defaultRegistry.Open(fd), nil
}

// Open adopts an existing, externally created fd for use with the rest
// of this package's functions, setting it non-blocking first.
func Open(fd int) (UUID, error) {
	if err := sockraw.SetNonBlock(fd, true); err != nil {
		return 0, err
	}
	return defaultRegistry.Open(fd), nil
}

// IsValid reports whether u still addresses its originally opened
// connection.
func IsValid(u UUID) bool { return defaultRegistry.IsValid(u) }

// FD2UUID returns the current UUID for fd, or 0 if fd isn't tracked as
// open.
func FD2UUID(fd int) UUID {
	u, ok := defaultRegistry.FD2UUID(fd)
	if !ok {
		return 0
	}
	return u
}

// Read reads up to len(buf) bytes through u's installed hooks. It
// returns (0, nil) on a transient error (nothing to read right now) and
// force-closes the connection on any other error, matching facil.io's
// sock_read contract.
func Read(u UUID, buf []byte) (int, error) {
	fd, gen := registry.SplitUUID(u)
	if !defaultRegistry.Validate(u) {
		return -1, unix.EBADF
	}
	h := RWHookGet(u)
	if h == nil {
		return -1, unix.EBADF
	}
	n, err := h.Read(fd, buf)
	if n > 0 {
		return n, nil
	}
	if err != nil && transientRead(err) {
		return 0, nil
	}
	defaultRegistry.ForceClose(registry.MakeUUID(fd, gen))
	if err == nil {
		err = unix.ECONNRESET
	}
	return -1, err
}

func transientRead(err error) bool {
	switch err {
	case unix.EAGAIN, unix.EINTR, unix.ENOTCONN:
		return true
	}
	return false
}

// Write queues buf as an inline copy (or a heap copy, if it's larger
// than the packet pool's inline capacity) for u, then attempts an
// immediate flush.
func Write(u UUID, buf []byte) (int, error) {
	err := Write2(WriteOptions{UUID: u, Buffer: buf, Length: len(buf)})
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Write2 is the general write entry point backing Write, BufferSend, and
// file-segment sends: see WriteOptions for the full option set.
func Write2(opts WriteOptions) error {
	if !defaultRegistry.Validate(opts.UUID) {
		return unix.EBADF
	}
	pk := defaultPool.Grab()

	if opts.IsFD {
		fd, _ := opts.Buffer.(int)
		closer := opts.Closer
		if closer == nil {
			closer = func(fd int) error { return unix.Close(fd) }
		}
		pk.SetFile(fd, opts.Offset, opts.Length, closer)
	} else {
		data, _ := opts.Buffer.([]byte)
		switch {
		case opts.Move:
			dealloc := opts.Dealloc
			if dealloc == nil {
				dealloc = func([]byte) {}
			}
			pk.SetMemory(data[:opts.Length], data, dealloc)
		case opts.Length > packet.BufferPacketSize:
			// too large for the packet's inline buffer: take an owned copy
			// rather than force the caller to keep the original alive.
			owned := append([]byte(nil), data[:opts.Length]...)
			pk.SetMemory(owned, owned, func([]byte) {})
		default:
			pk.SetInline(data[:opts.Length])
		}
	}

	if !defaultRegistry.Enqueue(opts.UUID, pk, opts.Urgent) {
		defaultPool.Release(pk)
		return unix.EBADF
	}
	// Attempt delivery immediately rather than waiting for the next
	// reactor readiness event; a blocked kernel buffer just leaves the
	// packet queued for the next Flush/FlushAll pass.
	_ = defaultRegistry.Flush(opts.UUID)
	return nil
}

// BufferCheckout grabs a pool packet for the caller to fill directly via
// Packet.Buffer(), avoiding an extra copy for callers that already build
// their payload in packet-sized chunks.
func BufferCheckout() *packet.Packet {
	return defaultPool.Grab()
}

// BufferSend queues a packet obtained from BufferCheckout. The caller
// must have called p.SetInlineLength to mark how much of p.Buffer() is
// valid.
func BufferSend(u UUID, p *packet.Packet) error {
	if !defaultRegistry.Enqueue(u, p, false) {
		defaultPool.Release(p)
		return unix.EBADF
	}
	_ = defaultRegistry.Flush(u)
	return nil
}

// BufferFree releases a packet obtained from BufferCheckout without
// sending it.
func BufferFree(p *packet.Packet) {
	defaultPool.Release(p)
}

// Flush drains u's write queue as far as the kernel currently allows.
func Flush(u UUID) error { return defaultRegistry.Flush(u) }

// FlushStrong busy-polls Flush until u's queue is empty or a fatal error
// occurs.
func FlushStrong(u UUID) { defaultRegistry.FlushStrong(u) }

// FlushAll flushes every open connection with pending writes.
func FlushAll() { defaultRegistry.FlushAll() }

// HasPending reports whether u has data still queued to be written.
func HasPending(u UUID) bool { return defaultRegistry.HasPending(u) }

// Close marks u for disconnection once its queue drains.
func Close(u UUID) { defaultRegistry.Close(u) }

// ForceClose closes u's underlying fd immediately, discarding any queued
// but unsent data.
func ForceClose(u UUID) { defaultRegistry.ForceClose(u) }

// RWHookGet returns the hooks currently installed for u, or nil if u is
// no longer valid.
func RWHookGet(u UUID) *hooks.Table {
	fd, gen := registry.SplitUUID(u)
	return defaultRegistry.HooksFor(fd, gen)
}

// RWHookSet installs h (backfilled with defaults for any nil field) as
// u's hook table, returning an error if u is no longer valid.
func RWHookSet(u UUID, h *hooks.Table) error {
	fd, gen := registry.SplitUUID(u)
	if !defaultRegistry.SetHooks(fd, gen, hooks.Fill(h)) {
		return unix.EBADF
	}
	return nil
}

// MaxCapacity returns the maximum number of file descriptors this
// process may open.
func MaxCapacity() int { return sockraw.MaxCapacity() }

// SetNonBlock toggles O_NONBLOCK on an arbitrary fd.
func SetNonBlock(fd int) error { return sockraw.SetNonBlock(fd, true) }
