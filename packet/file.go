package packet

import (
	"github.com/wiresock/sock/hooks"
	"github.com/wiresock/sock/internal/ioerr"
	"golang.org/x/sys/unix"
)

// sendfileChunk performs a single sendfile(2)-style kernel-to-kernel copy
// of at most count bytes from srcFD (at *offset) to dstFD, advancing
// *offset by the amount actually sent. It is nil on platforms without a
// sendfile fast path; file_linux.go sets it on Linux.
var sendfileChunk func(dstFD, srcFD int, offset *int64, count int) (int, error)

// fileWriter bounds each call to BufferFileReadSize bytes, per spec: a
// positional read from the source descriptor into the packet's scratch
// buffer followed by hook.Write, unless the default hooks are installed
// and the platform supports sendfile, in which case the read+write pair
// may be short-circuited into one kernel call. A non-default hook (e.g.
// TLS) always takes the portable path so the transport layer sees every
// byte.
func fileWriter(p *Packet, fd int, h *hooks.Table, sent int) (int, error) {
	remaining := p.Length - sent
	if remaining <= 0 {
		return 0, nil
	}
	chunk := remaining
	if chunk > BufferFileReadSize {
		chunk = BufferFileReadSize
	}

	if sendfileChunk != nil && hooks.IsDefault(h) {
		offset := p.file.offset + int64(sent)
		n, err := sendfileChunk(fd, p.file.fd, &offset, chunk)
		if err != nil {
			if ioerr.IsTransient(err) {
				return 0, nil
			}
			return -1, err
		}
		if n == 0 {
			// source EOF: treat the rest of the segment as sent so the
			// packet rotates instead of spinning forever on a short file.
			return remaining, nil
		}
		return n, nil
	}

	n, err := unix.Pread(p.file.fd, p.file.scratch[:chunk], p.file.offset+int64(sent))
	if err != nil {
		if ioerr.IsTransient(err) {
			return 0, nil
		}
		return -1, err
	}
	if n == 0 {
		return remaining, nil // source EOF
	}

	written := 0
	for written < n {
		w, werr := h.Write(fd, p.file.scratch[written:n])
		if werr != nil {
			if ioerr.IsTransient(werr) {
				if written > 0 {
					return written, nil
				}
				return 0, nil
			}
			if written > 0 {
				return written, nil
			}
			return -1, werr
		}
		if w == 0 {
			break
		}
		written += w
	}
	return written, nil
}
