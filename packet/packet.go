package packet

import "github.com/wiresock/sock/hooks"

// Kind discriminates the three packet shapes a connection's write queue
// can carry.
type Kind uint8

const (
	// KindInline holds up to BufferPacketSize bytes copied from the
	// caller directly in the packet record.
	KindInline Kind = iota
	// KindMemory references an external (possibly moved) memory region.
	KindMemory
	// KindFile streams a segment of a file descriptor.
	KindFile
)

// memoryHeader backs the KindMemory variant: data is the window still to
// be sent, owner is what must be passed to dealloc exactly once.
type memoryHeader struct {
	data    []byte
	owner   []byte
	dealloc func([]byte)
}

// fileHeader backs the KindFile variant.
type fileHeader struct {
	fd      int
	offset  int64
	closer  func(int) error
	scratch [BufferFileReadSize]byte
}

// Writer advances transmission of a packet by at most one bounded chunk.
// It returns the number of bytes consumed this call; 0 with a nil error
// means "blocked, try again later" (a transient condition was absorbed);
// a non-nil error is fatal and the caller must force-close the connection.
type Writer func(p *Packet, fd int, h *hooks.Table, sent int) (int, error)

// Packet is one queued unit of outbound work. Pool-resident packets are
// part of the Pool's backing array and never individually allocated;
// heap-overflow packets are ordinary *Packet values owned exclusively by
// whichever queue holds them.
//
// The payload is modeled as typed fields rather than a raw byte header
// the way the C original reuses one buffer region for every variant —
// Go's allocator already packs the struct, so there is nothing to gain
// from hand-rolled byte layout. The inline area is BufferPacketSize bytes
// and the file scratch buffer BufferFileReadSize bytes, held in separate
// fields.
type Packet struct {
	Kind   Kind
	Next   *Packet
	Length int // total bytes to send, for every kind; progress is tracked by the caller's sent count

	inline [BufferPacketSize]byte
	mem    memoryHeader
	file   fileHeader

	write   Writer
	release func(*Packet)
}

func releaseNone(*Packet) {}

// reset clears a packet to its neutral, kind-agnostic state. Called by
// the pool after invoking the configured release function exactly once.
func (p *Packet) reset() {
	p.Kind = KindInline
	p.Next = nil
	p.Length = 0
	p.mem = memoryHeader{}
	p.file = fileHeader{fd: -1}
	p.write = inlineWriter
	p.release = releaseNone
}

// Recycle invokes the packet's release function exactly once (per I4/I3)
// and resets it to a neutral inline-kind state. It does not decide where
// the packet ends up afterward — that's the Pool's job.
func (p *Packet) Recycle() {
	if p.release == nil {
		p.release = releaseNone
	}
	p.release(p)
	p.reset()
}

// Write invokes the packet's kind-specific writer.
func (p *Packet) Write(fd int, h *hooks.Table, sent int) (int, error) {
	return p.write(p, fd, h, sent)
}

// SetInline copies data into the packet's inline buffer. Caller must
// ensure len(data) <= BufferPacketSize.
func (p *Packet) SetInline(data []byte) {
	p.Kind = KindInline
	p.Length = len(data)
	copy(p.inline[:p.Length], data)
	p.write = inlineWriter
	p.release = releaseNone
}

// SetMemory installs the external-memory variant. owner is what gets
// passed to dealloc exactly once, when the packet finishes or is
// discarded; data is the (possibly offset) window of owner to transmit.
func (p *Packet) SetMemory(data, owner []byte, dealloc func([]byte)) {
	p.Kind = KindMemory
	p.Length = len(data)
	p.mem = memoryHeader{data: data, owner: owner, dealloc: dealloc}
	p.write = memoryWriter
	p.release = func(pk *Packet) {
		if pk.mem.dealloc != nil {
			pk.mem.dealloc(pk.mem.owner)
		}
	}
}

// SetFile installs the file-segment variant: srcFD is read from at
// offset+sent for length bytes and forwarded to the connection's hook.
// closer, if non-nil, is invoked with srcFD exactly once on rotation or
// discard.
func (p *Packet) SetFile(srcFD int, offset int64, length int, closer func(int) error) {
	p.Kind = KindFile
	p.Length = length
	p.file = fileHeader{fd: srcFD, offset: offset, closer: closer}
	p.write = fileWriter
	p.release = func(pk *Packet) {
		if pk.file.closer != nil {
			_ = pk.file.closer(pk.file.fd)
		}
	}
}

// Buffer returns the inline payload area for direct-buffer callers
// (BufferCheckout/BufferSend). The caller must set p.Length (via
// SetInline or by writing directly and calling SetInlineLength) before
// queuing it.
func (p *Packet) Buffer() []byte { return p.inline[:] }

// SetInlineLength finalizes the length of data written directly into the
// slice returned by Buffer, for the checkout/send direct-buffer path.
func (p *Packet) SetInlineLength(n int) {
	p.Kind = KindInline
	p.Length = n
	p.write = inlineWriter
	p.release = releaseNone
}
