package sock

// WriteOptions mirrors facil.io's sock_write2 option set: a single
// entry point that can queue inline-copied memory, moved-ownership
// memory, or a file segment, optionally ahead of the rest of the queue.
type WriteOptions struct {
	UUID UUID

	// Buffer holds either []byte (for a data write) or an int fd (for a
	// file write, when IsFD is true).
	Buffer any

	Length int
	Offset int64

	// Move indicates the caller is transferring ownership of Buffer
	// rather than lending it for an inline copy; Dealloc (or Closer, for
	// file writes) is called exactly once when the packet is released.
	Move    bool
	Dealloc func([]byte)
	Closer  func(fd int) error

	IsFD   bool
	Urgent bool
}
