// Package registry implements the connection table: UUID-based identity
// with generation-counter protection against fd reuse, and the flush
// state machine that drains each connection's write queue.
package registry

// uuidGenShift is the number of low bits reserved for the generation
// counter; the fd occupies the remaining high bits. Keeping the
// generation in the low byte means a UUID increases (modulo 256 in its
// low byte) for a given fd every time it's reopened, not just a random
// tag, which makes it easy to eyeball in logs.
const uuidGenShift = 8

// MakeUUID packs an fd and its current generation counter into the
// public-facing UUID. The encoding is a bijection for any fd in
// [0, 1<<55) and gen in [0, 256), which covers every realistic
// RLIMIT_NOFILE.
func MakeUUID(fd int, gen uint8) int64 {
	return int64(fd)<<uuidGenShift | int64(gen)
}

// SplitUUID reverses MakeUUID.
func SplitUUID(u int64) (fd int, gen uint8) {
	return int(u >> uuidGenShift), uint8(u)
}
