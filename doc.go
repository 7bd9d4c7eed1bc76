// Package sock implements user-land, non-blocking, buffered socket I/O:
// a UUID-addressed connection registry immune to fd-reuse races, a
// pooled packet writer pipeline for inline, moved-memory and file-backed
// payloads, and a flush engine that drains each connection's queue as
// the kernel allows.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package sock
