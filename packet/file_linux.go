//go:build linux

package packet

import "golang.org/x/sys/unix"

func init() {
	sendfileChunk = sendfileLinux
}

// sendfileLinux wraps unix.Sendfile, retrying on EAGAIN/EINTR at this
// layer is unnecessary: the caller (fileWriter) already treats a
// transient error as "no progress, try again on the next flush pass."
func sendfileLinux(dstFD, srcFD int, offset *int64, count int) (int, error) {
	n, err := unix.Sendfile(dstFD, srcFD, offset, count)
	if err != nil {
		return 0, err
	}
	return n, nil
}
