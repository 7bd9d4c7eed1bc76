package sockraw

import (
	"sync"

	"golang.org/x/sys/unix"
)

var (
	maxCapacityOnce sync.Once
	maxCapacityVal  int
)

// MaxCapacity returns the maximum number of file descriptors this
// process may open (soft RLIMIT_NOFILE), raising the soft limit to the
// hard limit first if there's room to grow. The result is memoized:
// the limit is only worth raising once per process lifetime.
func MaxCapacity() int {
	maxCapacityOnce.Do(func() {
		var lim unix.Rlimit
		if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
			maxCapacityVal = 1024
			return
		}
		if lim.Cur < lim.Max {
			raised := lim
			raised.Cur = lim.Max
			if unix.Setrlimit(unix.RLIMIT_NOFILE, &raised) == nil {
				lim = raised
			}
		}
		maxCapacityVal = int(lim.Cur)
	})
	return maxCapacityVal
}
