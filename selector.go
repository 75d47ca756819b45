package iocore

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// selector is a thin wrapper around select(2), the readiness-polling
// primitive the legacy gpgme core used directly. It blocks for at most
// timeout; zero is legal for a non-blocking poll. A spurious wake
// (EINTR) is treated as zero ready, not an error.
type selector struct {
	timeout time.Duration
}

func newSelector(timeout time.Duration) *selector {
	return &selector{timeout: timeout}
}

// selectReady mutates entries in place, setting ready on every one
// whose fd became ready in its requested direction, and returns the
// count of ready entries. A hard error (EBADF, EINVAL, ...) is
// returned unchanged for the caller to surface.
func (s *selector) selectReady(entries []selEntry) (int, error) {
	var rfds, wfds unix.FdSet
	var rp, wp *unix.FdSet
	maxFD := -1
	for i := range entries {
		fd := entries[i].fd
		if fd > maxFD {
			maxFD = fd
		}
		if entries[i].dir == Write {
			fdSetSet(&wfds, fd)
			wp = &wfds
		} else {
			fdSetSet(&rfds, fd)
			rp = &rfds
		}
	}

	// With no entries at all, nfds is 0 and both fd sets are nil:
	// select(2) still blocks for the timeout and returns 0. This is
	// the deliberate pacing contract callers depend on when they
	// spin with hang=false (see spec.md §9's Open Question) -- it is
	// preserved here rather than special-cased away.
	tv := unix.NsecToTimeval(s.timeout.Nanoseconds())

	n, err := unix.Select(maxFD+1, rp, wp, nil, &tv)
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, WrapSystemError("select", err)
	}

	ready := 0
	for i := range entries {
		fd := entries[i].fd
		var set bool
		if entries[i].dir == Write {
			set = fdSetIsSet(&wfds, fd)
		} else {
			set = fdSetIsSet(&rfds, fd)
		}
		entries[i].ready = set
		if set {
			ready++
		}
	}
	return n, nil
}

// fdSetSet and fdSetIsSet replicate the FD_SET/FD_ISSET macros for
// unix.FdSet. The Bits field's element width differs per platform
// (int64 words on linux, int32 on darwin), so rather than special-case
// each, both operate byte-wise directly on the struct's memory, which
// matches FD_SET's bit layout on every little-endian target this
// package builds for.
const fdSetBytes = unsafe.Sizeof(unix.FdSet{})

func fdSetBytesOf(set *unix.FdSet) *[fdSetBytes]byte {
	return (*[fdSetBytes]byte)(unsafe.Pointer(set))
}

func fdSetSet(set *unix.FdSet, fd int) {
	b := fdSetBytesOf(set)
	b[fd/8] |= 1 << uint(fd%8)
}

func fdSetIsSet(set *unix.FdSet, fd int) bool {
	b := fdSetBytesOf(set)
	return b[fd/8]&(1<<uint(fd%8)) != 0
}
