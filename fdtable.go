package iocore

import "sync"

// snapshotFlag controls what getFDs returns.
type snapshotFlag int

const (
	// flagActive restricts the snapshot to entries with active set.
	flagActive snapshotFlag = 1 << iota
	// flagClear also clears signalled on every entry it returns.
	flagClear
)

// fdEntry is one slot of the process-wide fd table. serial == 0 marks
// a free slot; on a free slot fd is -1 and every other field is zeroed.
type fdEntry struct {
	fd        int
	serial    Serial
	dir       Direction
	cb        Callback
	active    bool
	signalled bool
	// gen is bumped every time this slot transitions from free to
	// occupied. run_io_cbs and cancellation use it to recognize a
	// slot that has been freed and reallocated since a snapshot was
	// taken, without needing to hold the table lock across a
	// callback invocation.
	gen uint64
}

// ctxState is the per-serial bookkeeping kept alongside the fd table:
// started/done flags, the two terminal error slots, and a cached fd
// count.
type ctxState struct {
	started bool
	done    bool
	err     error
	opErr   error
	fdCount int
}

// selEntry is one entry of a snapshot taken by getFDs, later fed to
// the Selector and back to setSignalled. It is deliberately
// independent of live table state: the table may be mutated by a
// callback while a snapshot is in flight.
type selEntry struct {
	fd    int
	dir   Direction
	slot  int
	gen   uint64
	ready bool
}

// fdTable is the FdTable component: the process-wide registry of
// (fd, owner context, direction, callback, state) entries.
type fdTable struct {
	mu       sync.Mutex
	entries  []fdEntry
	byFD     map[int]int
	states   map[Serial]*ctxState
	doneQ    []Serial
	nextGen  uint64
	maxSlots int // 0 means unbounded
}

func newFdTable(capacity, maxSlots int) *fdTable {
	if capacity <= 0 {
		capacity = defaultFdTableCapacity
	}
	return &fdTable{
		entries:  make([]fdEntry, 0, capacity),
		byFD:     make(map[int]int, capacity),
		states:   make(map[Serial]*ctxState),
		maxSlots: maxSlots,
	}
}

func (t *fdTable) state(serial Serial) *ctxState {
	st, ok := t.states[serial]
	if !ok {
		st = &ctxState{}
		t.states[serial] = st
	}
	return st
}

// setIOCb finds a free slot (or the existing slot for fd) and stores
// the registration. A nil cb removes the existing registration for
// fd, if any.
func (t *fdTable) setIOCb(fd int, serial Serial, dir Direction, cb Callback) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cb == nil {
		if idx, ok := t.byFD[fd]; ok {
			t.freeSlotLocked(idx)
		}
		return nil
	}
	if serial == 0 {
		return NewError("set_io_cb", KindInvalidArgument, "serial must be non-zero")
	}

	if idx, ok := t.byFD[fd]; ok {
		e := &t.entries[idx]
		if e.serial != serial {
			t.state(e.serial).fdCount--
			t.state(serial).fdCount++
		}
		e.serial = serial
		e.dir = dir
		e.cb = cb
		e.active = false
		e.signalled = false
		return nil
	}

	idx := -1
	for i := range t.entries {
		if t.entries[i].serial == 0 {
			idx = i
			break
		}
	}
	if idx == -1 {
		if t.maxSlots > 0 && len(t.entries) >= t.maxSlots {
			return NewError("set_io_cb", KindResourceExhausted, "no free fd table slot")
		}
		t.entries = append(t.entries, fdEntry{})
		idx = len(t.entries) - 1
	}

	t.nextGen++
	t.entries[idx] = fdEntry{
		fd:     fd,
		serial: serial,
		dir:    dir,
		cb:     cb,
		gen:    t.nextGen,
	}
	t.byFD[fd] = idx
	t.state(serial).fdCount++
	return nil
}

// freeSlotLocked releases slot idx. Caller must hold t.mu.
func (t *fdTable) freeSlotLocked(idx int) {
	e := &t.entries[idx]
	if e.serial == 0 {
		return
	}
	delete(t.byFD, e.fd)
	if st, ok := t.states[e.serial]; ok {
		st.fdCount--
	}
	*e = fdEntry{fd: -1}
}

// setActive marks every entry owned by serial as active. Idempotent.
func (t *fdTable) setActive(serial Serial) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].serial == serial {
			t.entries[i].active = true
		}
	}
	t.state(serial).started = true
	return nil
}

// getFDs returns a snapshot for the requested scope (serial == 0
// means every context). The snapshot is independent of live table
// state from the moment this call returns.
func (t *fdTable) getFDs(serial Serial, flags snapshotFlag) []selEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []selEntry
	for i := range t.entries {
		e := &t.entries[i]
		if e.serial == 0 {
			continue
		}
		if serial != 0 && e.serial != serial {
			continue
		}
		if flags&flagActive != 0 && !e.active {
			continue
		}
		out = append(out, selEntry{fd: e.fd, dir: e.dir, slot: i, gen: e.gen})
		if flags&flagClear != 0 {
			e.signalled = false
		}
	}
	return out
}

// setSignalled marks every entry listed in snap as signalled, for
// those the selector reported ready. Entries not in snap are
// untouched; entries whose slot has since been reused (gen mismatch)
// are ignored.
func (t *fdTable) setSignalled(snap []selEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range snap {
		if !s.ready {
			continue
		}
		if s.slot < 0 || s.slot >= len(t.entries) {
			continue
		}
		e := &t.entries[s.slot]
		if e.serial == 0 || e.gen != s.gen || e.fd != s.fd {
			continue
		}
		e.signalled = true
	}
}

// signalFD marks the single entry for fd as active and signalled, if
// it is currently owned by serial. Used by the user-loop adapter,
// which learns about readiness one fd at a time from the application's
// own event loop rather than through a Selector snapshot.
func (t *fdTable) signalFD(serial Serial, fd int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byFD[fd]
	if !ok {
		return false
	}
	e := &t.entries[idx]
	if e.serial != serial {
		return false
	}
	e.active = true
	e.signalled = true
	return true
}

// runIOCbs iterates occupied entries in the requested scope; every
// entry that is both active and signalled has its signalled flag
// cleared and its callback invoked. Iteration takes a stable snapshot
// of (slot, generation) pairs before running any callback, so a
// callback that registers a new fd will not see it in the same pass,
// and a callback that removes entries (its own, or another context's
// via cancellation) is tolerated: a slot revisited after being freed
// and not yet reused is simply skipped.
func (t *fdTable) runIOCbs(serial Serial) error {
	t.mu.Lock()
	type pendingEntry struct {
		slot int
		gen  uint64
	}
	var pending []pendingEntry
	for i := range t.entries {
		e := &t.entries[i]
		if e.serial == 0 {
			continue
		}
		if serial != 0 && e.serial != serial {
			continue
		}
		if e.active && e.signalled {
			pending = append(pending, pendingEntry{slot: i, gen: e.gen})
		}
	}
	t.mu.Unlock()

	for _, p := range pending {
		t.mu.Lock()
		if p.slot >= len(t.entries) {
			t.mu.Unlock()
			continue
		}
		e := &t.entries[p.slot]
		if e.serial == 0 || e.gen != p.gen || !e.signalled {
			t.mu.Unlock()
			continue
		}
		e.signalled = false
		cb := e.cb
		t.mu.Unlock()

		if err := cb(); err != nil {
			return err
		}
	}
	return nil
}

// ioCbCount returns the number of currently-occupied entries for
// serial.
func (t *fdTable) ioCbCount(serial Serial) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[serial]; ok {
		if st.fdCount < 0 {
			st.fdCount = 0
		}
		return st.fdCount
	}
	return 0
}

// setDone records the terminal state of serial, if not already done,
// and enqueues it on the fairness queue consumed by getDone(0).
func (t *fdTable) setDone(serial Serial, err, opErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.state(serial)
	if st.done {
		return
	}
	st.done = true
	st.err = err
	st.opErr = opErr
	t.doneQ = append(t.doneQ, serial)
}

// getDone consumes the terminal state of serial (or, with serial == 0,
// of any finished context, fairly, via a FIFO queue so that a steady
// arrival of new completions cannot starve an already-finished
// context). Consuming a done entry also drains any residual fd
// registrations for it.
func (t *fdTable) getDone(serial Serial) (found Serial, err, opErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if serial != 0 {
		st, ok := t.states[serial]
		if !ok || !st.done {
			return 0, nil, nil
		}
		err, opErr = st.err, st.opErr
		t.consumeLocked(serial)
		return serial, err, opErr
	}

	for len(t.doneQ) > 0 {
		s := t.doneQ[0]
		t.doneQ = t.doneQ[1:]
		st, ok := t.states[s]
		if !ok || !st.done {
			continue // stale entry, already consumed directly by serial
		}
		err, opErr = st.err, st.opErr
		t.consumeLocked(s)
		return s, err, opErr
	}
	return 0, nil, nil
}

// consumeLocked drops the state for serial and drains any residual fd
// registrations. Caller must hold t.mu.
func (t *fdTable) consumeLocked(serial Serial) {
	delete(t.states, serial)
	for i := range t.entries {
		if t.entries[i].serial == serial {
			t.freeSlotLocked(i)
		}
	}
}

// cancelWithErr closes every fd owned by serial via closeFn (which may
// be nil), removes every registration for serial, and posts a DONE
// with the given errors. Safe to call from within a running callback:
// run_io_cbs re-validates (slot, generation) before invoking a
// callback, so entries freed here are never invoked afterward.
func (t *fdTable) cancelWithErr(serial Serial, err, opErr error, closeFn func(fd int)) {
	t.mu.Lock()
	var fds []int
	for i := range t.entries {
		if t.entries[i].serial == serial {
			fds = append(fds, t.entries[i].fd)
			t.freeSlotLocked(i)
		}
	}
	t.mu.Unlock()

	if closeFn != nil {
		for _, fd := range fds {
			closeFn(fd)
		}
	}

	t.setDone(serial, err, opErr)
}
