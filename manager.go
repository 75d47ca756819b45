package iocore

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Manager owns one process-wide fd table plus the context registry and
// selector used to drive the three wait loops. The fd table is
// deliberately a singleton in spirit -- fds are a process-wide
// resource -- but nothing prevents constructing more than one Manager
// for tests or for embedding multiple independent instances of this
// core in one process.
type Manager struct {
	cfg   Config
	table *fdTable
	sel   *selector

	mu       sync.RWMutex
	contexts map[Serial]Context

	loggers loggerHolder
}

// NewManager constructs a Manager from the supplied options.
func NewManager(opts ...Option) *Manager {
	cfg := NewConfig(opts...)
	m := &Manager{
		cfg:      cfg,
		table:    newFdTable(cfg.fdTableCapacity, 0),
		sel:      newSelector(cfg.selectTimeout),
		contexts: make(map[Serial]Context),
	}
	if cfg.loggerSet {
		m.loggers.base = cfg.logger
		m.loggers.set = true
	}
	return m
}

func (m *Manager) log() zerolog.Logger {
	return m.loggers.get()
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the lazily-initialized process-wide Manager.
// Initialization happens once, on first use, matching the legacy
// core's lazy-once singleton fd table; teardown on library unload is
// the embedding application's responsibility and is best-effort.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

var serialCounter atomic.Uint64

// NextSerial allocates a new, process-wide-unique, monotonically
// increasing Serial for a freshly created Context.
func NextSerial() Serial {
	return Serial(serialCounter.Add(1))
}

// RegisterContext makes ctx resolvable by its Serial. Call this before
// registering any fd for it.
func (m *Manager) RegisterContext(ctx Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[ctx.Serial()] = ctx
}

// UnregisterContext drops ctx from the registry. The core never
// dereferences a context after this without first re-resolving its
// serial, so calling this while callbacks for it are still in flight
// is safe: EngineIOEvent and dispatch simply find nothing and drop
// the event.
func (m *Manager) UnregisterContext(serial Serial) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, serial)
}

func (m *Manager) lookupContext(serial Serial) Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contexts[serial]
}

// AddIOCb registers fd with ctx for the global and private wait loops.
func (m *Manager) AddIOCb(ctx Context, fd int, dir Direction, cb Callback) (*Tag, error) {
	if cb == nil {
		return nil, NewError("add_io_cb", KindInvalidArgument, "callback must not be nil")
	}
	if ctx == nil {
		return nil, NewError("add_io_cb", KindInvalidArgument, "context must not be nil")
	}
	if err := m.table.setIOCb(fd, ctx.Serial(), dir, cb); err != nil {
		return nil, err
	}
	slot, gen := m.slotOf(fd)
	m.log().Debug().Uint64("serial", uint64(ctx.Serial())).Int("fd", fd).Str("dir", dir.String()).Msg("io callback registered")
	return &Tag{serial: ctx.Serial(), fd: fd, dir: dir, slot: slot, gen: gen}, nil
}

func (m *Manager) slotOf(fd int) (int, uint64) {
	m.table.mu.Lock()
	defer m.table.mu.Unlock()
	if idx, ok := m.table.byFD[fd]; ok {
		return idx, m.table.entries[idx].gen
	}
	return -1, 0
}

// RemoveIOCb removes a registration made through AddIOCb.
func (m *Manager) RemoveIOCb(tag *Tag) {
	if tag == nil {
		return
	}
	if err := m.table.setIOCb(tag.fd, tag.serial, tag.dir, nil); err != nil {
		m.log().Warn().Err(err).Int("fd", tag.fd).Msg("remove_io_cb failed")
		return
	}
	m.log().Debug().Uint64("serial", uint64(tag.serial)).Int("fd", tag.fd).Msg("io callback removed")
}

// CancelWithErr is the single cancellation primitive: it closes every
// fd owned by serial via the context's FDCloser hook (if any), drains
// every registration for it, and posts a DONE with the given errors.
func (m *Manager) CancelWithErr(serial Serial, err, opErr error) {
	ctx := m.lookupContext(serial)
	if ctx == nil {
		// No registered context to supply an FDCloser: drain serial's
		// registrations without closing anything.
		m.log().Error().Uint64("serial", uint64(serial)).Err(err).Msg("cancelling context")
		m.table.cancelWithErr(serial, err, opErr, nil)
		return
	}
	m.cancelWithErr(ctx, err, opErr)
}

func (m *Manager) cancelWithErr(ctx Context, err, opErr error) {
	var serial Serial
	var closeFn func(fd int)
	if ctx != nil {
		serial = ctx.Serial()
		if closer, ok := ctx.(FDCloser); ok {
			closeFn = closer.CloseFD
		}
	}
	m.log().Error().Uint64("serial", uint64(serial)).Err(err).Msg("cancelling context")
	m.table.cancelWithErr(serial, err, opErr, closeFn)
}
