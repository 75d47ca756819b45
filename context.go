package iocore

// Serial is the 64-bit identifier the core uses to refer to a Context.
// It is used instead of a raw pointer everywhere the core needs to
// refer back to a context, so that a callback which outruns
// cancellation resolves a stale serial to "no such context" instead of
// dereferencing freed memory.
type Serial uint64

// Direction is the readiness direction an fd is registered for.
type Direction int

const (
	// Read marks an fd as registered for read-readiness.
	Read Direction = iota
	// Write marks an fd as registered for write-readiness.
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}

// LoopKind selects which of the three wait loops owns a Context, and
// therefore which EventDispatcher handler its events are routed
// through.
type LoopKind int

const (
	// LoopGlobal routes START/DONE through the global handler and
	// treats NEXT_KEY/NEXT_TRUSTITEM as a programmer error.
	LoopGlobal LoopKind = iota
	// LoopPrivate routes NEXT_KEY/NEXT_TRUSTITEM to the context's
	// list accumulators and ignores START/DONE (the private loop
	// detects completion itself).
	LoopPrivate
	// LoopUser forwards every event verbatim to the context's
	// user-supplied event callback.
	LoopUser
)

// Callback is a registered io callback. It returns a non-nil error to
// abort the current run_io_cbs pass; the callback itself is
// responsible for cancelling its context if the failure is terminal.
type Callback func() error

// Context is the minimal view the core needs of an application-owned
// operation context. Implementations are external to this package: the
// core only ever looks one up by Serial, via a Manager's registry, so
// that a callback which outlives cancellation cannot dereference freed
// state.
type Context interface {
	// Serial returns the identifier this context was registered
	// under.
	Serial() Serial
	// Loop returns which wait loop drives this context.
	Loop() LoopKind
}

// FDCloser is implemented by a Context whose engine wants control over
// how its file descriptors are closed on cancellation. Closing an fd is
// always the engine's responsibility, never the fd table's; if a
// Context does not implement FDCloser, CancelWithErr simply drops the
// registration without closing anything.
type FDCloser interface {
	CloseFD(fd int)
}

// KeyListSink receives NEXT_KEY events routed by the private handler.
type KeyListSink interface {
	OnNextKey(keyRef any)
}

// TrustListSink receives NEXT_TRUSTITEM events routed by the private
// handler.
type TrustListSink interface {
	OnNextTrustItem(itemRef any)
}

// UserIOCbs is the vtable a LoopUser Context supplies so the core can
// bridge registrations into an event loop owned by the embedding
// application. Add is called once per registration; the core's wrapper
// callback is what the application must invoke when it observes
// readiness on fd.
type UserIOCbs interface {
	// Add installs fn with the application's event loop for fd/dir.
	// It returns an opaque tag the application may use internally;
	// the core passes it back unchanged to Remove.
	Add(fd int, dir Direction, fn func() error) (tag any, err error)
	// Remove uninstalls a previously added registration.
	Remove(tag any)
	// Event forwards a lifecycle event to the application.
	Event(evt Event)
}

// UserContext is a Context driven by a user-owned event loop.
type UserContext interface {
	Context
	UserIOCbs() UserIOCbs
}
