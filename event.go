package iocore

// EventKind enumerates the four lifecycle events an engine posts
// through EngineIOEvent.
type EventKind int

const (
	// EventStart is posted once a context's initial I/O callbacks are
	// registered, before it becomes eligible for select.
	EventStart EventKind = iota
	// EventDone is posted when an operation has finished, whether by
	// completion, drain, or cancellation.
	EventDone
	// EventNextKey is posted by a key-listing engine for each key
	// found. Only legal on a LoopPrivate context.
	EventNextKey
	// EventNextTrustItem is posted by a trust-item-listing engine for
	// each item found. Only legal on a LoopPrivate context.
	EventNextTrustItem
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventDone:
		return "done"
	case EventNextKey:
		return "next_key"
	case EventNextTrustItem:
		return "next_trustitem"
	default:
		return "unknown"
	}
}

// Event is the sum type posted through EngineIOEvent and routed by the
// dispatcher to the handler selected for the owning context's loop
// kind.
type Event struct {
	Kind EventKind

	// Err and OpErr are populated for EventDone.
	Err   error
	OpErr error

	// KeyRef is populated for EventNextKey.
	KeyRef any
	// TrustItemRef is populated for EventNextTrustItem.
	TrustItemRef any
}

// EngineIOEvent is the engine-facing hook: an engine calls this to
// post START/DONE/NEXT_KEY/NEXT_TRUSTITEM for the context identified by
// serial. The dispatcher routes it to the handler matching that
// context's configured loop kind.
func (m *Manager) EngineIOEvent(serial Serial, evt Event) {
	ctx := m.lookupContext(serial)
	if ctx == nil {
		m.log().Debug().Uint64("serial", uint64(serial)).Str("event", evt.Kind.String()).
			Msg("event for unknown context dropped")
		return
	}
	m.dispatch(ctx, evt)
}

// dispatch routes evt to the handler selected by ctx.Loop(). This is
// the EventDispatcher: three handlers, selected per context, modeled
// as a switch over a small enum rather than an inheritance hierarchy.
func (m *Manager) dispatch(ctx Context, evt Event) {
	switch ctx.Loop() {
	case LoopGlobal:
		m.globalEventCb(ctx, evt)
	case LoopPrivate:
		m.privateEventCb(ctx, evt)
	case LoopUser:
		m.userEventCb(ctx, evt)
	default:
		m.log().Warn().Uint64("serial", uint64(ctx.Serial())).Msg("context has unknown loop kind")
	}
}

// globalEventCb is the GlobalHandler. On START it activates the
// context's registrations; on DONE it records the terminal state.
// NEXT_KEY/NEXT_TRUSTITEM are a violated invariant here (the legacy
// gpgme core treats them as programmer errors) and are surfaced as a
// panic rather than silently dropped.
func (m *Manager) globalEventCb(ctx Context, evt Event) {
	switch evt.Kind {
	case EventStart:
		m.log().Info().Uint64("serial", uint64(ctx.Serial())).Msg("context started")
		if err := m.table.setActive(ctx.Serial()); err != nil {
			m.cancelWithErr(ctx, err, nil)
		}
	case EventDone:
		m.log().Info().Uint64("serial", uint64(ctx.Serial())).Err(evt.Err).Msg("context done")
		m.table.setDone(ctx.Serial(), evt.Err, evt.OpErr)
	case EventNextKey, EventNextTrustItem:
		m.log().Warn().Uint64("serial", uint64(ctx.Serial())).Str("event", evt.Kind.String()).
			Msg("invariant violation: next_key/next_trustitem delivered to the global event handler")
		panic("iocore: " + evt.Kind.String() + " delivered to the global event handler")
	default:
		m.log().Warn().Uint64("serial", uint64(ctx.Serial())).Str("event", evt.Kind.String()).
			Msg("unexpected event in global handler state machine")
	}
}

// privateEventCb is the PrivateHandler. START/DONE are ignored because
// the private loop detects completion itself; NEXT_KEY/NEXT_TRUSTITEM
// are forwarded to whatever accumulator the context supplies.
func (m *Manager) privateEventCb(ctx Context, evt Event) {
	switch evt.Kind {
	case EventStart, EventDone:
		// Nothing to do: wait_on_condition detects completion itself.
	case EventNextKey:
		if sink, ok := ctx.(KeyListSink); ok {
			sink.OnNextKey(evt.KeyRef)
		} else {
			m.log().Warn().Uint64("serial", uint64(ctx.Serial())).
				Msg("next_key event for context without a KeyListSink")
		}
	case EventNextTrustItem:
		if sink, ok := ctx.(TrustListSink); ok {
			sink.OnNextTrustItem(evt.TrustItemRef)
		} else {
			m.log().Warn().Uint64("serial", uint64(ctx.Serial())).
				Msg("next_trustitem event for context without a TrustListSink")
		}
	default:
		m.log().Warn().Uint64("serial", uint64(ctx.Serial())).Str("event", evt.Kind.String()).
			Msg("unexpected event in private handler state machine")
	}
}

// userEventCb is the UserHandler. Every event is forwarded verbatim to
// the application's vtable, if one is installed.
func (m *Manager) userEventCb(ctx Context, evt Event) {
	uctx, ok := ctx.(UserContext)
	if !ok {
		m.log().Warn().Uint64("serial", uint64(ctx.Serial())).Msg("loop_user context missing UserIOCbs")
		return
	}
	cbs := uctx.UserIOCbs()
	if cbs == nil {
		return
	}
	cbs.Event(evt)
}
