package iocore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDispatchGlobalStartActivates(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopGlobal)
	m.RegisterContext(ctx)
	require.NoError(t, m.table.setIOCb(1, ctx.Serial(), Read, noopCallback))

	m.EngineIOEvent(ctx.Serial(), Event{Kind: EventStart})

	snap := m.table.getFDs(ctx.Serial(), flagActive)
	assert.Len(t, snap, 1)
}

func TestEventDispatchGlobalDoneRecordsState(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopGlobal)
	m.RegisterContext(ctx)

	cause := errors.New("op failed")
	m.EngineIOEvent(ctx.Serial(), Event{Kind: EventDone, Err: cause})

	found, err, _ := m.table.getDone(ctx.Serial())
	assert.Equal(t, ctx.Serial(), found)
	assert.ErrorIs(t, err, cause)
}

func TestEventDispatchGlobalPanicsOnNextKey(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopGlobal)
	m.RegisterContext(ctx)

	assert.Panics(t, func() {
		m.EngineIOEvent(ctx.Serial(), Event{Kind: EventNextKey})
	})
}

func TestEventDispatchPrivateForwardsToSinks(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopPrivate)
	m.RegisterContext(ctx)

	m.EngineIOEvent(ctx.Serial(), Event{Kind: EventNextKey, KeyRef: "key-1"})
	m.EngineIOEvent(ctx.Serial(), Event{Kind: EventNextTrustItem, TrustItemRef: "trust-1"})

	assert.Equal(t, []any{"key-1"}, ctx.keys)
	assert.Equal(t, []any{"trust-1"}, ctx.trust)
}

func TestEventDispatchUserForwardsVerbatim(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopUser)
	ctx.userCbs = newFakeUserIOCbs()
	m.RegisterContext(ctx)

	m.EngineIOEvent(ctx.Serial(), Event{Kind: EventDone})

	require.Len(t, ctx.userCbs.events, 1)
	assert.Equal(t, EventDone, ctx.userCbs.events[0].Kind)
}

func TestEventDispatchUnknownContextDropped(t *testing.T) {
	m := NewManager()
	// Posting for a serial that was never registered must not panic.
	m.EngineIOEvent(NextSerial(), Event{Kind: EventDone})
}
