package iocore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUserLoopAdapterDeliversReadinessAndDone is scenario S5: the
// application installs a vtable, the core registers an fd against it,
// the application synthesises readiness, and the application observes
// a DONE event once the context has nothing left registered.
func TestUserLoopAdapterDeliversReadinessAndDone(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopUser)
	ctx.userCbs = newFakeUserIOCbs()
	m.RegisterContext(ctx)

	_, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	var tag *Tag
	ran := false
	tag, err = m.AddIOCbUser(ctx, int(w.Fd()), Write, func() error {
		ran = true
		m.RemoveIOCbUser(ctx, tag)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ctx.userCbs.fns, 1)

	require.NoError(t, ctx.userCbs.fire(tag.userTag))

	assert.True(t, ran)
	assert.Equal(t, 0, m.table.ioCbCount(ctx.Serial()))
	require.Len(t, ctx.userCbs.events, 1)
	assert.Equal(t, EventDone, ctx.userCbs.events[0].Kind)
	assert.Len(t, ctx.userCbs.fns, 0, "the application's own registration must be uninstalled too")
}

func TestAddIOCbUserRollsBackOnOuterAddFailure(t *testing.T) {
	m := NewManager()
	ctx := newFakeContext(LoopUser)
	ctx.userCbs = newFakeUserIOCbs()
	ctx.userCbs.addErr = NewError("add", KindInvalidArgument, "boom")
	m.RegisterContext(ctx)

	_, err := m.AddIOCbUser(ctx, 5, Read, noopCallback)
	require.Error(t, err)
	assert.Equal(t, 0, m.table.ioCbCount(ctx.Serial()))
}
