package iocore

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPrivateWaitLoopDrainCompletion is scenario S1: two read fds are
// both immediately ready; each callback removes itself on first
// invocation, and once io_cb_count reaches zero WaitOnCondition
// reports completion.
func TestPrivateWaitLoopDrainCompletion(t *testing.T) {
	m := NewManager(WithSelectTimeout(20 * time.Millisecond))
	ctx := newFakeContext(LoopPrivate)
	m.RegisterContext(ctx)

	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	defer r1.Close()
	defer w1.Close()
	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	defer r2.Close()
	defer w2.Close()
	_, err = w1.Write([]byte("x"))
	require.NoError(t, err)
	_, err = w2.Write([]byte("x"))
	require.NoError(t, err)

	var tag1, tag2 *Tag
	tag1, err = m.AddIOCb(ctx, int(r1.Fd()), Read, func() error {
		m.RemoveIOCb(tag1)
		return nil
	})
	require.NoError(t, err)
	tag2, err = m.AddIOCb(ctx, int(r2.Fd()), Read, func() error {
		m.RemoveIOCb(tag2)
		return nil
	})
	require.NoError(t, err)

	done, err := m.WaitOnCondition(ctx, nil, false)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, m.table.ioCbCount(ctx.Serial()))
}

// TestPrivateWaitLoopSelectErrorCancels is scenario S6: a selector
// failure cancels the owning context and is surfaced as a System
// error; the context's registrations are fully drained.
func TestPrivateWaitLoopSelectErrorCancels(t *testing.T) {
	m := NewManager(WithSelectTimeout(10 * time.Millisecond))
	ctx := newFakeContext(LoopPrivate)
	m.RegisterContext(ctx)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	fd := int(r.Fd())
	r.Close()
	w.Close()

	_, err = m.AddIOCb(ctx, fd, Read, noopCallback)
	require.NoError(t, err)

	done, err := m.WaitOnCondition(ctx, nil, false)
	assert.False(t, done)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSystem))
	assert.Equal(t, 0, m.table.ioCbCount(ctx.Serial()))
}
