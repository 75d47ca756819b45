package iocore

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCancellationDuringDispatch is scenario S4: a callback running
// under run_io_cbs cancels its own context; the pass completes without
// touching freed entries, and the next get_done yields the context
// exactly once with the cancellation error.
func TestCancellationDuringDispatch(t *testing.T) {
	m := NewManager(WithSelectTimeout(10 * time.Millisecond))
	ctx := newFakeContext(LoopGlobal)
	m.RegisterContext(ctx)

	_, w1, err := os.Pipe()
	require.NoError(t, err)
	defer w1.Close()
	_, w2, err := os.Pipe()
	require.NoError(t, err)
	defer w2.Close()

	cause := errors.New("cancelled by user")
	var tag2 *Tag
	_, err = m.AddIOCb(ctx, int(w1.Fd()), Write, func() error {
		m.CancelWithErr(ctx.Serial(), cause, nil)
		return nil
	})
	require.NoError(t, err)
	tag2, err = m.AddIOCb(ctx, int(w2.Fd()), Write, func() error {
		t.Fatal("entries removed by cancellation must not run afterward")
		return nil
	})
	require.NoError(t, err)
	_ = tag2

	m.EngineIOEvent(ctx.Serial(), Event{Kind: EventStart})

	serial, err := m.Wait(ctx, false)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, ctx.Serial(), serial)

	assert.ElementsMatch(t, []int{int(w1.Fd()), int(w2.Fd())}, ctx.closed)

	// A second wait for the same, now-consumed context finds nothing.
	m.RegisterContext(ctx)
	again, err := m.Wait(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, Serial(0), again)
}
