package iocore

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorReportsWriteReadyImmediately(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	sel := newSelector(100 * time.Millisecond)
	entries := []selEntry{{fd: int(w.Fd()), dir: Write}}

	n, err := sel.selectReady(entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, entries[0].ready)
}

func TestSelectorReadNotReadyUntilWritten(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	sel := newSelector(20 * time.Millisecond)
	entries := []selEntry{{fd: int(r.Fd()), dir: Read}}

	n, err := sel.selectReady(entries)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, entries[0].ready)

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	n, err = sel.selectReady(entries)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, entries[0].ready)
}

func TestSelectorEmptySnapshotStillPaces(t *testing.T) {
	sel := newSelector(15 * time.Millisecond)
	start := time.Now()
	n, err := sel.selectReady(nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond, "select with no fds must still block for the timeout")
}

func TestSelectorSurfacesHardErrors(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	fd := int(r.Fd())
	r.Close()
	w.Close()

	sel := newSelector(20 * time.Millisecond)
	entries := []selEntry{{fd: fd, dir: Read}}

	_, err = sel.selectReady(entries)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSystem))
}
