package ringchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceive(t *testing.T) {
	r := New[int](4)
	r.Send(1)
	r.Send(2)

	v, ok := r.Receive()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, r.Len())
}

func TestSendOverwritesOldestWhenFull(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 10; i++ {
		r.Send(i)
	}
	r.Close()

	var got []int
	for v := range r.C() {
		got = append(got, v)
	}
	assert.Equal(t, []int{8, 9, 10}, got)
	assert.Equal(t, int64(10), r.Sent())
	assert.Equal(t, int64(7), r.Dropped())
}

func TestTryReceiveEmpty(t *testing.T) {
	r := New[string](1)

	_, ok := r.TryReceive()
	assert.False(t, ok)

	r.Send("x")
	v, ok := r.TryReceive()
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestReceiveAfterClose(t *testing.T) {
	r := New[int](1)
	r.Send(7)
	r.Close()

	v, ok := r.Receive()
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = r.Receive()
	assert.False(t, ok)
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[int](0) })
}
