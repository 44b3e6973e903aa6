package bletransport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendisplay/opendisplay-go/protocol"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestTransport(buffer int) *Transport {
	return &Transport{
		log:           quietLogger(),
		notifications: make(chan []byte, buffer),
		closed:        make(chan struct{}),
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 30*time.Second, opts.ConnectTimeout)
	assert.Equal(t, 32, opts.NotificationBuffer)
}

func TestServiceUUID(t *testing.T) {
	assert.True(t, ServiceUUID.Equal(ble.MustParse("00002446-0000-1000-8000-00805F9B34FB")))
}

func TestReadReturnsQueuedNotification(t *testing.T) {
	tr := newTestTransport(4)
	tr.handleNotification([]byte{0x43, 0x00, 0x01, 0x00})

	frame, err := tr.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x43, 0x00, 0x01, 0x00}, frame)
}

func TestReadCopiesNotificationData(t *testing.T) {
	tr := newTestTransport(4)
	src := []byte{0x01, 0x02}
	tr.handleNotification(src)
	src[0] = 0xFF

	frame, err := tr.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, frame)
}

func TestReadDeadlineMapsToTimeout(t *testing.T) {
	tr := newTestTransport(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := tr.Read(ctx)
	assert.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestReadCancellationIsNotTimeout(t *testing.T) {
	tr := newTestTransport(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, protocol.ErrTimeout)
}

func TestNotificationQueueDropsWhenFull(t *testing.T) {
	tr := newTestTransport(2)
	tr.handleNotification([]byte{1})
	tr.handleNotification([]byte{2})
	tr.handleNotification([]byte{3})

	first, err := tr.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, first)

	second, err := tr.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tr.Read(ctx)
	assert.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestReadAfterClosedSignal(t *testing.T) {
	tr := newTestTransport(1)
	close(tr.closed)

	_, err := tr.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestWriteAfterClosedSignal(t *testing.T) {
	tr := newTestTransport(1)
	close(tr.closed)

	err := tr.Write(context.Background(), []byte{0x0F, 0x00})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
