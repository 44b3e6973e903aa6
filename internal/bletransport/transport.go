// Package bletransport implements device.Transport over a go-ble GATT
// connection. The device exposes a single service with a single
// characteristic: commands are written to it with response, and replies
// arrive as notifications on the same characteristic.
package bletransport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/sirupsen/logrus"

	"github.com/opendisplay/opendisplay-go/protocol"
)

// ServiceUUID is the OpenDisplay GATT service.
var ServiceUUID = ble.MustParse("00002446-0000-1000-8000-00805F9B34FB")

// BLEFactory creates the host BLE adapter. Overridable in tests.
var BLEFactory = func() (ble.Device, error) {
	return linux.NewDevice()
}

// Options configures a connection.
type Options struct {
	ConnectTimeout time.Duration

	// NotificationBuffer caps queued unread notification frames.
	NotificationBuffer int
}

// DefaultOptions returns connection defaults.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:     30 * time.Second,
		NotificationBuffer: 32,
	}
}

// Transport is a connected GATT link to one device. It satisfies
// device.Transport.
type Transport struct {
	log    *logrus.Logger
	client ble.Client
	char   *ble.Characteristic

	notifications chan []byte
	closeOnce     sync.Once
	closed        chan struct{}
}

// Dial connects to the device at the given address, discovers the
// OpenDisplay service and subscribes to its characteristic.
func Dial(ctx context.Context, address string, opts Options, log *logrus.Logger) (*Transport, error) {
	if log == nil {
		log = logrus.New()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultOptions().ConnectTimeout
	}
	if opts.NotificationBuffer <= 0 {
		opts.NotificationBuffer = DefaultOptions().NotificationBuffer
	}

	dev, err := BLEFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	log.WithField("address", address).Info("Connecting to device")

	dialCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := ble.Dial(dialCtx, ble.NewAddr(address))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	t := &Transport{
		log:           log,
		client:        client,
		notifications: make(chan []byte, opts.NotificationBuffer),
		closed:        make(chan struct{}),
	}
	if err := t.subscribe(); err != nil {
		client.CancelConnection()
		return nil, err
	}

	log.Info("Connected, notifications active")
	return t, nil
}

func (t *Transport) subscribe() error {
	profile, err := t.client.DiscoverProfile(true)
	if err != nil {
		return fmt.Errorf("failed to discover profile: %w", err)
	}

	var service *ble.Service
	for _, s := range profile.Services {
		if s.UUID.Equal(ServiceUUID) {
			service = s
			break
		}
	}
	if service == nil {
		return fmt.Errorf("service %s not found", ServiceUUID)
	}
	if len(service.Characteristics) == 0 {
		return fmt.Errorf("service %s has no characteristics", ServiceUUID)
	}
	// The device exposes exactly one characteristic.
	t.char = service.Characteristics[0]

	return t.client.Subscribe(t.char, false, t.handleNotification)
}

func (t *Transport) handleNotification(data []byte) {
	frame := append([]byte{}, data...)
	select {
	case t.notifications <- frame:
	default:
		t.log.WithField("bytes", len(frame)).Warn("Notification queue full, dropping frame")
	}
}

// Write sends one command frame to the device with write confirmation.
func (t *Transport) Write(ctx context.Context, frame []byte) error {
	select {
	case <-t.closed:
		return errors.New("transport closed")
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := t.client.WriteCharacteristic(t.char, frame, false); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	t.log.WithField("bytes", len(frame)).Debug("Wrote command frame")
	return nil
}

// Read blocks for the next notification frame. Context deadline expiry
// surfaces as protocol.ErrTimeout, which the client layer relies on to
// tell a silent device from a transport fault.
func (t *Transport) Read(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-t.notifications:
		if !ok {
			return nil, errors.New("transport closed")
		}
		return frame, nil
	case <-t.closed:
		return nil, errors.New("transport closed")
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, protocol.ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// Close unsubscribes and drops the connection. Safe to call more than
// once.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		if t.char != nil {
			// Best effort: the device may already be gone.
			_ = t.client.Unsubscribe(t.char, false)
		}
		err = t.client.CancelConnection()
	})
	return err
}
