// Package scanner passively watches BLE advertisements from OpenDisplay
// devices: it filters broadcasts by manufacturer id, decodes their
// telemetry and publishes device and button events without ever
// connecting.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cornelk/hashmap"
	blelib "github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/sirupsen/logrus"

	"github.com/opendisplay/opendisplay-go/advertisement"
	"github.com/opendisplay/opendisplay-go/internal/ringchan"
)

// BLEFactory creates the host BLE adapter. Overridable in tests.
var BLEFactory = func() (blelib.Device, error) {
	dev, err := linux.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to open BLE adapter: %w", err)
	}
	return dev, nil
}

// EventType marks whether an event is the first sighting of an address
// or an update to a known one.
type EventType int

const (
	EventNew EventType = iota
	EventUpdated
)

// Event is one decoded broadcast from one device, with any button
// transitions it caused.
type Event struct {
	Type    EventType
	Address string
	RSSI    int
	Adv     *advertisement.Advertisement
	Buttons []advertisement.ButtonEvent
}

// Options configures scanning behavior.
type Options struct {
	// Duration bounds one Scan call. Zero means scan until the context
	// is canceled.
	Duration time.Duration

	// DuplicateFilter asks the HCI layer to suppress repeated
	// advertisements. Keep it off to observe loop counters and button
	// transitions, which only show in repeats.
	DuplicateFilter bool

	// AllowList / BlockList filter by device address.
	AllowList []string
	BlockList []string

	// ButtonByteIndex selects the dynamic-data byte carrying button
	// bits, matching the device's binary_input configuration.
	ButtonByteIndex int

	// EventBuffer is the capacity of the event ring. Oldest events are
	// dropped when a consumer falls behind.
	EventBuffer int
}

// DefaultOptions returns options suited to interactive discovery.
func DefaultOptions() *Options {
	return &Options{
		Duration:    10 * time.Second,
		EventBuffer: 100,
	}
}

// Scanner discovers OpenDisplay devices by their broadcasts.
type Scanner struct {
	log     *logrus.Logger
	opts    *Options
	tracker *advertisement.Tracker
	latest  *hashmap.Map[string, *advertisement.Advertisement]
	events  *ringchan.Ring[Event]
}

// New creates a Scanner. A nil logger gets a default one; nil options
// take the defaults.
func New(opts *Options, log *logrus.Logger) *Scanner {
	if log == nil {
		log = logrus.New()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultOptions().EventBuffer
	}

	tracker := advertisement.NewTracker(log)
	tracker.SetButtonByteIndex(opts.ButtonByteIndex)

	return &Scanner{
		log:     log,
		opts:    opts,
		tracker: tracker,
		latest:  hashmap.New[string, *advertisement.Advertisement](),
		events:  ringchan.New[Event](opts.EventBuffer),
	}
}

// Events returns the stream of decoded broadcasts. The ring drops the
// oldest event when the consumer falls behind.
func (s *Scanner) Events() <-chan Event {
	return s.events.C()
}

// Scan listens for advertisements until the configured duration or the
// context ends, and returns the last decoded broadcast per address.
func (s *Scanner) Scan(ctx context.Context) (map[string]*advertisement.Advertisement, error) {
	dev, err := BLEFactory()
	if err != nil {
		return nil, err
	}

	if s.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Duration)
		defer cancel()
	}

	s.log.WithField("duration", s.opts.Duration).Info("Starting BLE scan")

	err = dev.Scan(ctx, s.opts.DuplicateFilter, s.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.log.WithField("device_count", s.latest.Len()).Info("BLE scan completed")

	devices := make(map[string]*advertisement.Advertisement, s.latest.Len())
	s.latest.Range(func(addr string, adv *advertisement.Advertisement) bool {
		devices[addr] = adv
		return true
	})
	return devices, nil
}

// handleAdvertisement decodes one broadcast and publishes an event.
// Broadcasts from other vendors and undecodable payloads are dropped.
func (s *Scanner) handleAdvertisement(a blelib.Advertisement) {
	payload := manufacturerPayload(a)
	if payload == nil {
		return
	}
	addr := a.Addr().String()
	if !s.includeAddress(addr) {
		return
	}

	adv, err := advertisement.Parse(payload)
	if err != nil {
		// One undecodable broadcast never affects the rest.
		s.log.WithFields(logrus.Fields{
			"address": addr,
			"length":  len(payload),
		}).Debug("Ignoring undecodable advertisement")
		return
	}

	buttons := s.tracker.Update(addr, adv)

	_, existing := s.latest.Get(addr)
	s.latest.Set(addr, adv)

	event := Event{
		Type:    EventUpdated,
		Address: addr,
		RSSI:    a.RSSI(),
		Adv:     adv,
		Buttons: buttons,
	}
	if !existing {
		event.Type = EventNew
		s.log.WithFields(logrus.Fields{
			"address":    addr,
			"rssi":       a.RSSI(),
			"format":     adv.Format.String(),
			"battery_mv": adv.BatteryMV,
		}).Info("Discovered device")
	}
	s.events.Send(event)
}

func (s *Scanner) includeAddress(addr string) bool {
	for _, blocked := range s.opts.BlockList {
		if addr == blocked {
			return false
		}
	}
	if len(s.opts.AllowList) == 0 {
		return true
	}
	for _, allowed := range s.opts.AllowList {
		if addr == allowed {
			return true
		}
	}
	return false
}

// manufacturerPayload extracts this vendor's manufacturer data from an
// advertisement, or nil when the broadcast belongs to someone else. The
// id prefix is left in place; the parser strips it.
func manufacturerPayload(a blelib.Advertisement) []byte {
	data := a.ManufacturerData()
	if len(data) < 2 {
		return nil
	}
	if int(data[0])|int(data[1])<<8 != advertisement.ManufacturerID {
		return nil
	}
	return data
}
