package advertisement

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietTracker() *Tracker {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return NewTracker(log)
}

// v1Adv builds a v1 advertisement with the given button byte at
// dynamic-data index 0 and the given loop counter.
func v1Adv(t *testing.T, buttons byte, loop uint8) *Advertisement {
	t.Helper()
	payload := make([]byte, 14)
	payload[0] = buttons
	payload[11] = 0x7C
	payload[13] = loop << 4

	adv, err := Parse(payload)
	require.NoError(t, err)
	return adv
}

func TestTrackerButtonTransitions(t *testing.T) {
	tracker := quietTracker()
	const addr = "AA:BB:CC:DD:EE:FF"

	// First sighting with button 0 already down: rising edge against
	// the implicit all-unpressed prior state.
	events := tracker.Update(addr, v1Adv(t, 0b0000_0001, 1))
	require.Len(t, events, 2)
	assert.Equal(t, ButtonEvent{Type: ButtonDown, Button: 0, Pressed: true, PressCount: 1}, events[0])
	assert.Equal(t, ButtonEvent{Type: PressCountChanged, Button: 0, Pressed: true, PressCount: 1}, events[1])

	// Held: no transitions.
	assert.Empty(t, tracker.Update(addr, v1Adv(t, 0b0000_0001, 2)))

	// Released.
	events = tracker.Update(addr, v1Adv(t, 0, 3))
	require.Len(t, events, 1)
	assert.Equal(t, ButtonEvent{Type: ButtonUp, Button: 0, Pressed: false, PressCount: 1}, events[0])

	// Second press increments the count.
	events = tracker.Update(addr, v1Adv(t, 0b0000_0001, 4))
	require.Len(t, events, 2)
	assert.Equal(t, uint32(2), events[0].PressCount)
	assert.Equal(t, uint32(2), tracker.PressCount(addr, 0))
}

func TestTrackerMultipleButtonsInOneUpdate(t *testing.T) {
	tracker := quietTracker()
	const addr = "AA:BB:CC:DD:EE:FF"

	require.Empty(t, tracker.Update(addr, v1Adv(t, 0, 1)))

	events := tracker.Update(addr, v1Adv(t, 0b0000_0101, 2))
	require.Len(t, events, 4)
	assert.Equal(t, 0, events[0].Button)
	assert.Equal(t, ButtonDown, events[0].Type)
	assert.Equal(t, 2, events[2].Button)
	assert.Equal(t, ButtonDown, events[2].Type)
}

func TestTrackerLegacyProducesNoEvents(t *testing.T) {
	tracker := quietTracker()

	adv, err := Parse(legacySample)
	require.NoError(t, err)
	assert.Nil(t, tracker.Update("AA:BB:CC:DD:EE:FF", adv))
}

func TestTrackerAddressesAreIndependent(t *testing.T) {
	tracker := quietTracker()

	tracker.Update("11:11:11:11:11:11", v1Adv(t, 0b0000_0001, 1))
	events := tracker.Update("22:22:22:22:22:22", v1Adv(t, 0b0000_0001, 1))

	// The second address starts from its own all-unpressed state.
	require.Len(t, events, 2)
	assert.Equal(t, uint32(1), events[0].PressCount)
	assert.Equal(t, uint32(1), tracker.PressCount("11:11:11:11:11:11", 0))
	assert.Equal(t, uint32(1), tracker.PressCount("22:22:22:22:22:22", 0))
}

// A loop counter moving backwards signals a reboot but must not reset
// button state.
func TestTrackerLoopCounterRegression(t *testing.T) {
	tracker := quietTracker()
	const addr = "AA:BB:CC:DD:EE:FF"

	tracker.Update(addr, v1Adv(t, 0b0000_0001, 9))
	events := tracker.Update(addr, v1Adv(t, 0b0000_0001, 2))
	assert.Empty(t, events)

	// Releasing after the regression still diffs against the held state.
	events = tracker.Update(addr, v1Adv(t, 0, 3))
	require.Len(t, events, 1)
	assert.Equal(t, ButtonUp, events[0].Type)
}

func TestTrackerConfigurableButtonByteIndex(t *testing.T) {
	tracker := quietTracker()
	tracker.SetButtonByteIndex(7)
	const addr = "AA:BB:CC:DD:EE:FF"

	payload := make([]byte, 14)
	payload[7] = 0b0000_0010
	payload[11] = 0x7C
	adv, err := Parse(payload)
	require.NoError(t, err)

	events := tracker.Update(addr, adv)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Button)
}

func TestLoopRegressed(t *testing.T) {
	tests := []struct {
		name           string
		prior, current uint8
		regressed      bool
	}{
		{"forward", 3, 4, false},
		{"same", 5, 5, false},
		{"wraparound is forward", 15, 0, false},
		{"backward", 9, 2, true},
		{"backward by one", 5, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.regressed, loopRegressed(tt.prior, tt.current))
		})
	}
}
