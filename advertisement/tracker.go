package advertisement

import (
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
)

// EventType classifies a button transition.
type EventType int

const (
	ButtonDown EventType = iota + 1
	ButtonUp
	PressCountChanged
)

func (t EventType) String() string {
	switch t {
	case ButtonDown:
		return "button_down"
	case ButtonUp:
		return "button_up"
	case PressCountChanged:
		return "press_count_changed"
	default:
		return "unknown"
	}
}

// ButtonEvent is one transition detected between two successive
// advertisements from the same address. Button is the bit index within
// the tracked button byte. PressCount is the total number of downs seen
// for that button since the tracker first saw the address.
type ButtonEvent struct {
	Type       EventType
	Button     int
	Pressed    bool
	PressCount uint32
}

type deviceState struct {
	mu          sync.Mutex
	seen        bool
	buttons     byte
	loopCounter uint8
	pressCounts [8]uint32
}

// Tracker detects button transitions per device address. Addresses are
// independent: state for one never influences another, and unseen
// addresses allocate fresh state on first update.
type Tracker struct {
	log             *logrus.Logger
	states          *hashmap.Map[string, *deviceState]
	buttonByteIndex int
}

// NewTracker returns a Tracker reading button bits from dynamic-data
// byte 0. A nil logger gets a default one.
func NewTracker(log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.New()
	}
	return &Tracker{
		log:    log,
		states: hashmap.New[string, *deviceState](),
	}
}

// SetButtonByteIndex selects which dynamic-data byte carries button
// bits, matching the device's binary_input button data byte index. Set
// once before updates start.
func (t *Tracker) SetButtonByteIndex(index int) {
	t.buttonByteIndex = index
}

// Update folds one advertisement into the address's state and returns
// the transitions it caused, in button-index order. Legacy payloads
// carry no button data and produce nil. State is written on every call
// even when nothing changed, so later diffs stay correct.
func (t *Tracker) Update(address string, adv *Advertisement) []ButtonEvent {
	if adv == nil || adv.Format != FormatV1 {
		return nil
	}

	state, _ := t.states.GetOrInsert(address, &deviceState{})
	state.mu.Lock()
	defer state.mu.Unlock()

	current := adv.ButtonBits(t.buttonByteIndex)

	// A loop counter that moved backwards (mod its 4-bit range) hints
	// at a device reboot. Button state is deliberately kept: a reboot
	// does not un-press a physically held button.
	if state.seen && loopRegressed(state.loopCounter, adv.LoopCounter) {
		t.log.WithFields(logrus.Fields{
			"address": address,
			"prior":   state.loopCounter,
			"current": adv.LoopCounter,
		}).Debug("Advertisement loop counter regressed, device likely rebooted")
	}

	var events []ButtonEvent
	prior := state.buttons
	for bit := 0; bit < 8; bit++ {
		mask := byte(1) << bit
		was, is := prior&mask != 0, current&mask != 0
		switch {
		case is && !was:
			state.pressCounts[bit]++
			events = append(events,
				ButtonEvent{Type: ButtonDown, Button: bit, Pressed: true, PressCount: state.pressCounts[bit]},
				ButtonEvent{Type: PressCountChanged, Button: bit, Pressed: true, PressCount: state.pressCounts[bit]},
			)
		case was && !is:
			events = append(events,
				ButtonEvent{Type: ButtonUp, Button: bit, Pressed: false, PressCount: state.pressCounts[bit]})
		}
	}

	state.seen = true
	state.buttons = current
	state.loopCounter = adv.LoopCounter
	return events
}

// PressCount returns the total downs seen for one button of one
// address.
func (t *Tracker) PressCount(address string, button int) uint32 {
	if button < 0 || button > 7 {
		return 0
	}
	state, ok := t.states.Get(address)
	if !ok {
		return 0
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.pressCounts[button]
}

// loopRegressed reports whether the 4-bit loop counter moved backwards,
// treating wraparound as forward progress.
func loopRegressed(prior, current uint8) bool {
	delta := (current - prior) & 0x0F
	return delta > 8
}
