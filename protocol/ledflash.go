package protocol

// LedFlashPayloadSize is the packed size of a flash pattern on the wire.
const LedFlashPayloadSize = 12

// groupRepeatsInfinite is the raw sentinel for "loop forever", distinct
// from every finite count (finite n encodes as n-1).
const groupRepeatsInfinite = 0xFE

// LedFlashStep is one step of a flash pattern. FlashCount and
// LoopDelayUnits share a packed byte and are limited to 4 bits each.
type LedFlashStep struct {
	Color           uint8
	FlashCount      uint8 // 0..15
	LoopDelayUnits  uint8 // 0..15
	InterDelayUnits uint8
}

// LedFlashConfig is the typed form of the 12-byte LED activate payload.
// A config is built once per activation and never mutated by the engine.
type LedFlashConfig struct {
	Mode       uint8 // 0..15; firmware flash mode, 1 = stepped pattern
	Brightness uint8 // 1..16
	Steps      [3]LedFlashStep

	// GroupRepeats is how many times the whole pattern runs (1..254).
	// 255 has no wire encoding: finite n is stored as n-1 and raw 0xFE
	// is the infinite sentinel. Ignored when Infinite is set.
	GroupRepeats uint8
	Infinite     bool

	Reserved uint8
}

// SingleFlash builds a one-step pattern with the firmware defaults:
// mode 1, brightness 8, one flash, one group run. Callers adjust fields
// before encoding as needed.
func SingleFlash(color uint8) LedFlashConfig {
	return LedFlashConfig{
		Mode:         1,
		Brightness:   8,
		Steps:        [3]LedFlashStep{{Color: color, FlashCount: 1}},
		GroupRepeats: 1,
	}
}

// Validate checks every field range and returns the first violation as an
// InvalidFlashParameterError. Values are never clamped.
func (c LedFlashConfig) Validate() error {
	if c.Mode > 0x0F {
		return &InvalidFlashParameterError{Field: "mode", Value: int(c.Mode)}
	}
	if c.Brightness < 1 || c.Brightness > 16 {
		return &InvalidFlashParameterError{Field: "brightness", Value: int(c.Brightness)}
	}
	stepFields := [3]string{"step1", "step2", "step3"}
	for i, step := range c.Steps {
		if step.FlashCount > 0x0F {
			return &InvalidFlashParameterError{Field: stepFields[i] + ".flash_count", Value: int(step.FlashCount)}
		}
		if step.LoopDelayUnits > 0x0F {
			return &InvalidFlashParameterError{Field: stepFields[i] + ".loop_delay_units", Value: int(step.LoopDelayUnits)}
		}
	}
	if !c.Infinite && (c.GroupRepeats < 1 || c.GroupRepeats > 254) {
		return &InvalidFlashParameterError{Field: "group_repeats", Value: int(c.GroupRepeats)}
	}
	return nil
}

// EncodeLedFlash packs a validated config into its 12-byte wire form:
//
//	[mode|brightness:1][step1:3][step2:3][step3:3][group_repeats:1][reserved:1]
//
// Brightness is stored biased by one in the high nibble of byte 0. Each
// step packs loop delay (high nibble) with flash count (low nibble).
func EncodeLedFlash(c LedFlashConfig) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, LedFlashPayloadSize)
	out = append(out, ((c.Brightness-1)&0x0F)<<4|c.Mode&0x0F)
	for _, step := range c.Steps {
		out = append(out,
			step.Color,
			(step.LoopDelayUnits&0x0F)<<4|step.FlashCount&0x0F,
			step.InterDelayUnits,
		)
	}

	groupRaw := byte(groupRepeatsInfinite)
	if !c.Infinite {
		groupRaw = c.GroupRepeats - 1
	}
	out = append(out, groupRaw, c.Reserved)
	return out, nil
}

// DecodeLedFlash parses a 12-byte flash pattern payload. Exact inverse of
// EncodeLedFlash for every valid config.
func DecodeLedFlash(data []byte) (LedFlashConfig, error) {
	if len(data) != LedFlashPayloadSize {
		return LedFlashConfig{}, &MalformedResponseError{
			Length: len(data),
			Reason: "LED flash payload must be exactly 12 bytes",
		}
	}

	c := LedFlashConfig{
		Mode:       data[0] & 0x0F,
		Brightness: (data[0]>>4)&0x0F + 1,
		Reserved:   data[11],
	}
	for i := range c.Steps {
		base := 1 + i*3
		c.Steps[i] = LedFlashStep{
			Color:           data[base],
			FlashCount:      data[base+1] & 0x0F,
			LoopDelayUnits:  (data[base+1] >> 4) & 0x0F,
			InterDelayUnits: data[base+2],
		}
	}
	if data[10] == groupRepeatsInfinite {
		c.Infinite = true
	} else {
		c.GroupRepeats = data[10] + 1
	}
	return c, nil
}

// BuildLedActivate encodes an LED activate command for one LED instance.
// The LED activate opcode does not exist on firmware below 1.0, so the
// caller must supply the device's parsed version; the gate fails with
// UnsupportedFirmwareError before any bytes are produced.
func BuildLedActivate(instance uint8, cfg LedFlashConfig, fw FirmwareVersion) (Command, error) {
	if !fw.AtLeast(1, 0) {
		return Command{}, &UnsupportedFirmwareError{Have: fw, Required: "1.0"}
	}

	pattern, err := EncodeLedFlash(cfg)
	if err != nil {
		return Command{}, err
	}

	payload := make([]byte, 0, 1+LedFlashPayloadSize)
	payload = append(payload, instance)
	payload = append(payload, pattern...)
	return Command{Opcode: OpLedActivate, Payload: payload}, nil
}
