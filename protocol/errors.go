package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a local decode failure: the device said
// garbage. Distinct from ErrTimeout (the device said nothing) and from
// DeviceError (the device said no).
var ErrMalformedResponse = errors.New("malformed response")

// ErrTimeout is returned by transports when the device does not answer
// within the allotted time. Decode-level code never retries; retry policy
// belongs to the transport.
var ErrTimeout = errors.New("timeout waiting for device response")

// MalformedResponseError reports a response frame that could not be
// decoded. It unwraps to ErrMalformedResponse.
type MalformedResponseError struct {
	Length int
	Reason string
}

func (e *MalformedResponseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed response: %s (%d bytes)", e.Reason, e.Length)
	}
	return fmt.Sprintf("malformed response: %d bytes, need at least 2", e.Length)
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }

// DeviceError is a device-reported failure: the device answered with the
// error twin of the request opcode. Code is the device's reason byte, if
// the payload carried one.
type DeviceError struct {
	Opcode uint16 // rejected request opcode, e.g. 0x0073
	Code   byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected command 0x%04x: error code 0x%02x", e.Opcode, e.Code)
}

// InvalidFlashParameterError reports an out-of-range LED flash field.
// Values are never clamped: a silently altered flash pattern is worse
// than a loud rejection.
type InvalidFlashParameterError struct {
	Field string
	Value int
}

func (e *InvalidFlashParameterError) Error() string {
	return fmt.Sprintf("invalid LED flash parameter %s: %d", e.Field, e.Value)
}

// UnsupportedFirmwareError reports a command that does not exist on the
// device's firmware. Sending it anyway produces undefined device behavior
// rather than a clean error, so the gate fails before any bytes are sent.
type UnsupportedFirmwareError struct {
	Have     FirmwareVersion
	Required string
}

func (e *UnsupportedFirmwareError) Error() string {
	return fmt.Sprintf("command requires firmware >= %s, device has %s", e.Required, e.Have)
}
