// Package protocol implements the OpenDisplay BLE wire protocol: the
// command/response envelope, chunked image transfer planning, the LED
// flash pattern codec, and firmware version parsing.
//
// The protocol is strict request/response over a single GATT
// characteristic. Commands carry a 16-bit opcode (little-endian) followed
// by an opcode-specific payload. Responses echo the request opcode, or its
// error twin (high byte 0xFF, low byte of the request) when the device
// rejects the command.
package protocol

import "encoding/binary"

// Command opcodes. Any opcode outside this table is passed through
// unmodified; the engine only interprets the ones below.
const (
	// OpInterrogate requests the device's TLV configuration. The device
	// answers with a chunked response stream (see device.Client.Interrogate).
	OpInterrogate uint16 = 0x0001

	// OpReboot restarts the device. No ACK: the connection dropping after
	// the write is the expected success path.
	OpReboot uint16 = 0x000F

	// OpReadFirmwareVersion reads the firmware version and build SHA.
	OpReadFirmwareVersion uint16 = 0x0043

	// Image upload family (direct write mode).
	OpImageStart uint16 = 0x0070
	OpImageChunk uint16 = 0x0071
	OpImageEnd   uint16 = 0x0072

	// OpLedActivate triggers a one-shot LED flash pattern. Firmware 1.0+.
	OpLedActivate uint16 = 0x0073
)

// opWriteConfigBase is the high byte shared by all per-packet-kind config
// write opcodes; the low byte is the packet's TLV id.
const opWriteConfigBase uint16 = 0x0200

// WriteConfigOpcode returns the config-write opcode for a TLV packet id,
// e.g. 0x0201 for the system packet (id 0x01).
func WriteConfigOpcode(packetID byte) uint16 {
	return opWriteConfigBase | uint16(packetID)
}

// RefreshMode selects how the display refreshes after an image upload.
type RefreshMode uint8

const (
	RefreshFull RefreshMode = 0
	RefreshFast RefreshMode = 1
)

// Command is a single request to the device: a 16-bit opcode plus an
// opcode-specific payload.
type Command struct {
	Opcode  uint16
	Payload []byte
}

// NewCommand builds a Command without copying the payload.
func NewCommand(opcode uint16, payload []byte) Command {
	return Command{Opcode: opcode, Payload: payload}
}

// Encode produces the wire frame: opcode (little-endian) followed by the
// payload bytes.
func (c Command) Encode() []byte {
	frame := make([]byte, 2+len(c.Payload))
	binary.LittleEndian.PutUint16(frame[0:2], c.Opcode)
	copy(frame[2:], c.Payload)
	return frame
}

// BuildReboot returns the fire-and-forget reboot command.
func BuildReboot() Command {
	return Command{Opcode: OpReboot}
}

// BuildReadFirmwareVersion returns the firmware version read command.
func BuildReadFirmwareVersion() Command {
	return Command{Opcode: OpReadFirmwareVersion}
}

// BuildInterrogate returns the config read command.
func BuildInterrogate() Command {
	return Command{Opcode: OpInterrogate}
}
