// Package tlv implements the OpenDisplay TLV device-configuration model:
// typed packets for each configuration kind, parse/serialize that
// round-trip exactly, assembly of a packet stream into a DeviceConfig,
// the whole-blob wrapper with its CRC, and the JSON interchange format
// used by the external configuration-authoring tool.
package tlv

import (
	"fmt"
	"strings"
)

// TLV packet ids.
const (
	IDSystem       byte = 0x01
	IDManufacturer byte = 0x02
	IDPower        byte = 0x04
	IDDisplay      byte = 0x20
	IDLed          byte = 0x21
	IDSensor       byte = 0x23
	IDDataBus      byte = 0x24
	IDBinaryInput  byte = 0x25
	IDWifi         byte = 0x26
)

// Packet is one typed TLV configuration packet. The set of kinds is
// closed: the firmware defines exactly these ids, and anything else takes
// the single unknown-kind skip path in the blob parser.
type Packet interface {
	// ID returns the packet's stable TLV id.
	ID() byte

	// MarshalBinary serializes the packet to its fixed wire form. The
	// exact inverse of ParsePacket for every valid field value.
	MarshalBinary() ([]byte, error)

	packet() // closed sum
}

// ParsePacket decodes a single packet payload by TLV id. Unrecognized ids
// fail with UnknownPacketKindError; when reading a stream from a live
// device that is a forward-compatibility signal, not corruption, and the
// caller should skip the packet rather than abort.
func ParsePacket(id byte, payload []byte) (Packet, error) {
	switch id {
	case IDSystem:
		return parseSystem(payload)
	case IDManufacturer:
		return parseManufacturer(payload)
	case IDPower:
		return parsePower(payload)
	case IDDisplay:
		return parseDisplay(payload)
	case IDLed:
		return parseLed(payload)
	case IDSensor:
		return parseSensor(payload)
	case IDDataBus:
		return parseDataBus(payload)
	case IDBinaryInput:
		return parseBinaryInput(payload)
	case IDWifi:
		return parseWifi(payload)
	default:
		return nil, &UnknownPacketKindError{ID: id}
	}
}

// kindName maps a TLV id to the name used in errors and JSON keys.
func kindName(id byte) string {
	switch id {
	case IDSystem:
		return "system"
	case IDManufacturer:
		return "manufacturer"
	case IDPower:
		return "power"
	case IDDisplay:
		return "display"
	case IDLed:
		return "led"
	case IDSensor:
		return "sensor"
	case IDDataBus:
		return "databus"
	case IDBinaryInput:
		return "binary_input"
	case IDWifi:
		return "wifi_config"
	default:
		return fmt.Sprintf("0x%02x", id)
	}
}

// UnknownPacketKindError reports a TLV id this engine does not model.
type UnknownPacketKindError struct {
	ID byte
}

func (e *UnknownPacketKindError) Error() string {
	return fmt.Sprintf("unknown TLV packet kind 0x%02x", e.ID)
}

// DuplicatePacketError reports a second occurrence of a singleton packet
// kind. The device never emits more than one system, manufacturer, power
// or wifi_config packet.
type DuplicatePacketError struct {
	ID byte
}

func (e *DuplicatePacketError) Error() string {
	return fmt.Sprintf("duplicate %s packet (id 0x%02x)", kindName(e.ID), e.ID)
}

// IncompleteConfigError lists every required section absent from a
// DeviceConfig, so callers can report exactly what is missing instead of
// a single opaque failure.
type IncompleteConfigError struct {
	Missing []string
}

func (e *IncompleteConfigError) Error() string {
	return "config missing required packets: " + strings.Join(e.Missing, ", ")
}

func packetSizeError(id byte, got, want int) error {
	return fmt.Errorf("%s packet: got %d bytes, want %d", kindName(id), got, want)
}
