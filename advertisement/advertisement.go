// Package advertisement decodes the manufacturer-data payload that
// OpenDisplay devices broadcast while asleep, and tracks button
// transitions across successive payloads per device address.
//
// Two payload layouts exist. Legacy firmware broadcasts 11 bytes with a
// raw battery/temperature reading; firmware 1.0+ broadcasts 14 bytes
// with packed telemetry, a status byte and a dynamic-data region that
// carries button states. The layout is chosen purely by payload length,
// never by a caller hint.
package advertisement

import (
	"encoding/binary"
	"fmt"
)

// ManufacturerID is the Bluetooth SIG company identifier the devices
// advertise under. Some HCI stacks hand the payload over with the id
// still prefixed (little-endian), some strip it; Parse accepts both.
const ManufacturerID = 0x2446

const (
	legacyLength = 11
	v1Length     = 14

	v1DynamicDataLen = 11
)

// Format tags which payload layout an Advertisement was decoded from.
type Format int

const (
	FormatLegacy Format = iota + 1
	FormatV1
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatV1:
		return "v1"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Advertisement is one decoded broadcast. RebootFlag,
// ConnectionRequested and DynamicData are only populated for FormatV1;
// legacy payloads carry no status byte and no dynamic data.
type Advertisement struct {
	Format              Format
	BatteryMV           int
	TemperatureC        float64
	LoopCounter         uint8
	RebootFlag          bool
	ConnectionRequested bool
	DynamicData         []byte
	Raw                 []byte
}

// ButtonBits returns the button bitmask at the given dynamic-data byte
// index, or zero for legacy payloads and out-of-range indexes. The
// index matches the binary_input configuration's button data byte
// index.
func (a *Advertisement) ButtonBits(index int) byte {
	if a.Format != FormatV1 || index < 0 || index >= len(a.DynamicData) {
		return 0
	}
	return a.DynamicData[index]
}

// UnrecognizedFormatError reports a manufacturer-data payload whose
// length matches neither layout.
type UnrecognizedFormatError struct {
	Length int
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unrecognized advertisement format: %d bytes (want %d legacy or %d v1)",
		e.Length, legacyLength, v1Length)
}

// Parse decodes raw manufacturer data. Pure: no state, no address
// awareness.
func Parse(data []byte) (*Advertisement, error) {
	payload := stripManufacturerID(data)
	switch len(payload) {
	case legacyLength:
		return parseLegacy(payload), nil
	case v1Length:
		return parseV1(payload), nil
	default:
		return nil, &UnrecognizedFormatError{Length: len(payload)}
	}
}

func stripManufacturerID(data []byte) []byte {
	if (len(data) == legacyLength+2 || len(data) == v1Length+2) &&
		binary.LittleEndian.Uint16(data[:2]) == ManufacturerID {
		return data[2:]
	}
	return data
}

// Legacy layout: bytes 0-6 fixed protocol bytes, 7-8 battery mV
// (u16 LE), 9 temperature in whole Celsius (signed), 10 loop counter.
func parseLegacy(payload []byte) *Advertisement {
	return &Advertisement{
		Format:       FormatLegacy,
		BatteryMV:    int(binary.LittleEndian.Uint16(payload[7:9])),
		TemperatureC: float64(int8(payload[9])),
		LoopCounter:  payload[10],
		Raw:          payload,
	}
}

// V1 layout: bytes 0-10 dynamic return data, 11 temperature encoded as
// (celsius + 40) * 2, 12 battery low byte in 10 mV units, 13 status:
// bit0 battery high bit, bit1 reboot flag, bit2 connection requested,
// bits 4-7 loop counter.
func parseV1(payload []byte) *Advertisement {
	status := payload[13]
	battery10mv := int(payload[12]) | int(status&0x01)<<8
	return &Advertisement{
		Format:              FormatV1,
		BatteryMV:           battery10mv * 10,
		TemperatureC:        float64(payload[11])/2 - 40,
		LoopCounter:         status >> 4,
		RebootFlag:          status&0x02 != 0,
		ConnectionRequested: status&0x04 != 0,
		DynamicData:         payload[:v1DynamicDataLen],
		Raw:                 payload,
	}
}
