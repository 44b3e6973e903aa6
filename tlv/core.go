package tlv

import "encoding/binary"

// Wire sizes of the fixed-layout packets.
const (
	systemSize       = 22
	manufacturerSize = 22
	powerSize        = 30
)

// System describes the controller: IC family, enabled radios and global
// device flags. TLV id 0x01, 22 bytes, little-endian.
type System struct {
	ICType             uint16   `json:"ic_type"`
	CommunicationModes uint8    `json:"communication_modes"`
	DeviceFlags        uint8    `json:"device_flags"`
	PowerPin           uint8    `json:"pwr_pin"`
	Reserved           [17]byte `json:"-"`
}

func (System) ID() byte { return IDSystem }
func (System) packet()  {}

func (p System) MarshalBinary() ([]byte, error) {
	out := make([]byte, systemSize)
	binary.LittleEndian.PutUint16(out[0:2], p.ICType)
	out[2] = p.CommunicationModes
	out[3] = p.DeviceFlags
	out[4] = p.PowerPin
	copy(out[5:], p.Reserved[:])
	return out, nil
}

func parseSystem(data []byte) (Packet, error) {
	if len(data) != systemSize {
		return nil, packetSizeError(IDSystem, len(data), systemSize)
	}
	p := System{
		ICType:             binary.LittleEndian.Uint16(data[0:2]),
		CommunicationModes: data[2],
		DeviceFlags:        data[3],
		PowerPin:           data[4],
	}
	copy(p.Reserved[:], data[5:])
	return p, nil
}

// Manufacturer identifies the board vendor and hardware revision.
// TLV id 0x02, 22 bytes.
type Manufacturer struct {
	ManufacturerID uint16   `json:"manufacturer_id"`
	BoardType      uint8    `json:"board_type"`
	BoardRevision  uint8    `json:"board_revision"`
	Reserved       [18]byte `json:"-"`
}

func (Manufacturer) ID() byte { return IDManufacturer }
func (Manufacturer) packet()  {}

func (p Manufacturer) MarshalBinary() ([]byte, error) {
	out := make([]byte, manufacturerSize)
	binary.LittleEndian.PutUint16(out[0:2], p.ManufacturerID)
	out[2] = p.BoardType
	out[3] = p.BoardRevision
	copy(out[4:], p.Reserved[:])
	return out, nil
}

func parseManufacturer(data []byte) (Packet, error) {
	if len(data) != manufacturerSize {
		return nil, packetSizeError(IDManufacturer, len(data), manufacturerSize)
	}
	p := Manufacturer{
		ManufacturerID: binary.LittleEndian.Uint16(data[0:2]),
		BoardType:      data[2],
		BoardRevision:  data[3],
	}
	copy(p.Reserved[:], data[4:])
	return p, nil
}

// Power describes the power source and sleep behavior. TLV id 0x04,
// 30 bytes. BatteryCapacityMAh occupies 24 bits on the wire.
type Power struct {
	PowerMode             uint8    `json:"power_mode"`
	BatteryCapacityMAh    uint32   `json:"battery_capacity_mah"`
	SleepTimeoutMS        uint16   `json:"sleep_timeout_ms"`
	TxPower               int8     `json:"tx_power"`
	SleepFlags            uint8    `json:"sleep_flags"`
	BatterySensePin       uint8    `json:"battery_sense_pin"`
	BatterySenseEnablePin uint8    `json:"battery_sense_enable_pin"`
	BatterySenseFlags     uint8    `json:"battery_sense_flags"`
	CapacityEstimator     uint8    `json:"capacity_estimator"`
	VoltageScalingFactor  uint16   `json:"voltage_scaling_factor"`
	DeepSleepCurrentUA    uint32   `json:"deep_sleep_current_ua"`
	DeepSleepTimeSeconds  uint16   `json:"deep_sleep_time_seconds"`
	Reserved              [10]byte `json:"-"`
}

func (Power) ID() byte { return IDPower }
func (Power) packet()  {}

func (p Power) MarshalBinary() ([]byte, error) {
	out := make([]byte, powerSize)
	out[0] = p.PowerMode
	capacity := p.BatteryCapacityMAh & 0xFFFFFF
	out[1] = byte(capacity)
	out[2] = byte(capacity >> 8)
	out[3] = byte(capacity >> 16)
	binary.LittleEndian.PutUint16(out[4:6], p.SleepTimeoutMS)
	out[6] = byte(p.TxPower)
	out[7] = p.SleepFlags
	out[8] = p.BatterySensePin
	out[9] = p.BatterySenseEnablePin
	out[10] = p.BatterySenseFlags
	out[11] = p.CapacityEstimator
	binary.LittleEndian.PutUint16(out[12:14], p.VoltageScalingFactor)
	binary.LittleEndian.PutUint32(out[14:18], p.DeepSleepCurrentUA)
	binary.LittleEndian.PutUint16(out[18:20], p.DeepSleepTimeSeconds)
	copy(out[20:], p.Reserved[:])
	return out, nil
}

func parsePower(data []byte) (Packet, error) {
	if len(data) != powerSize {
		return nil, packetSizeError(IDPower, len(data), powerSize)
	}
	p := Power{
		PowerMode:             data[0],
		BatteryCapacityMAh:    uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16,
		SleepTimeoutMS:        binary.LittleEndian.Uint16(data[4:6]),
		TxPower:               int8(data[6]),
		SleepFlags:            data[7],
		BatterySensePin:       data[8],
		BatterySenseEnablePin: data[9],
		BatterySenseFlags:     data[10],
		CapacityEstimator:     data[11],
		VoltageScalingFactor:  binary.LittleEndian.Uint16(data[12:14]),
		DeepSleepCurrentUA:    binary.LittleEndian.Uint32(data[14:18]),
		DeepSleepTimeSeconds:  binary.LittleEndian.Uint16(data[18:20]),
	}
	copy(p.Reserved[:], data[20:])
	return p, nil
}
