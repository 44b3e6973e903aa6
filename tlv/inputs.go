package tlv

import "encoding/binary"

const (
	sensorSize      = 30
	dataBusSize     = 30
	binaryInputSize = 30
)

// Sensor describes an attached environmental sensor and the bus it hangs
// off. TLV id 0x23, 30 bytes, repeatable.
type Sensor struct {
	InstanceNumber uint8    `json:"instance_number"`
	SensorType     uint16   `json:"sensor_type"`
	BusID          uint8    `json:"bus_id"`
	Reserved       [26]byte `json:"-"`
}

func (Sensor) ID() byte { return IDSensor }
func (Sensor) packet()  {}

func (p Sensor) MarshalBinary() ([]byte, error) {
	out := make([]byte, sensorSize)
	out[0] = p.InstanceNumber
	binary.LittleEndian.PutUint16(out[1:3], p.SensorType)
	out[3] = p.BusID
	copy(out[4:], p.Reserved[:])
	return out, nil
}

func parseSensor(data []byte) (Packet, error) {
	if len(data) != sensorSize {
		return nil, packetSizeError(IDSensor, len(data), sensorSize)
	}
	p := Sensor{
		InstanceNumber: data[0],
		SensorType:     binary.LittleEndian.Uint16(data[1:3]),
		BusID:          data[3],
	}
	copy(p.Reserved[:], data[4:])
	return p, nil
}

// DataBus describes a peripheral bus (SPI, I2C) with its pin set and
// clock rate. TLV id 0x24, 30 bytes, repeatable.
type DataBus struct {
	InstanceNumber uint8    `json:"instance_number"`
	BusType        uint8    `json:"bus_type"`
	Pins           [7]uint8 `json:"pins"`
	BusSpeedHz     uint32   `json:"bus_speed_hz"`
	BusFlags       uint8    `json:"bus_flags"`
	Pullups        uint8    `json:"pullups"`
	Pulldowns      uint8    `json:"pulldowns"`
	Reserved       [14]byte `json:"-"`
}

func (DataBus) ID() byte { return IDDataBus }
func (DataBus) packet()  {}

func (p DataBus) MarshalBinary() ([]byte, error) {
	out := make([]byte, dataBusSize)
	out[0] = p.InstanceNumber
	out[1] = p.BusType
	copy(out[2:9], p.Pins[:])
	binary.LittleEndian.PutUint32(out[9:13], p.BusSpeedHz)
	out[13] = p.BusFlags
	out[14] = p.Pullups
	out[15] = p.Pulldowns
	copy(out[16:], p.Reserved[:])
	return out, nil
}

func parseDataBus(data []byte) (Packet, error) {
	if len(data) != dataBusSize {
		return nil, packetSizeError(IDDataBus, len(data), dataBusSize)
	}
	p := DataBus{
		InstanceNumber: data[0],
		BusType:        data[1],
		BusSpeedHz:     binary.LittleEndian.Uint32(data[9:13]),
		BusFlags:       data[13],
		Pullups:        data[14],
		Pulldowns:      data[15],
	}
	copy(p.Pins[:], data[2:9])
	copy(p.Reserved[:], data[16:])
	return p, nil
}

// BinaryInput describes a bank of buttons or switches. TLV id 0x25,
// 30 bytes, repeatable. ButtonDataByteIndex selects which byte of the
// advertisement's dynamic data carries this bank's press bits.
type BinaryInput struct {
	InstanceNumber      uint8    `json:"instance_number"`
	InputType           uint8    `json:"input_type"`
	DisplayAs           uint8    `json:"display_as"`
	ReservedPins        [8]byte  `json:"-"`
	InputFlags          uint8    `json:"input_flags"`
	Invert              uint8    `json:"invert"`
	Pullups             uint8    `json:"pullups"`
	Pulldowns           uint8    `json:"pulldowns"`
	ButtonDataByteIndex uint8    `json:"button_data_byte_index"`
	Reserved            [14]byte `json:"-"`
}

func (BinaryInput) ID() byte { return IDBinaryInput }
func (BinaryInput) packet()  {}

func (p BinaryInput) MarshalBinary() ([]byte, error) {
	out := make([]byte, binaryInputSize)
	out[0] = p.InstanceNumber
	out[1] = p.InputType
	out[2] = p.DisplayAs
	copy(out[3:11], p.ReservedPins[:])
	out[11] = p.InputFlags
	out[12] = p.Invert
	out[13] = p.Pullups
	out[14] = p.Pulldowns
	out[15] = p.ButtonDataByteIndex
	copy(out[16:], p.Reserved[:])
	return out, nil
}

func parseBinaryInput(data []byte) (Packet, error) {
	if len(data) != binaryInputSize {
		return nil, packetSizeError(IDBinaryInput, len(data), binaryInputSize)
	}
	p := BinaryInput{
		InstanceNumber:      data[0],
		InputType:           data[1],
		DisplayAs:           data[2],
		InputFlags:          data[11],
		Invert:              data[12],
		Pullups:             data[13],
		Pulldowns:           data[14],
		ButtonDataByteIndex: data[15],
	}
	copy(p.ReservedPins[:], data[3:11])
	copy(p.Reserved[:], data[16:])
	return p, nil
}
