package tlv

import "encoding/binary"

const (
	displaySize = 46
	ledSize     = 22
)

// Display describes one e-paper panel: geometry, controller IC and the
// pins wired to it. TLV id 0x20, 46 bytes, repeatable up to four
// instances.
type Display struct {
	InstanceNumber       uint8    `json:"instance_number"`
	DisplayTechnology    uint8    `json:"display_technology"`
	PanelICType          uint16   `json:"panel_ic_type"`
	PixelWidth           uint16   `json:"pixel_width"`
	PixelHeight          uint16   `json:"pixel_height"`
	ActiveWidthMM        uint16   `json:"active_width_mm"`
	ActiveHeightMM       uint16   `json:"active_height_mm"`
	TagType              uint16   `json:"legacy_tagtype"`
	Rotation             uint8    `json:"rotation"`
	ResetPin             uint8    `json:"reset_pin"`
	BusyPin              uint8    `json:"busy_pin"`
	DCPin                uint8    `json:"dc_pin"`
	CSPin                uint8    `json:"cs_pin"`
	DataPin              uint8    `json:"data_pin"`
	PartialUpdateSupport uint8    `json:"partial_update_support"`
	ColorScheme          uint8    `json:"color_scheme"`
	TransmissionModes    uint8    `json:"transmission_modes"`
	ClkPin               uint8    `json:"clk_pin"`
	ReservedPins         [7]byte  `json:"-"`
	Reserved             [15]byte `json:"-"`
}

func (Display) ID() byte { return IDDisplay }
func (Display) packet()  {}

func (p Display) MarshalBinary() ([]byte, error) {
	out := make([]byte, displaySize)
	out[0] = p.InstanceNumber
	out[1] = p.DisplayTechnology
	binary.LittleEndian.PutUint16(out[2:4], p.PanelICType)
	binary.LittleEndian.PutUint16(out[4:6], p.PixelWidth)
	binary.LittleEndian.PutUint16(out[6:8], p.PixelHeight)
	binary.LittleEndian.PutUint16(out[8:10], p.ActiveWidthMM)
	binary.LittleEndian.PutUint16(out[10:12], p.ActiveHeightMM)
	binary.LittleEndian.PutUint16(out[12:14], p.TagType)
	out[14] = p.Rotation
	out[15] = p.ResetPin
	out[16] = p.BusyPin
	out[17] = p.DCPin
	out[18] = p.CSPin
	out[19] = p.DataPin
	out[20] = p.PartialUpdateSupport
	out[21] = p.ColorScheme
	out[22] = p.TransmissionModes
	out[23] = p.ClkPin
	copy(out[24:31], p.ReservedPins[:])
	copy(out[31:], p.Reserved[:])
	return out, nil
}

func parseDisplay(data []byte) (Packet, error) {
	if len(data) != displaySize {
		return nil, packetSizeError(IDDisplay, len(data), displaySize)
	}
	p := Display{
		InstanceNumber:       data[0],
		DisplayTechnology:    data[1],
		PanelICType:          binary.LittleEndian.Uint16(data[2:4]),
		PixelWidth:           binary.LittleEndian.Uint16(data[4:6]),
		PixelHeight:          binary.LittleEndian.Uint16(data[6:8]),
		ActiveWidthMM:        binary.LittleEndian.Uint16(data[8:10]),
		ActiveHeightMM:       binary.LittleEndian.Uint16(data[10:12]),
		TagType:              binary.LittleEndian.Uint16(data[12:14]),
		Rotation:             data[14],
		ResetPin:             data[15],
		BusyPin:              data[16],
		DCPin:                data[17],
		CSPin:                data[18],
		DataPin:              data[19],
		PartialUpdateSupport: data[20],
		ColorScheme:          data[21],
		TransmissionModes:    data[22],
		ClkPin:               data[23],
	}
	copy(p.ReservedPins[:], data[24:31])
	copy(p.Reserved[:], data[31:])
	return p, nil
}

// Led describes one indicator LED fixture. TLV id 0x21, 22 bytes,
// repeatable. The four led_* bytes are channel pin assignments, RGB plus
// one spare.
type Led struct {
	InstanceNumber uint8    `json:"instance_number"`
	LedType        uint8    `json:"led_type"`
	Led1R          uint8    `json:"led_1_r"`
	Led2G          uint8    `json:"led_2_g"`
	Led3B          uint8    `json:"led_3_b"`
	Led4           uint8    `json:"led_4"`
	LedFlags       uint8    `json:"led_flags"`
	Reserved       [15]byte `json:"-"`
}

func (Led) ID() byte { return IDLed }
func (Led) packet()  {}

func (p Led) MarshalBinary() ([]byte, error) {
	out := make([]byte, ledSize)
	out[0] = p.InstanceNumber
	out[1] = p.LedType
	out[2] = p.Led1R
	out[3] = p.Led2G
	out[4] = p.Led3B
	out[5] = p.Led4
	out[6] = p.LedFlags
	copy(out[7:], p.Reserved[:])
	return out, nil
}

func parseLed(data []byte) (Packet, error) {
	if len(data) != ledSize {
		return nil, packetSizeError(IDLed, len(data), ledSize)
	}
	p := Led{
		InstanceNumber: data[0],
		LedType:        data[1],
		Led1R:          data[2],
		Led2G:          data[3],
		Led3B:          data[4],
		Led4:           data[5],
		LedFlags:       data[6],
	}
	copy(p.Reserved[:], data[7:])
	return p, nil
}
