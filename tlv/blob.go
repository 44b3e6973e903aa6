package tlv

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/sirupsen/logrus"
)

// Blob wrapper limits. The firmware stores the whole blob in a single
// flash page, hence the hard size cap.
const (
	MaxConfigBlobSize = 4096
	MaxInstances      = 4

	blobHeaderSize = 3 // 2 bytes padding + 1 byte version
	blobCRCSize    = 2
)

// RawPacket is one undecoded packet as it appears in a config blob or
// a device config-read stream.
type RawPacket struct {
	Instance byte
	ID       byte
	Payload  []byte
}

// DeviceConfig is the assembled configuration of one device. System,
// Manufacturer, Power and Wifi occur at most once; the remaining kinds
// repeat up to MaxInstances times, in instance order.
type DeviceConfig struct {
	Version      uint8
	System       *System
	Manufacturer *Manufacturer
	Power        *Power
	Displays     []Display
	Leds         []Led
	Sensors      []Sensor
	DataBuses    []DataBus
	BinaryInputs []BinaryInput
	Wifi         *Wifi
}

// ConfigCRCError reports a blob whose trailing checksum does not match
// its contents.
type ConfigCRCError struct {
	Want uint16
	Got  uint16
}

func (e *ConfigCRCError) Error() string {
	return fmt.Sprintf("config blob CRC mismatch: computed 0x%04x, stored 0x%04x", e.Want, e.Got)
}

// configCRC is the low 16 bits of an IEEE CRC32 over everything that
// precedes the checksum field.
func configCRC(data []byte) uint16 {
	return uint16(crc32.ChecksumIEEE(data) & 0xFFFF)
}

// wireSize returns the fixed on-wire payload size for a packet id.
func wireSize(id byte) (int, bool) {
	switch id {
	case IDSystem:
		return systemSize, true
	case IDManufacturer:
		return manufacturerSize, true
	case IDPower:
		return powerSize, true
	case IDDisplay:
		return displaySize, true
	case IDLed:
		return ledSize, true
	case IDSensor:
		return sensorSize, true
	case IDDataBus:
		return dataBusSize, true
	case IDBinaryInput:
		return binaryInputSize, true
	case IDWifi:
		return wifiSize, true
	default:
		return 0, false
	}
}

// Assemble folds a stream of raw packets into a DeviceConfig. A second
// occurrence of a singleton kind fails with DuplicatePacketError; an
// unknown kind fails with UnknownPacketKindError so the caller can decide
// to skip it.
func Assemble(packets []RawPacket) (*DeviceConfig, error) {
	cfg := &DeviceConfig{}
	for _, raw := range packets {
		if err := cfg.add(raw); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *DeviceConfig) add(raw RawPacket) error {
	pkt, err := ParsePacket(raw.ID, raw.Payload)
	if err != nil {
		return err
	}
	switch p := pkt.(type) {
	case System:
		if c.System != nil {
			return &DuplicatePacketError{ID: IDSystem}
		}
		c.System = &p
	case Manufacturer:
		if c.Manufacturer != nil {
			return &DuplicatePacketError{ID: IDManufacturer}
		}
		c.Manufacturer = &p
	case Power:
		if c.Power != nil {
			return &DuplicatePacketError{ID: IDPower}
		}
		c.Power = &p
	case Display:
		c.Displays = append(c.Displays, p)
	case Led:
		c.Leds = append(c.Leds, p)
	case Sensor:
		c.Sensors = append(c.Sensors, p)
	case DataBus:
		c.DataBuses = append(c.DataBuses, p)
	case BinaryInput:
		c.BinaryInputs = append(c.BinaryInputs, p)
	case Wifi:
		if c.Wifi != nil {
			return &DuplicatePacketError{ID: IDWifi}
		}
		c.Wifi = &p
	}
	return nil
}

// ValidateForWrite checks that every section the firmware requires is
// present. The error lists all missing sections at once.
func (c *DeviceConfig) ValidateForWrite() error {
	var missing []string
	if c.System == nil {
		missing = append(missing, kindName(IDSystem))
	}
	if c.Manufacturer == nil {
		missing = append(missing, kindName(IDManufacturer))
	}
	if c.Power == nil {
		missing = append(missing, kindName(IDPower))
	}
	if len(c.Displays) == 0 {
		missing = append(missing, kindName(IDDisplay))
	}
	if len(missing) > 0 {
		return &IncompleteConfigError{Missing: missing}
	}
	return nil
}

// Packets returns the config's packets in canonical blob order with
// their instance numbers assigned.
func (c *DeviceConfig) Packets() ([]RawPacket, error) {
	var out []RawPacket
	appendOne := func(instance byte, p Packet) error {
		payload, err := p.MarshalBinary()
		if err != nil {
			return err
		}
		out = append(out, RawPacket{Instance: instance, ID: p.ID(), Payload: payload})
		return nil
	}
	appendRepeated := func(id byte, n int, at func(int) Packet) error {
		if n > MaxInstances {
			return fmt.Errorf("%d %s packets exceed the maximum of %d instances",
				n, kindName(id), MaxInstances)
		}
		for i := 0; i < n; i++ {
			if err := appendOne(byte(i), at(i)); err != nil {
				return err
			}
		}
		return nil
	}

	if c.System != nil {
		if err := appendOne(0, *c.System); err != nil {
			return nil, err
		}
	}
	if c.Manufacturer != nil {
		if err := appendOne(0, *c.Manufacturer); err != nil {
			return nil, err
		}
	}
	if c.Power != nil {
		if err := appendOne(0, *c.Power); err != nil {
			return nil, err
		}
	}
	if err := appendRepeated(IDDisplay, len(c.Displays), func(i int) Packet { return c.Displays[i] }); err != nil {
		return nil, err
	}
	if err := appendRepeated(IDLed, len(c.Leds), func(i int) Packet { return c.Leds[i] }); err != nil {
		return nil, err
	}
	if err := appendRepeated(IDSensor, len(c.Sensors), func(i int) Packet { return c.Sensors[i] }); err != nil {
		return nil, err
	}
	if err := appendRepeated(IDDataBus, len(c.DataBuses), func(i int) Packet { return c.DataBuses[i] }); err != nil {
		return nil, err
	}
	if err := appendRepeated(IDBinaryInput, len(c.BinaryInputs), func(i int) Packet { return c.BinaryInputs[i] }); err != nil {
		return nil, err
	}
	if c.Wifi != nil {
		if err := appendOne(0, *c.Wifi); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeConfigBlob serializes a complete DeviceConfig to the flashable
// blob form. The config is validated first; nothing is produced for an
// incomplete one.
func EncodeConfigBlob(cfg *DeviceConfig) ([]byte, error) {
	if err := cfg.ValidateForWrite(); err != nil {
		return nil, err
	}
	packets, err := cfg.Packets()
	if err != nil {
		return nil, err
	}

	blob := make([]byte, blobHeaderSize, MaxConfigBlobSize)
	blob[2] = cfg.Version
	for _, raw := range packets {
		blob = append(blob, raw.Instance, raw.ID)
		blob = append(blob, raw.Payload...)
	}
	if len(blob)+blobCRCSize > MaxConfigBlobSize {
		return nil, fmt.Errorf("config blob of %d bytes exceeds maximum %d",
			len(blob)+blobCRCSize, MaxConfigBlobSize)
	}
	blob = binary.LittleEndian.AppendUint16(blob, configCRC(blob))
	return blob, nil
}

// ParseConfigBlob decodes a blob read back from a device. The CRC is
// verified before any packet is touched. A packet kind the engine does
// not model is logged and skipped, which keeps configs written by newer
// firmware readable.
func ParseConfigBlob(blob []byte, log *logrus.Logger) (*DeviceConfig, error) {
	if log == nil {
		log = logrus.New()
	}
	if len(blob) < blobHeaderSize+blobCRCSize {
		return nil, fmt.Errorf("config blob of %d bytes is shorter than the %d-byte envelope",
			len(blob), blobHeaderSize+blobCRCSize)
	}
	if len(blob) > MaxConfigBlobSize {
		return nil, fmt.Errorf("config blob of %d bytes exceeds maximum %d",
			len(blob), MaxConfigBlobSize)
	}

	stored := binary.LittleEndian.Uint16(blob[len(blob)-blobCRCSize:])
	computed := configCRC(blob[:len(blob)-blobCRCSize])
	if stored != computed {
		return nil, &ConfigCRCError{Want: computed, Got: stored}
	}

	cfg := &DeviceConfig{Version: blob[2]}
	body := blob[blobHeaderSize : len(blob)-blobCRCSize]
	for off := 0; off < len(body); {
		if len(body)-off < 2 {
			return nil, fmt.Errorf("truncated packet header at blob offset %d", blobHeaderSize+off)
		}
		instance, id := body[off], body[off+1]
		off += 2

		size, known := wireSize(id)
		if id == IDWifi && len(body)-off < wifiSize {
			size = wifiLegacySize
		}
		if !known {
			// Fixed-size packets carry no length field, so an
			// unmodeled kind ends the walk. The CRC already vouched
			// for the rest of the blob.
			log.WithFields(logrus.Fields{
				"packetType": fmt.Sprintf("0x%02x", id),
				"offset":     blobHeaderSize + off - 2,
			}).Warn("Unknown config packet type, ignoring remainder of blob")
			break
		}
		if len(body)-off < size {
			return nil, fmt.Errorf("truncated %s packet at blob offset %d: %d of %d bytes",
				kindName(id), blobHeaderSize+off, len(body)-off, size)
		}
		if err := cfg.add(RawPacket{Instance: instance, ID: id, Payload: body[off : off+size]}); err != nil {
			return nil, err
		}
		off += size
	}
	return cfg, nil
}
