package tlv

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *DeviceConfig {
	return &DeviceConfig{
		Version:      1,
		System:       &System{ICType: 1},
		Manufacturer: &Manufacturer{ManufacturerID: 1, BoardRevision: 1},
		Power:        &Power{PowerMode: 1, BatteryCapacityMAh: 1000, SleepTimeoutMS: 1000},
		Displays: []Display{
			{PixelWidth: 296, PixelHeight: 128, ColorScheme: 2},
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func TestConfigBlobRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.Leds = []Led{{LedType: 1, Led1R: 12}}
	cfg.BinaryInputs = []BinaryInput{{InputType: 1, ButtonDataByteIndex: 3}}
	cfg.Wifi = &Wifi{SSID: "MyWifi", Password: "secret123", EncryptionType: 3, ServerPort: 2446}

	blob, err := EncodeConfigBlob(cfg)
	require.NoError(t, err)

	// Wrapper: 2 bytes padding, version, packets, 2 bytes CRC.
	assert.Equal(t, []byte{0, 0}, blob[:2])
	assert.Equal(t, byte(1), blob[2])

	parsed, err := ParseConfigBlob(blob, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestEncodeConfigBlobRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DeviceConfig)
		missing []string
	}{
		{
			name:    "no system",
			mutate:  func(c *DeviceConfig) { c.System = nil },
			missing: []string{"system"},
		},
		{
			name:    "no manufacturer",
			mutate:  func(c *DeviceConfig) { c.Manufacturer = nil },
			missing: []string{"manufacturer"},
		},
		{
			name:    "no power",
			mutate:  func(c *DeviceConfig) { c.Power = nil },
			missing: []string{"power"},
		},
		{
			name:    "no display",
			mutate:  func(c *DeviceConfig) { c.Displays = nil },
			missing: []string{"display"},
		},
		{
			name: "everything missing is reported at once",
			mutate: func(c *DeviceConfig) {
				c.System, c.Manufacturer, c.Power, c.Displays = nil, nil, nil, nil
			},
			missing: []string{"system", "manufacturer", "power", "display"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			_, err := EncodeConfigBlob(cfg)

			var incomplete *IncompleteConfigError
			require.ErrorAs(t, err, &incomplete)
			assert.Equal(t, tt.missing, incomplete.Missing)
		})
	}
}

func TestParseConfigBlobCRCMismatch(t *testing.T) {
	blob, err := EncodeConfigBlob(testConfig())
	require.NoError(t, err)

	blob[10] ^= 0xFF

	_, err = ParseConfigBlob(blob, quietLogger())
	var crcErr *ConfigCRCError
	require.ErrorAs(t, err, &crcErr)
	assert.NotEqual(t, crcErr.Want, crcErr.Got)
}

func TestParseConfigBlobTooShort(t *testing.T) {
	_, err := ParseConfigBlob([]byte{0, 0, 1, 0}, quietLogger())
	require.Error(t, err)
}

// An id the engine does not model ends the packet walk with a warning
// instead of failing the whole read.
func TestParseConfigBlobUnknownKindStopsCleanly(t *testing.T) {
	blob, err := EncodeConfigBlob(testConfig())
	require.NoError(t, err)

	// Splice an unmodeled packet before the CRC and re-seal the blob.
	body := append([]byte{}, blob[:len(blob)-2]...)
	body = append(body, 0x00, 0x22)
	body = append(body, make([]byte, 30)...)
	crc := configCRC(body)
	body = append(body, byte(crc), byte(crc>>8))

	var warnings bytes.Buffer
	log := logrus.New()
	log.SetOutput(&warnings)

	parsed, err := ParseConfigBlob(body, log)
	require.NoError(t, err)
	assert.NotNil(t, parsed.System)
	assert.Len(t, parsed.Displays, 1)
	assert.Contains(t, warnings.String(), "0x22")
}

func TestParseConfigBlobDuplicateSingleton(t *testing.T) {
	blob, err := EncodeConfigBlob(testConfig())
	require.NoError(t, err)

	sysPayload, err := (System{ICType: 2}).MarshalBinary()
	require.NoError(t, err)

	body := append([]byte{}, blob[:len(blob)-2]...)
	body = append(body, 0x01, IDSystem)
	body = append(body, sysPayload...)
	crc := configCRC(body)
	body = append(body, byte(crc), byte(crc>>8))

	_, err = ParseConfigBlob(body, quietLogger())
	var dup *DuplicatePacketError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, IDSystem, dup.ID)
}

func TestPacketsCapsRepeatableInstances(t *testing.T) {
	cfg := testConfig()
	cfg.Leds = make([]Led, 5)

	_, err := EncodeConfigBlob(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "led")
}

func TestAssembleFromRawPackets(t *testing.T) {
	mkRaw := func(instance byte, p Packet) RawPacket {
		payload, err := p.MarshalBinary()
		require.NoError(t, err)
		return RawPacket{Instance: instance, ID: p.ID(), Payload: payload}
	}

	cfg, err := Assemble([]RawPacket{
		mkRaw(0, System{ICType: 1}),
		mkRaw(0, Manufacturer{ManufacturerID: 1}),
		mkRaw(0, Power{PowerMode: 1}),
		mkRaw(0, Display{PixelWidth: 296}),
		mkRaw(1, Display{PixelWidth: 400}),
	})
	require.NoError(t, err)

	require.Len(t, cfg.Displays, 2)
	assert.Equal(t, uint16(296), cfg.Displays[0].PixelWidth)
	assert.Equal(t, uint16(400), cfg.Displays[1].PixelWidth)
	require.NoError(t, cfg.ValidateForWrite())
}

func TestAssembleDuplicateWifi(t *testing.T) {
	payload, err := (Wifi{SSID: "a"}).MarshalBinary()
	require.NoError(t, err)

	_, err = Assemble([]RawPacket{
		{Instance: 0, ID: IDWifi, Payload: payload},
		{Instance: 0, ID: IDWifi, Payload: payload},
	})

	var dup *DuplicatePacketError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, IDWifi, dup.ID)
}
