package tlv

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Wifi wire layout. The port is the single big-endian field in the whole
// configuration model; everything else is little-endian.
const (
	wifiSize       = 160
	wifiLegacySize = 65

	wifiSSIDLen     = 32
	wifiPasswordLen = 32
	wifiURLLen      = 64

	// DefaultServerPort is assumed when a legacy packet omits the field.
	DefaultServerPort = 2446
)

// Wifi holds station credentials and the content-server endpoint for
// firmware with a WiFi radio. TLV id 0x26, 160 bytes. Devices flashed
// before the server fields were added emit a 65-byte form that stops
// after the encryption type.
type Wifi struct {
	SSID           string   `json:"ssid"`
	Password       string   `json:"password"`
	EncryptionType uint8    `json:"encryption_type"`
	ServerURL      string   `json:"server_url"`
	ServerPort     uint16   `json:"server_port"`
	Reserved       [29]byte `json:"-"`
}

func (Wifi) ID() byte { return IDWifi }
func (Wifi) packet()  {}

func (p Wifi) MarshalBinary() ([]byte, error) {
	if len(p.SSID) > wifiSSIDLen {
		return nil, fmt.Errorf("wifi ssid %q exceeds %d bytes", p.SSID, wifiSSIDLen)
	}
	if len(p.Password) > wifiPasswordLen {
		return nil, fmt.Errorf("wifi password exceeds %d bytes", wifiPasswordLen)
	}
	if len(p.ServerURL) > wifiURLLen {
		return nil, fmt.Errorf("wifi server url %q exceeds %d bytes", p.ServerURL, wifiURLLen)
	}
	out := make([]byte, wifiSize)
	copy(out[0:wifiSSIDLen], p.SSID)
	copy(out[32:64], p.Password)
	out[64] = p.EncryptionType
	copy(out[65:129], p.ServerURL)
	binary.BigEndian.PutUint16(out[129:131], p.ServerPort)
	copy(out[131:], p.Reserved[:])
	return out, nil
}

func parseWifi(data []byte) (Packet, error) {
	switch len(data) {
	case wifiSize:
		p := Wifi{
			SSID:           trimNUL(data[0:32]),
			Password:       trimNUL(data[32:64]),
			EncryptionType: data[64],
			ServerURL:      trimNUL(data[65:129]),
			ServerPort:     binary.BigEndian.Uint16(data[129:131]),
		}
		copy(p.Reserved[:], data[131:])
		return p, nil
	case wifiLegacySize:
		return Wifi{
			SSID:           trimNUL(data[0:32]),
			Password:       trimNUL(data[32:64]),
			EncryptionType: data[64],
			ServerPort:     DefaultServerPort,
		}, nil
	default:
		return nil, fmt.Errorf("wifi_config packet: got %d bytes, want %d or %d",
			len(data), wifiSize, wifiLegacySize)
	}
}

func trimNUL(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
