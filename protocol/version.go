package protocol

import (
	"encoding/hex"
	"fmt"
)

// shaSize is the raw build SHA length appended by firmware 1.0+.
const shaSize = 20

// FirmwareVersion identifies the firmware running on a device. SHA is the
// build's git SHA as 40 lowercase hex characters, or empty on older
// firmware that does not report one.
type FirmwareVersion struct {
	Major uint8
	Minor uint8
	SHA   string
}

// ParseFirmwareVersion decodes a firmware version response payload:
//
//	[major:1][minor:1][sha:20, optional]
//
// Payloads without the SHA (older firmware) parse successfully with an
// empty SHA rather than failing.
func ParseFirmwareVersion(payload []byte) (FirmwareVersion, error) {
	if len(payload) < 2 {
		return FirmwareVersion{}, &MalformedResponseError{
			Length: len(payload),
			Reason: "firmware version needs major and minor bytes",
		}
	}

	v := FirmwareVersion{Major: payload[0], Minor: payload[1]}
	if len(payload) >= 2+shaSize {
		v.SHA = hex.EncodeToString(payload[2 : 2+shaSize])
	}
	return v, nil
}

// AtLeast reports whether the version is >= major.minor.
func (v FirmwareVersion) AtLeast(major, minor uint8) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
