package main

import (
	"errors"
	"fmt"

	"github.com/opendisplay/opendisplay-go/device"
	"github.com/opendisplay/opendisplay-go/protocol"
	"github.com/opendisplay/opendisplay-go/tlv"
)

// formatUserError turns engine errors into actionable one-line messages.
// Anything unrecognized falls through verbatim.
func formatUserError(err error) string {
	var devErr *protocol.DeviceError
	if errors.As(err, &devErr) {
		return fmt.Sprintf("device rejected command 0x%04X (reason code 0x%02X)",
			devErr.Opcode, devErr.Code)
	}

	var fwErr *protocol.UnsupportedFirmwareError
	if errors.As(err, &fwErr) {
		return fmt.Sprintf("device firmware %s is too old for this operation (requires %s)",
			fwErr.Have, fwErr.Required)
	}

	var incomplete *tlv.IncompleteConfigError
	if errors.As(err, &incomplete) {
		return fmt.Sprintf("configuration is missing required sections: %v", incomplete.Missing)
	}

	var crcErr *tlv.ConfigCRCError
	if errors.As(err, &crcErr) {
		return "device returned a corrupted configuration (checksum mismatch); try again"
	}

	switch {
	case errors.Is(err, protocol.ErrTimeout):
		return "device did not respond in time; check that it is in range and powered"
	case errors.Is(err, device.ErrProtocolBusy):
		return "another command is still in flight; wait for it to finish"
	}

	return err.Error()
}
