package protocol

import "encoding/binary"

// errorOpcodeHighByte marks a device-reported failure: the response opcode
// keeps the low byte of the failed command under high byte 0xFF.
const errorOpcodeHighByte = 0xFF

// Response is a single reply from the device.
type Response struct {
	Opcode  uint16
	Payload []byte
}

// DecodeResponse parses a raw notification frame into a Response.
// Frames shorter than the 2-byte opcode fail with ErrMalformedResponse.
func DecodeResponse(frame []byte) (Response, error) {
	if len(frame) < 2 {
		return Response{}, &MalformedResponseError{Length: len(frame)}
	}
	return Response{
		Opcode:  binary.LittleEndian.Uint16(frame[0:2]),
		Payload: frame[2:],
	}, nil
}

// IsError reports whether the response is an error twin (high byte 0xFF).
func (r Response) IsError() bool {
	return byte(r.Opcode>>8) == errorOpcodeHighByte
}

// ErrorTwin returns the error opcode paired with a request opcode:
// high byte 0xFF, low byte of the request. 0x0073 twins with 0xFF73.
func ErrorTwin(requestOpcode uint16) uint16 {
	return uint16(errorOpcodeHighByte)<<8 | requestOpcode&0x00FF
}

// Matches reports whether the response answers the given request: either
// an exact opcode echo or the request's error twin. With the strict
// one-command-at-a-time discipline this is the only correlation the
// protocol has; there is no request id on the wire.
func (r Response) Matches(requestOpcode uint16) bool {
	return r.Opcode == requestOpcode || r.Opcode == ErrorTwin(requestOpcode)
}

// ErrorCode returns the device-supplied reason code of an error response
// (first payload byte), or 0 when the payload carries none.
func (r Response) ErrorCode() byte {
	if len(r.Payload) == 0 {
		return 0
	}
	return r.Payload[0]
}
