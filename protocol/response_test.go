package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name        string
		frame       []byte
		wantOpcode  uint16
		wantPayload []byte
	}{
		{
			name:        "opcode only",
			frame:       []byte{0x73, 0x00},
			wantOpcode:  0x0073,
			wantPayload: []byte{},
		},
		{
			name:        "opcode with payload",
			frame:       []byte{0x43, 0x00, 0x01, 0x05},
			wantOpcode:  0x0043,
			wantPayload: []byte{0x01, 0x05},
		},
		{
			name:        "error twin",
			frame:       []byte{0x73, 0xFF, 0x02, 0x00},
			wantOpcode:  0xFF73,
			wantPayload: []byte{0x02, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpcode, resp.Opcode)
			assert.Equal(t, tt.wantPayload, resp.Payload)
		})
	}
}

func TestDecodeResponseTooShort(t *testing.T) {
	for _, frame := range [][]byte{nil, {}, {0x73}} {
		_, err := DecodeResponse(frame)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedResponse)

		var malformed *MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, len(frame), malformed.Length)
	}
}

// TestErrorTwinMatching pins the correlation invariant: a response either
// echoes the request opcode exactly or is its 0xFF-prefixed error twin.
func TestErrorTwinMatching(t *testing.T) {
	tests := []struct {
		name     string
		response uint16
		request  uint16
		matches  bool
		isError  bool
	}{
		{"exact echo", 0x0073, 0x0073, true, false},
		{"error twin", 0xFF73, 0x0073, true, true},
		{"unrelated opcode", 0x0040, 0x0073, false, false},
		{"unrelated error twin", 0xFF40, 0x0073, false, true},
		{"interrogate twin", 0xFF01, 0x0001, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Response{Opcode: tt.response}
			assert.Equal(t, tt.matches, resp.Matches(tt.request))
			assert.Equal(t, tt.isError, resp.IsError())
		})
	}
}

func TestResponseErrorCode(t *testing.T) {
	assert.Equal(t, byte(0x02), Response{Opcode: 0xFF73, Payload: []byte{0x02, 0x00}}.ErrorCode())
	assert.Equal(t, byte(0x00), Response{Opcode: 0xFF73}.ErrorCode())
}

func TestDeviceErrorMessage(t *testing.T) {
	err := &DeviceError{Opcode: OpLedActivate, Code: 0x02}
	assert.Contains(t, err.Error(), "0x0073")
	assert.Contains(t, err.Error(), "error code 0x02")
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}
