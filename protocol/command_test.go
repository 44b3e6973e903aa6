package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCommandEncode verifies the wire framing: little-endian opcode
// followed by the payload bytes.
func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected []byte
	}{
		{
			name:     "opcode only",
			cmd:      Command{Opcode: OpInterrogate},
			expected: []byte{0x01, 0x00},
		},
		{
			name:     "reboot",
			cmd:      BuildReboot(),
			expected: []byte{0x0F, 0x00},
		},
		{
			name:     "firmware version read",
			cmd:      BuildReadFirmwareVersion(),
			expected: []byte{0x43, 0x00},
		},
		{
			name:     "opcode with payload",
			cmd:      Command{Opcode: OpLedActivate, Payload: []byte{0x02, 0xAA}},
			expected: []byte{0x73, 0x00, 0x02, 0xAA},
		},
		{
			name:     "high byte set",
			cmd:      Command{Opcode: 0x0201, Payload: []byte{0x01}},
			expected: []byte{0x01, 0x02, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.Encode())
		})
	}
}

func TestWriteConfigOpcode(t *testing.T) {
	assert.Equal(t, uint16(0x0201), WriteConfigOpcode(0x01))
	assert.Equal(t, uint16(0x0204), WriteConfigOpcode(0x04))
	assert.Equal(t, uint16(0x0220), WriteConfigOpcode(0x20))
	assert.Equal(t, uint16(0x0226), WriteConfigOpcode(0x26))
}
