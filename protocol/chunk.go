package protocol

import (
	"encoding/binary"
	"fmt"
)

// DefaultChunkSize is the data bytes carried per image chunk with the
// usual 244-byte negotiated MTU. Callers with a different MTU pass their
// own bound to PlanChunks.
const DefaultChunkSize = 230

// ChunkFlagFinal marks the last chunk of a transfer. The device always
// receives an explicit end marker, even for an empty payload.
const ChunkFlagFinal = 0x01

// chunkHeaderSize is the per-chunk overhead: sequence (2) + flags (1).
const chunkHeaderSize = 3

// PlanChunks splits a payload into ordered image-chunk commands, each at
// most maxChunkSize data bytes:
//
//	[seq:2 LE][flags:1][data]
//
// The plan is pure and deterministic: identical inputs yield identical
// plans, so a caller whose chunk i was rejected re-sends PlanChunks(...)[i]
// without restarting the transfer. A zero-length payload yields exactly
// one empty chunk marked final.
func PlanChunks(payload []byte, maxChunkSize int) ([]Command, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxChunkSize)
	}

	count := (len(payload) + maxChunkSize - 1) / maxChunkSize
	if count == 0 {
		count = 1
	}
	if count > 0xFFFF {
		return nil, fmt.Errorf("payload of %d bytes needs %d chunks, sequence space is 16-bit", len(payload), count)
	}

	chunks := make([]Command, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxChunkSize
		end := start + maxChunkSize
		if end > len(payload) {
			end = len(payload)
		}

		data := make([]byte, chunkHeaderSize+(end-start))
		binary.LittleEndian.PutUint16(data[0:2], uint16(i))
		if i == count-1 {
			data[2] = ChunkFlagFinal
		}
		copy(data[chunkHeaderSize:], payload[start:end])

		chunks = append(chunks, Command{Opcode: OpImageChunk, Payload: data})
	}

	return chunks, nil
}

// BuildImageStart announces a direct-write transfer of totalSize bytes.
func BuildImageStart(totalSize int) Command {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(totalSize))
	return Command{Opcode: OpImageStart, Payload: payload}
}

// BuildImageEnd closes the transfer and triggers a display refresh.
func BuildImageEnd(mode RefreshMode) Command {
	return Command{Opcode: OpImageEnd, Payload: []byte{byte(mode)}}
}
