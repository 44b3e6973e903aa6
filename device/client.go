// Package device is the engine's front door: a Client that drives the
// full command set of one connected display over an injected Transport.
// The wire protocol has no request ids, so the Client enforces a strict
// one-outstanding-command discipline and matches responses to requests
// by arrival order.
package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opendisplay/opendisplay-go/protocol"
	"github.com/opendisplay/opendisplay-go/tlv"
)

// ErrProtocolBusy is returned when an operation is attempted while
// another is still in flight. Calls are never queued: queuing would
// reorder responses and break arrival-order matching.
var ErrProtocolBusy = errors.New("another command is in flight")

// Transport moves frames to and from one connected device. Write sends
// one complete command frame; Read blocks for the next notification
// frame. Both honor context deadlines, and Read reports expiry as
// protocol.ErrTimeout.
type Transport interface {
	Write(ctx context.Context, frame []byte) error
	Read(ctx context.Context) ([]byte, error)
}

// Options tunes the Client. Zero values take the defaults.
type Options struct {
	// ResponseTimeout bounds the wait for an ordinary command ACK.
	ResponseTimeout time.Duration

	// RefreshTimeout bounds the wait after the image end command.
	// Decompression plus a full panel refresh can take tens of seconds.
	RefreshTimeout time.Duration

	// ChunkSize caps the data bytes per image chunk. Bounded by the
	// negotiated MTU, which the transport knows and this engine does not.
	ChunkSize int

	// PipelineChunks is how many image chunks are written between ACK
	// reads.
	PipelineChunks int
}

// DefaultOptions returns the tuning used against stock firmware.
func DefaultOptions() Options {
	return Options{
		ResponseTimeout: 5 * time.Second,
		RefreshTimeout:  30 * time.Second,
		ChunkSize:       protocol.DefaultChunkSize,
		PipelineChunks:  3,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = def.ResponseTimeout
	}
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = def.RefreshTimeout
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = def.ChunkSize
	}
	if o.PipelineChunks <= 0 {
		o.PipelineChunks = def.PipelineChunks
	}
	return o
}

// Client drives one device. Safe for concurrent use in the sense that
// overlapping operations fail fast with ErrProtocolBusy rather than
// interleaving frames.
type Client struct {
	transport Transport
	opts      Options
	log       *logrus.Logger

	busy    atomic.Bool
	fw      *protocol.FirmwareVersion
	fwKnown atomic.Bool
}

// NewClient wraps a connected transport. A nil logger gets a default
// one.
func NewClient(transport Transport, opts Options, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		transport: transport,
		opts:      opts.withDefaults(),
		log:       log,
	}
}

// acquire claims the single command slot.
func (c *Client) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrProtocolBusy
	}
	return nil
}

func (c *Client) release() {
	c.busy.Store(false)
}

// roundTrip sends one command and decodes the next frame as its
// response. An error-twin opcode becomes a *protocol.DeviceError; a
// response for a different opcode is a hard failure because it means
// request/response pairing has desynchronized.
func (c *Client) roundTrip(ctx context.Context, cmd protocol.Command, timeout time.Duration) (protocol.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.transport.Write(ctx, cmd.Encode()); err != nil {
		return protocol.Response{}, fmt.Errorf("write command 0x%04x: %w", cmd.Opcode, err)
	}
	return c.readResponse(ctx, cmd.Opcode)
}

func (c *Client) readResponse(ctx context.Context, requestOpcode uint16) (protocol.Response, error) {
	frame, err := c.transport.Read(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = protocol.ErrTimeout
		}
		return protocol.Response{}, fmt.Errorf("response to 0x%04x: %w", requestOpcode, err)
	}

	resp, err := protocol.DecodeResponse(frame)
	if err != nil {
		return protocol.Response{}, err
	}
	if !resp.Matches(requestOpcode) {
		return protocol.Response{}, fmt.Errorf("%w: got opcode 0x%04x while waiting for 0x%04x",
			protocol.ErrMalformedResponse, resp.Opcode, requestOpcode)
	}
	if resp.IsError() {
		return protocol.Response{}, &protocol.DeviceError{Opcode: requestOpcode, Code: resp.ErrorCode()}
	}
	return resp, nil
}

// ReadFirmwareVersion reads and caches the device's firmware version.
// The cache feeds the LED activation gate.
func (c *Client) ReadFirmwareVersion(ctx context.Context) (protocol.FirmwareVersion, error) {
	if err := c.acquire(); err != nil {
		return protocol.FirmwareVersion{}, err
	}
	defer c.release()
	return c.readFirmwareVersion(ctx)
}

func (c *Client) readFirmwareVersion(ctx context.Context) (protocol.FirmwareVersion, error) {
	resp, err := c.roundTrip(ctx, protocol.BuildReadFirmwareVersion(), c.opts.ResponseTimeout)
	if err != nil {
		return protocol.FirmwareVersion{}, err
	}
	fw, err := protocol.ParseFirmwareVersion(resp.Payload)
	if err != nil {
		return protocol.FirmwareVersion{}, err
	}
	c.fw = &fw
	c.fwKnown.Store(true)
	c.log.WithField("version", fw.String()).Debug("Read firmware version")
	return fw, nil
}

// Interrogate reads the device's complete configuration. The config
// arrives as a chunked stream: chunk zero carries the total byte count,
// later chunks append data until the count is reached, then the whole
// blob is CRC-checked and decoded.
func (c *Client) Interrogate(ctx context.Context) (*tlv.DeviceConfig, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	resp, err := c.roundTrip(ctx, protocol.BuildInterrogate(), c.opts.ResponseTimeout)
	if err != nil {
		return nil, err
	}
	// Chunk 0: [chunk:u16 LE][total:u16 LE][data].
	if len(resp.Payload) < 4 {
		return nil, &protocol.MalformedResponseError{
			Length: len(resp.Payload),
			Reason: "config chunk 0 shorter than its header",
		}
	}
	if idx := binary.LittleEndian.Uint16(resp.Payload[0:2]); idx != 0 {
		return nil, &protocol.MalformedResponseError{
			Length: len(resp.Payload),
			Reason: fmt.Sprintf("config stream began at chunk %d", idx),
		}
	}
	total := int(binary.LittleEndian.Uint16(resp.Payload[2:4]))
	blob := append([]byte{}, resp.Payload[4:]...)

	for next := uint16(1); len(blob) < total; next++ {
		c.log.WithFields(logrus.Fields{
			"have": len(blob),
			"want": total,
		}).Debug("Waiting for next config chunk")

		readCtx, cancel := context.WithTimeout(ctx, c.opts.ResponseTimeout)
		resp, err := c.readResponse(readCtx, protocol.OpInterrogate)
		cancel()
		if err != nil {
			return nil, err
		}
		// Later chunks: [chunk:u16 LE][data].
		if len(resp.Payload) < 2 {
			return nil, &protocol.MalformedResponseError{
				Length: len(resp.Payload),
				Reason: "config chunk shorter than its header",
			}
		}
		// A dropped or repeated notification shows up here, long
		// before the blob CRC would catch it.
		if idx := binary.LittleEndian.Uint16(resp.Payload[0:2]); idx != next {
			return nil, &protocol.MalformedResponseError{
				Length: len(resp.Payload),
				Reason: fmt.Sprintf("config chunk %d arrived where chunk %d was expected", idx, next),
			}
		}
		blob = append(blob, resp.Payload[2:]...)
	}

	c.log.WithField("bytes", len(blob)).Info("Received complete config blob")
	return tlv.ParseConfigBlob(blob, c.log)
}

// WriteConfig pushes a complete configuration to the device, one
// command per packet. Validation is all-or-nothing: an incomplete
// config is rejected before any frame is sent.
func (c *Client) WriteConfig(ctx context.Context, cfg *tlv.DeviceConfig) error {
	if err := cfg.ValidateForWrite(); err != nil {
		return err
	}
	packets, err := cfg.Packets()
	if err != nil {
		return err
	}
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	for _, raw := range packets {
		payload := make([]byte, 0, 1+len(raw.Payload))
		payload = append(payload, raw.Instance)
		payload = append(payload, raw.Payload...)
		cmd := protocol.NewCommand(protocol.WriteConfigOpcode(raw.ID), payload)

		if _, err := c.roundTrip(ctx, cmd, c.opts.ResponseTimeout); err != nil {
			return fmt.Errorf("write config packet 0x%02x instance %d: %w", raw.ID, raw.Instance, err)
		}
	}
	c.log.WithField("packets", len(packets)).Info("Wrote device configuration")
	return nil
}

// UploadImage streams a pre-encoded, compressed image buffer to the
// display and triggers a refresh. Chunks are pipelined; a chunk the
// device rejects is re-sent once before the transfer fails. The
// upstream image pipeline is never re-run: chunk planning is pure, so
// retrying chunk i is free.
func (c *Client) UploadImage(ctx context.Context, imageData []byte, mode protocol.RefreshMode) error {
	chunks, err := protocol.PlanChunks(imageData, c.opts.ChunkSize)
	if err != nil {
		return err
	}
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if _, err := c.roundTrip(ctx, protocol.BuildImageStart(len(imageData)), c.opts.ResponseTimeout); err != nil {
		return fmt.Errorf("image start: %w", err)
	}

	sent := 0
	for i, chunk := range chunks {
		writeCtx, cancel := context.WithTimeout(ctx, c.opts.ResponseTimeout)
		err := c.transport.Write(writeCtx, chunk.Encode())
		cancel()
		if err != nil {
			return fmt.Errorf("image chunk %d: %w", i, err)
		}
		sent++

		if sent%c.opts.PipelineChunks == 0 || i == len(chunks)-1 {
			if err := c.ackChunk(ctx, chunks, i); err != nil {
				return err
			}
			c.log.WithFields(logrus.Fields{
				"chunk": i + 1,
				"total": len(chunks),
			}).Debug("Image chunks acknowledged")
		}
	}

	if _, err := c.roundTrip(ctx, protocol.BuildImageEnd(mode), c.opts.RefreshTimeout); err != nil {
		return fmt.Errorf("image end: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"bytes":  len(imageData),
		"chunks": len(chunks),
	}).Info("Image upload complete")
	return nil
}

// ackChunk reads the ACK covering the batch ending at chunk index i.
// On a device-reported error the chunk is re-sent once; planning is
// deterministic so the retry frame is byte-identical.
func (c *Client) ackChunk(ctx context.Context, chunks []protocol.Command, i int) error {
	readCtx, cancel := context.WithTimeout(ctx, c.opts.ResponseTimeout)
	_, err := c.readResponse(readCtx, protocol.OpImageChunk)
	cancel()

	var devErr *protocol.DeviceError
	if !errors.As(err, &devErr) {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"chunk": i,
		"code":  devErr.Code,
	}).Warn("Device rejected image chunk, retrying once")

	if _, err := c.roundTrip(ctx, chunks[i], c.opts.ResponseTimeout); err != nil {
		return fmt.Errorf("image chunk %d retry: %w", i, err)
	}
	return nil
}

// ActivateLED flashes the device LED. The command opcode does not exist
// before firmware 1.0, so the cached firmware version gates it; the
// version is read first when not yet known.
func (c *Client) ActivateLED(ctx context.Context, instance uint8, flash protocol.LedFlashConfig) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	if !c.fwKnown.Load() {
		if _, err := c.readFirmwareVersion(ctx); err != nil {
			return fmt.Errorf("firmware version for led gate: %w", err)
		}
	}
	cmd, err := protocol.BuildLedActivate(instance, flash, *c.fw)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(ctx, cmd, c.opts.ResponseTimeout)
	return err
}

// Reboot restarts the device. Fire and forget: the device drops the
// connection as it resets, so no response, a timeout, or a transport
// error after the write all mean success. Only an explicit
// device-reported error fails.
func (c *Client) Reboot(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	ctx, cancel := context.WithTimeout(ctx, c.opts.ResponseTimeout)
	defer cancel()

	if err := c.transport.Write(ctx, protocol.BuildReboot().Encode()); err != nil {
		return fmt.Errorf("write reboot: %w", err)
	}

	frame, err := c.transport.Read(ctx)
	if err != nil {
		c.log.Debug("No response after reboot command, treating as success")
		return nil
	}
	resp, err := protocol.DecodeResponse(frame)
	if err == nil && resp.IsError() && resp.Matches(protocol.OpReboot) {
		return &protocol.DeviceError{Opcode: protocol.OpReboot, Code: resp.ErrorCode()}
	}
	return nil
}
