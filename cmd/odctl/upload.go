package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opendisplay/opendisplay-go/protocol"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <address> <file>",
	Short: "Upload a pre-encoded image to the display",
	Long: `Upload a pre-encoded, compressed image buffer to the device.

The file must already be in the panel's native encoding; this tool does
no dithering or format conversion. The display refreshes when the
transfer completes.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

var uploadRefreshMode string

func init() {
	uploadCmd.Flags().StringVar(&uploadRefreshMode, "refresh", "full", "Refresh mode after upload (full, fast)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	address, path := args[0], args[1]

	var mode protocol.RefreshMode
	switch uploadRefreshMode {
	case "full":
		mode = protocol.RefreshFull
	case "fast":
		mode = protocol.RefreshFast
	default:
		return fmt.Errorf("invalid refresh mode '%s': must be full or fast", uploadRefreshMode)
	}

	imageData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(imageData) == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	logger, err := prepare(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client, transport, err := connectClient(ctx, address, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	fmt.Printf("Uploading %d bytes...\n", len(imageData))
	start := time.Now()

	if err := client.UploadImage(ctx, imageData, mode); err != nil {
		return err
	}

	fmt.Printf("Upload complete in %s, display refreshing\n", time.Since(start).Truncate(time.Millisecond))
	return nil
}
