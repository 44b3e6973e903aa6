package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opendisplay/opendisplay-go/protocol"
)

// ledCmd represents the led command
var ledCmd = &cobra.Command{
	Use:   "led <address>",
	Short: "Flash an LED on the device",
	Long: `Flash an LED on the device.

Requires firmware 1.0 or newer; the firmware version is read before the
flash command is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runLed,
}

var (
	ledInstance   uint8
	ledColor      uint8
	ledCount      uint8
	ledBrightness uint8
	ledRepeats    uint8
	ledForever    bool
)

func init() {
	ledCmd.Flags().Uint8Var(&ledInstance, "instance", 0, "LED instance to flash")
	ledCmd.Flags().Uint8Var(&ledColor, "color", 1, "Firmware color code")
	ledCmd.Flags().Uint8Var(&ledCount, "count", 1, "Flashes per pattern run (1-15)")
	ledCmd.Flags().Uint8Var(&ledBrightness, "brightness", 8, "Brightness (1-16)")
	ledCmd.Flags().Uint8Var(&ledRepeats, "repeats", 1, "Pattern repetitions (1-254)")
	ledCmd.Flags().BoolVar(&ledForever, "forever", false, "Repeat the pattern until the device is told otherwise")
}

func runLed(cmd *cobra.Command, args []string) error {
	address := args[0]

	flash := protocol.SingleFlash(ledColor)
	flash.Steps[0].FlashCount = ledCount
	flash.Brightness = ledBrightness
	flash.GroupRepeats = ledRepeats
	flash.Infinite = ledForever

	// Fail on bad flag values before dialing.
	if err := flash.Validate(); err != nil {
		return err
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

	if err := client.ActivateLED(ctx, ledInstance, flash); err != nil {
		return err
	}

	fmt.Printf("LED %d flashing\n", ledInstance)
	return nil
}
