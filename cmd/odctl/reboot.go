package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rebootCmd represents the reboot command
var rebootCmd = &cobra.Command{
	Use:   "reboot <address>",
	Short: "Reboot the device",
	Long: `Reboot the device.

The device drops the connection as it restarts, so no acknowledgement is
expected; only an explicit rejection from the device counts as failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runReboot,
}

func runReboot(cmd *cobra.Command, args []string) error {
	address := args[0]

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

	if err := client.Reboot(ctx); err != nil {
		return err
	}

	fmt.Println("Reboot command sent")
	return nil
}
