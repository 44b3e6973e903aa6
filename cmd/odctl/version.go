package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version <address>",
	Short: "Read the device firmware version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	address, err := requireAddress(args)
	if err != nil {
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

	fw, err := client.ReadFirmwareVersion(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("firmware %s\n", fw)
	if fw.SHA != "" {
		fmt.Printf("build    %s\n", fw.SHA)
	}
	return nil
}
