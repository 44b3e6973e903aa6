package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opendisplay/opendisplay-go/device"
	"github.com/opendisplay/opendisplay-go/internal/bletransport"
)

// signalContext returns a context canceled by Ctrl+C or SIGTERM. The
// returned stop func releases the signal handler.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\nCtrl+C pressed, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectClient dials the device at address and wraps it in a protocol
// client. The caller must Close the returned transport.
func connectClient(ctx context.Context, address string, logger *logrus.Logger) (*device.Client, *bletransport.Transport, error) {
	transport, err := bletransport.Dial(ctx, address, bletransport.DefaultOptions(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	client := device.NewClient(transport, device.DefaultOptions(), logger)
	return client, transport, nil
}

// requireAddress extracts the positional device address argument.
func requireAddress(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("device address required")
	}
	return args[0], nil
}

// prepare validates flags common to connected commands and silences
// usage output for runtime failures.
func prepare(cmd *cobra.Command) (*logrus.Logger, error) {
	logger, err := configureLogger(cmd)
	if err != nil {
		return nil, err
	}
	cmd.SilenceUsage = true
	return logger, nil
}
