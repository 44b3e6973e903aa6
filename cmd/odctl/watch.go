package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opendisplay/opendisplay-go/advertisement"
	"github.com/opendisplay/opendisplay-go/scanner"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch button presses in real time",
	Long: `Scan continuously and print button events as devices broadcast them.

Button state travels in the dynamic-data block of each broadcast; a press
shows as a rising bit and a release as a falling one. Use --button-byte
to match the device's binary input configuration when the button byte is
not the first dynamic byte.`,
	RunE: runWatch,
}

var (
	watchAllowList  []string
	watchBlockList  []string
	watchButtonByte int
)

func init() {
	watchCmd.Flags().StringSliceVar(&watchAllowList, "allow", nil, "Only watch devices with these addresses")
	watchCmd.Flags().StringSliceVar(&watchBlockList, "block", nil, "Ignore devices with these addresses")
	watchCmd.Flags().IntVar(&watchButtonByte, "button-byte", 0, "Dynamic-data byte index carrying button bits")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger, err := prepare(cmd)
	if err != nil {
		return err
	}

	opts := scanner.DefaultOptions()
	opts.Duration = 0
	opts.AllowList = watchAllowList
	opts.BlockList = watchBlockList
	opts.ButtonByteIndex = watchButtonByte

	s := scanner.New(opts, logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	scanErrCh := make(chan error, 1)
	go func() {
		_, err := s.Scan(ctx)
		scanErrCh <- err
	}()

	fmt.Println("Watching for button events, Ctrl+C to stop...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErrCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case ev := <-s.Events():
			printButtonEvents(ev)
		}
	}
}

var (
	pressColor   = color.New(color.FgGreen)
	releaseColor = color.New(color.FgYellow)
)

func printButtonEvents(ev scanner.Event) {
	for _, b := range ev.Buttons {
		ts := time.Now().Format("15:04:05.000")
		switch b.Type {
		case advertisement.ButtonDown:
			fmt.Printf("%s  %s  %s button %d (press #%d)\n",
				ts, ev.Address, pressColor.Sprint("DOWN"), b.Button, b.PressCount)
		case advertisement.ButtonUp:
			fmt.Printf("%s  %s  %s   button %d\n",
				ts, ev.Address, releaseColor.Sprint("UP"), b.Button)
		}
	}
}
