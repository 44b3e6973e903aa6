package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opendisplay/opendisplay-go/advertisement"
	"github.com/opendisplay/opendisplay-go/scanner"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for OpenDisplay devices",
	Long: `Scan for OpenDisplay devices and decode their broadcasts.

Each discovered device is shown with its address, broadcast format,
battery voltage, temperature, and loop counter.`,
	RunE: runScan,
}

var (
	scanDuration  time.Duration
	scanFormat    string
	scanAllowList []string
	scanBlockList []string
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().StringSliceVar(&scanAllowList, "allow", nil, "Only show devices with these addresses")
	scanCmd.Flags().StringSliceVar(&scanBlockList, "block", nil, "Hide devices with these addresses")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be table or json", scanFormat)
	}

	logger, err := prepare(cmd)
	if err != nil {
		return err
	}

	opts := scanner.DefaultOptions()
	opts.Duration = scanDuration
	opts.AllowList = scanAllowList
	opts.BlockList = scanBlockList

	s := scanner.New(opts, logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	progress := newProgressPrinter("Scanning for devices", scanDuration)
	progress.Start()

	devices, err := s.Scan(ctx)
	progress.Stop()
	if err != nil {
		return err
	}

	if scanFormat == "json" {
		return printDevicesJSON(os.Stdout, devices)
	}
	return printDevicesTable(os.Stdout, devices)
}

func printDevicesTable(out io.Writer, devices map[string]*advertisement.Advertisement) error {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices discovered")
		return nil
	}

	addrs := make([]string, 0, len(devices))
	for addr := range devices {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := color.New(color.Bold)
	fmt.Fprintln(w, header.Sprint("ADDRESS\tFORMAT\tBATTERY\tTEMP\tLOOP"))

	for _, addr := range addrs {
		adv := devices[addr]
		fmt.Fprintf(w, "%s\t%s\t%d mV\t%.1f C\t%d\n",
			addr, adv.Format, adv.BatteryMV, adv.TemperatureC, adv.LoopCounter)
	}
	return w.Flush()
}

type deviceReport struct {
	Address             string  `json:"address"`
	Format              string  `json:"format"`
	BatteryMV           int     `json:"battery_mv"`
	TemperatureC        float64 `json:"temperature_c"`
	LoopCounter         uint8   `json:"loop_counter"`
	RebootFlag          bool    `json:"reboot_flag"`
	ConnectionRequested bool    `json:"connection_requested"`
}

func printDevicesJSON(out io.Writer, devices map[string]*advertisement.Advertisement) error {
	reports := make([]deviceReport, 0, len(devices))
	for addr, adv := range devices {
		reports = append(reports, deviceReport{
			Address:             addr,
			Format:              adv.Format.String(),
			BatteryMV:           adv.BatteryMV,
			TemperatureC:        adv.TemperatureC,
			LoopCounter:         adv.LoopCounter,
			RebootFlag:          adv.RebootFlag,
			ConnectionRequested: adv.ConnectionRequested,
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Address < reports[j].Address })

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reports)
}
