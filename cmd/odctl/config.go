package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opendisplay/opendisplay-go/tlv"
)

// configCmd groups the device configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read, write, export, and import device configuration",
}

var configReadCmd = &cobra.Command{
	Use:   "read <address>",
	Short: "Read the device configuration and print it",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigRead,
}

var configExportCmd = &cobra.Command{
	Use:   "export <address> <file>",
	Short: "Read the device configuration and save it to a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigExport,
}

var configImportCmd = &cobra.Command{
	Use:   "import <address> <file>",
	Short: "Write a configuration file to the device",
	Long: `Write a JSON configuration file to the device.

The file must contain the required sections (system, manufacturer,
power, display); it is validated before any command is sent.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigImport,
}

var configWriteCmd = &cobra.Command{
	Use:   "write <address>",
	Short: "Write a JSON configuration from stdin to the device",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigWrite,
}

var configOutputFormat string

func init() {
	configReadCmd.Flags().StringVarP(&configOutputFormat, "format", "f", "json", "Output format (json, yaml)")
	configExportCmd.Flags().StringVarP(&configOutputFormat, "format", "f", "json", "Output format (json, yaml)")

	configCmd.AddCommand(configReadCmd)
	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)
	configCmd.AddCommand(configWriteCmd)
}

func runConfigRead(cmd *cobra.Command, args []string) error {
	cfg, err := interrogateDevice(cmd, args[0])
	if err != nil {
		return err
	}

	rendered, err := renderConfig(cfg, configOutputFormat)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(rendered)
	return err
}

func runConfigExport(cmd *cobra.Command, args []string) error {
	address, path := args[0], args[1]

	cfg, err := interrogateDevice(cmd, address)
	if err != nil {
		return err
	}

	rendered, err := renderConfig(cfg, configOutputFormat)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Configuration saved to %s\n", path)
	return nil
}

func runConfigImport(cmd *cobra.Command, args []string) error {
	address, path := args[0], args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return writeConfigData(cmd, address, data)
}

func runConfigWrite(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read configuration from stdin: %w", err)
	}
	return writeConfigData(cmd, args[0], data)
}

func interrogateDevice(cmd *cobra.Command, address string) (*tlv.DeviceConfig, error) {
	logger, err := prepare(cmd)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client, transport, err := connectClient(ctx, address, logger)
	if err != nil {
		return nil, err
	}
	defer transport.Close()

	return client.Interrogate(ctx)
}

func writeConfigData(cmd *cobra.Command, address string, data []byte) error {
	var cfg tlv.DeviceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
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

	if err := client.WriteConfig(ctx, &cfg); err != nil {
		return err
	}

	fmt.Println("Configuration written")
	return nil
}

// renderConfig serializes a configuration for display or export. YAML
// output is derived from the JSON form so both carry the same keys in
// the same order.
func renderConfig(cfg *tlv.DeviceConfig, format string) ([]byte, error) {
	jsonData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	jsonData = append(jsonData, '\n')

	switch format {
	case "json":
		return jsonData, nil
	case "yaml":
		var doc yaml.Node
		if err := yaml.Unmarshal(jsonData, &doc); err != nil {
			return nil, err
		}
		// JSON parses as flow-style YAML; reset styles for block output.
		clearYAMLStyle(&doc)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("invalid format '%s': must be json or yaml", format)
	}
}

func clearYAMLStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		clearYAMLStyle(child)
	}
}
