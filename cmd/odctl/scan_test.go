package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendisplay/opendisplay-go/advertisement"
)

func testDevices() map[string]*advertisement.Advertisement {
	return map[string]*advertisement.Advertisement{
		"AA:BB:CC:DD:EE:01": {
			Format:       advertisement.FormatV1,
			BatteryMV:    3950,
			TemperatureC: 22.0,
			LoopCounter:  5,
			RebootFlag:   true,
		},
		"AA:BB:CC:DD:EE:02": {
			Format:       advertisement.FormatLegacy,
			BatteryMV:    3925,
			TemperatureC: -4.5,
			LoopCounter:  77,
		},
	}
}

func TestPrintDevicesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDevicesTable(&buf, testDevices()))

	out := buf.String()
	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, "AA:BB:CC:DD:EE:01")
	assert.Contains(t, out, "3950 mV")
	assert.Contains(t, out, "-4.5 C")
	assert.Contains(t, out, "77")

	// Sorted by address
	assert.Less(t,
		bytes.Index(buf.Bytes(), []byte("EE:01")),
		bytes.Index(buf.Bytes(), []byte("EE:02")))
}

func TestPrintDevicesTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDevicesTable(&buf, nil))
	assert.Contains(t, buf.String(), "No devices discovered")
}

func TestPrintDevicesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDevicesJSON(&buf, testDevices()))

	var reports []deviceReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &reports))
	require.Len(t, reports, 2)

	assert.Equal(t, "AA:BB:CC:DD:EE:01", reports[0].Address)
	assert.Equal(t, "v1", reports[0].Format)
	assert.Equal(t, 3950, reports[0].BatteryMV)
	assert.True(t, reports[0].RebootFlag)
	assert.Equal(t, "legacy", reports[1].Format)
}
