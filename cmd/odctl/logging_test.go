package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggingTestCmd(t *testing.T, logLevel string, verbose bool) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().Bool("verbose", false, "")
	require.NoError(t, cmd.Flags().Set("log-level", logLevel))
	if verbose {
		require.NoError(t, cmd.Flags().Set("verbose", "true"))
	}
	return cmd
}

func TestConfigureLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		verbose  bool
		want     logrus.Level
	}{
		{"silent by default", "", false, logrus.PanicLevel},
		{"verbose enables debug", "", true, logrus.DebugLevel},
		{"explicit level", "warn", false, logrus.WarnLevel},
		{"log-level wins over verbose", "error", true, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := configureLogger(newLoggingTestCmd(t, tt.logLevel, tt.verbose))
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestConfigureLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := configureLogger(newLoggingTestCmd(t, "trace", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trace")
}
