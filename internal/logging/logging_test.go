// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_Profiles(t *testing.T) {
	t.Setenv(EnvNoColor, "true")

	tests := []struct {
		name      string
		opts      Options
		level     zerolog.Level
		wantDebug bool
	}{
		{"runtime", Options{Profile: ProfileRuntime}, zerolog.InfoLevel, false},
		{"runtime verbose", Options{Profile: ProfileRuntime, Verbose: true}, zerolog.DebugLevel, true},
		{"test", Options{Profile: ProfileTest}, zerolog.DebugLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Out = &buf
			logger := New(tt.opts)

			assert.Equal(t, tt.level, logger.GetLevel())
			logger.Debug().Msg("debug line")
			logger.Info().Str("device", "UNIT_A").Msg("info line")

			out := buf.String()
			assert.Contains(t, out, "info line")
			assert.Contains(t, out, "device=UNIT_A")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
		})
	}
}

func TestNew_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvLevel, "WARN")
	t.Setenv(EnvNoColor, "1")

	var buf bytes.Buffer
	logger := New(Options{Profile: ProfileTest, Out: &buf})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNew_VerboseDoesNotRaiseTrace(t *testing.T) {
	t.Setenv(EnvLevel, "trace")

	logger := New(Options{Verbose: true, Out: &bytes.Buffer{}})
	assert.Equal(t, zerolog.TraceLevel, logger.GetLevel())
}

func TestNew_InvalidLevelIgnored(t *testing.T) {
	t.Setenv(EnvLevel, "loud")

	logger := New(Options{Out: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
