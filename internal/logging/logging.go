// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging configures the zerolog logger shared by ventoctl commands.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment overrides
const (
	EnvLevel     = "VENTOCTL_LOG_LEVEL"
	EnvTimestamp = "VENTOCTL_LOG_TIMESTAMP"
	EnvNoColor   = "VENTOCTL_LOG_NOCOLOR"
)

// Profile selects logger defaults
type Profile int

const (
	// ProfileRuntime logs at info with timestamps
	ProfileRuntime Profile = iota
	// ProfileTest logs at debug without timestamps
	ProfileTest
)

// Options configures New
type Options struct {
	Profile Profile
	Verbose bool
	Out     io.Writer // defaults to stderr
}

// New builds a console logger. Environment variables override the profile,
// and Verbose forces debug level.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	timestamps := true
	if opts.Profile == ProfileTest {
		level = zerolog.DebugLevel
		timestamps = false
	}

	if v := os.Getenv(EnvLevel); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}
	if v := os.Getenv(EnvTimestamp); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			timestamps = parsed
		}
	}
	noColor := false
	if v := os.Getenv(EnvNoColor); v != "" {
		noColor, _ = strconv.ParseBool(v)
	}
	if opts.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	if !timestamps {
		writer.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(writer).Level(level).With()
	if timestamps {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// Init builds a logger and installs it as the global zerolog logger
func Init(opts Options) zerolog.Logger {
	logger := New(opts)
	log.Logger = logger
	return logger
}
