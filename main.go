// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// ventoctl - Vento ventilation unit controller
//
// A CLI tool for discovering, controlling and monitoring Vento ventilation
// units over their UDP protocol.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ventolink/ventoctl/cmd"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	code := 1
	var exitErr *cmd.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Err == nil {
			os.Exit(code)
		}
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(code)
}
