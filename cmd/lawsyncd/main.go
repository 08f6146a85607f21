// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

// lawsyncd is the command-line front end for the lawsync engine: it runs
// full sync rounds, pull-only refreshes, and document queue passes against
// a configured remote database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
