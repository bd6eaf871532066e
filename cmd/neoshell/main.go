// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

// Neoshell is a command line shell for Neo4j transactional HTTP endpoints.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
