// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neorest/go-neorest/driver"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display server discovery information",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close() //nolint: errcheck

		start := time.Now()
		if err := client.Ping(cmd.Context()); err != nil {
			return err
		}
		pingTime := time.Since(start)

		serverInfo := client.ServerInfo()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "server      %s\n", serverInfo.BaseURL)
		fmt.Fprintf(w, "endpoint    %s\n", serverInfo.TxEndpoint)
		fmt.Fprintf(w, "version     %s\n", serverInfo.Version)
		if serverInfo.Edition != "" {
			fmt.Fprintf(w, "edition     %s\n", serverInfo.Edition)
		}
		fmt.Fprintf(w, "multi db    %t\n", client.Version().HasFeature(driver.VersionFMultiDatabase))
		fmt.Fprintf(w, "ping        %s\n", pingTime)
		return nil
	},
}
