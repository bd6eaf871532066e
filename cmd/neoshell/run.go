// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neorest/go-neorest/driver"
)

var jsonOutput bool

var runCmd = &cobra.Command{
	Use:   "run <statement> [param=value ...]",
	Short: "Execute a single Cypher statement",
	Long: `Execute a single Cypher statement with auto commit. Statement
parameters are given as param=value arguments. Values are decoded as
JSON where possible and passed as strings otherwise, so count=42 binds
a number and name=Alice binds a string.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}

		client, err := openClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close() //nolint: errcheck

		result, err := client.Query(cmd.Context(), args[0], params)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), result)
	},
}

func init() {
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "output records in JSON format")
}

// parseParams converts param=value arguments into statement parameters.
func parseParams(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := map[string]any{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %s - expected param=value", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value // not valid JSON - bind as string
		}
		params[name] = v
	}
	return params, nil
}

func printResult(w io.Writer, result *driver.Result) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, record := range result.Records {
		values := make([]string, 0, len(record.Values))
		for _, value := range record.Values {
			values = append(values, fmt.Sprintf("%v", value))
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if result.Stats != nil && result.Stats.ContainsUpdates {
		fmt.Fprintf(w, "nodes created: %d deleted: %d properties set: %d\n",
			result.Stats.NodesCreated, result.Stats.NodesDeleted, result.Stats.PropertiesSet)
	}
	return nil
}
