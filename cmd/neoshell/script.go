// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neorest/go-neorest/cypherscript"
	"github.com/neorest/go-neorest/driver"
)

var autocommit bool

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Execute the Cypher statements of a script file",
	Long: `Execute the statements of a Cypher script file. Statements are
separated by semicolons, // comments are skipped. By default all
statements run in a single transaction which is rolled back if any
statement fails. With --autocommit each statement is committed
individually.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close() //nolint: errcheck

		scanner := bufio.NewScanner(file)
		scanner.Split(cypherscript.Scan)

		stmts := make([]string, 0)
		for scanner.Scan() {
			stmts = append(stmts, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}

		client, err := openClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close() //nolint: errcheck

		if autocommit {
			return runAutocommit(cmd, client, stmts)
		}
		return runTransaction(cmd, client, stmts)
	},
}

func init() {
	scriptCmd.Flags().BoolVar(&autocommit, "autocommit", false, "commit each statement individually")
}

func runAutocommit(cmd *cobra.Command, client *driver.Client, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := client.Query(cmd.Context(), stmt, nil); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d statements executed\n", len(stmts))
	return nil
}

func runTransaction(cmd *cobra.Command, client *driver.Client, stmts []string) error {
	tx, err := client.Begin(cmd.Context())
	if err != nil {
		return err
	}

	for i, stmt := range stmts {
		if _, err := tx.Exec(cmd.Context(), stmt, nil); err != nil {
			// the server rolls the transaction back on statement errors
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}

	if _, err := tx.Commit(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d statements committed\n", len(stmts))
	return nil
}
