// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// prm represents a load test parameter consisting of Workers and Statements per worker.
type prm struct {
	Workers, Statements int
}

// prmsValue represents a flag value for parameters.
type prmsValue []prm

// String implements the flag.Value interface.
func (v prmsValue) String() string {
	b := new(bytes.Buffer)
	last := len(v) - 1
	for i, prm := range v {
		b.WriteString(strconv.Itoa(prm.Workers))
		b.WriteString("x")
		b.WriteString(strconv.Itoa(prm.Statements))
		if i != last {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// Set implements the flag.Value interface.
func (v *prmsValue) Set(s string) error {
	*v = nil // clear slice
	for _, ts := range strings.Split(s, " ") {
		t := strings.Split(ts, "x")
		if len(t) != 2 {
			return fmt.Errorf("invalid value: %s", s)
		}
		var err error
		var prm prm
		prm.Workers, err = strconv.Atoi(t[0])
		if err != nil {
			return err
		}
		prm.Statements, err = strconv.Atoi(t[1])
		if err != nil {
			return err
		}
		*v = append(*v, prm)
	}
	return nil
}
