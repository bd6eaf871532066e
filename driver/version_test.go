// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"testing"
)

func testParseVersion(t *testing.T) {
	var tests = []struct {
		s string
		v string
	}{
		{"5.26.0", "5.26.0"},
		{"4.4.12", "4.4.12"},
		{"3.5.35", "3.5.35"},
		{"5.26", "5.26.0"},
	}

	for i, test := range tests {
		v := ParseVersion(test.s)
		if v.String() != test.v {
			t.Fatalf("line: %d got: %s expected: %s", i, v, test.v)
		}
	}
}

func testCompareVersion(t *testing.T) {
	var tests = []struct {
		s1, s2 string
		r      int
	}{
		{"3.5.35", "4.0.0", -1},
		{"4.4.12", "4.4.12", 0},
		{"5.26.0", "4.4.12", 1},
		{"4.4.2", "4.4.12", -1},
	}

	for i, test := range tests {
		v1 := ParseVersion(test.s1)
		v2 := ParseVersion(test.s2)
		if v1.Compare(v2) != test.r {
			t.Fatalf("line: %d expected: compare(%s,%s) = %d", i, v1, v2, test.r)
		}
	}
}

func testVersionFeature(t *testing.T) {
	var tests = []struct {
		s             string
		multiDatabase bool
	}{
		{"3.5.35", false},
		{"4.0.0", true},
		{"5.26.0", true},
	}

	for i, test := range tests {
		v := ParseVersion(test.s)
		if v.HasFeature(VersionFMultiDatabase) != test.multiDatabase {
			t.Fatalf("line: %d version %s multi database %t - expected %t", i, v, v.HasFeature(VersionFMultiDatabase), test.multiDatabase)
		}
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name string
		fct  func(t *testing.T)
	}{
		{"parse", testParseVersion},
		{"compare", testCompareVersion},
		{"feature", testVersionFeature},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.fct(t)
		})
	}
}
