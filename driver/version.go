// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	versionMajor = iota
	versionMinor
	versionPatch
	versionCount
)

// versionNumber holds the information of a semantic server version.
//
// u.vv.ww
//
// u:  major version
// vv: minor version
// ww: patch number
//
// Example: 5.26.0
type versionNumber []uint64 // assumption: all fields are numeric

func parseVersionNumber(s string) versionNumber {
	vn := make([]uint64, versionCount)

	parts := strings.SplitN(s, ".", versionCount)
	for i := 0; i < len(parts); i++ {
		vn[i], _ = strconv.ParseUint(parts[i], 10, 64)
	}
	return vn
}

func (vn versionNumber) String() string {
	return fmt.Sprintf("%d.%d.%d", vn[versionMajor], vn[versionMinor], vn[versionPatch])
}

func compareUint64(u1, u2 uint64) int {
	switch {
	case u1 == u2:
		return 0
	case u1 > u2:
		return 1
	default:
		return -1
	}
}

// Major returns the major field of a version number.
func (vn versionNumber) Major() uint64 { return vn[versionMajor] }

// Minor returns the minor field of a version number.
func (vn versionNumber) Minor() uint64 { return vn[versionMinor] }

// Patch returns the patch field of a version number.
func (vn versionNumber) Patch() uint64 { return vn[versionPatch] }

// compare compares the version number with a second version number vn2. The result will be
//
//	 0 in case the two versions are equal,
//	-1 in case version v has lower precedence than v2,
//	 1 in case version v has higher precedence than v2.
func (vn versionNumber) compare(vn2 versionNumber) int {
	for i := 0; i < versionCount; i++ {
		if r := compareUint64(vn[i], vn2[i]); r != 0 {
			return r
		}
	}
	return 0
}

// Server feature flags.
const (
	VersionFNone          uint64 = 1 << iota
	VersionFMultiDatabase        // server supports multiple databases and templated transaction endpoints
)

var featureAvailability = map[uint64]versionNumber{
	VersionFMultiDatabase: parseVersionNumber("4.0.0"),
}

// Version is representing a server version.
type Version struct {
	versionNumber
	feature uint64
}

// ParseVersion parses a semantic server version string field.
func ParseVersion(s string) *Version {
	number := parseVersionNumber(s)

	var feature uint64
	for f, cv := range featureAvailability {
		if number.compare(cv) >= 0 { // version is equal or greater than cv
			feature |= f
		}
	}
	return &Version{versionNumber: number, feature: feature}
}

// Compare compares the version with a second version v2. The result will be
//
//	 0 in case the two versions are equal,
//	-1 in case version v has lower precedence than v2,
//	 1 in case version v has higher precedence than v2.
func (v *Version) Compare(v2 *Version) int {
	return v.versionNumber.compare(v2.versionNumber)
}

// HasFeature returns true if the server version does support feature - false otherwise.
func (v *Version) HasFeature(feature uint64) bool { return v.feature&feature != 0 }
