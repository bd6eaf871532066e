// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

/*
Package driver implements a client for the HTTP transactional endpoint of
Neo4j servers, providing a native API (see OpenClient) with pooled
connections and explicit transactions as well as a database/sql facade
registered as DriverName.
*/
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

// DriverVersion is the version number of the neorest driver.
const DriverVersion = "0.9.3"

// DriverName is the driver name to use with sql.Open for neorest clients.
const DriverName = "neorest"

// userAgent is sent with every request.
const userAgent = "go-neorest/" + DriverVersion

func init() {
	sql.Register(DriverName, stdDriver)
}

var stdDriver = newDriver()

// check if driver implements all required interfaces.
var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
)

// Driver represents the go sql driver implementation for neorest.
type Driver struct {
	metrics *metrics
}

func newDriver() *Driver {
	return &Driver{metrics: newMetrics(nil)}
}

// Open implements the driver.Driver interface.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := NewDSNConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements the driver.DriverContext interface.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) { return NewDSNConnector(dsn) }

// Name returns the driver name.
func (d *Driver) Name() string { return DriverName }

// Version returns the driver version.
func (d *Driver) Version() string { return DriverVersion }

// Stats returns driver statistics aggregated over all connectors.
func (d *Driver) Stats() Stats { return d.metrics.stats() }
