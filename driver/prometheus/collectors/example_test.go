//go:build !unit

// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package collectors_test

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/neorest/go-neorest/driver"
	drivercollectors "github.com/neorest/go-neorest/driver/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func formatHTTPAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort(host, port)
}

// Example demonstrates the usage of go-neorest prometheus metrics.
func Example() {
	const (
		envDSN  = "GONEORESTDSN"
		envHTTP = "GONEORESTHTTP"
	)

	dsn := os.Getenv(envDSN)
	addr := os.Getenv(envHTTP)

	// exit if dsn or http address is missing.
	if dsn == "" || addr == "" {
		return
	}

	connector, err := driver.NewDSNConnector(dsn)
	if err != nil {
		log.Fatal(err)
	}
	client, err := driver.OpenClient(context.Background(), connector)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	// dbName: use as label.
	// as alternative connector.Database() could be used.
	const dbName = "myDatabase"

	// register collector for go-neorest driver metrics.
	driverCollector := drivercollectors.NewDriverCollector(connector.NativeDriver(), dbName)
	if err := prometheus.Register(driverCollector); err != nil {
		log.Fatal(err)
	}

	// register collector for go-neorest client metrics.
	clientCollector := drivercollectors.NewClientCollector(client, dbName)
	if err := prometheus.Register(clientCollector); err != nil {
		log.Fatal(err)
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	done := make(chan struct{})

	// do some database stuff...
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				if err := client.Ping(context.Background()); err != nil {
					log.Fatal(err)
				}
			}
		}
	}()

	// register prometheus HTTP handler and start HTTP server.
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, nil)

	log.Printf("access the metrics at http://%s/metrics", formatHTTPAddr(addr))

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	<-sigint

	close(done)
	wg.Wait()

	// output:
}
