//go:build integration

// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package drivertest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container defaults. The image can be overridden via NEOREST_TEST_IMAGE.
const (
	defaultImage  = "neo4j:5.26-community"
	httpPort      = "7474/tcp"
	containerUser = "neo4j"
	memoryLimit   = "2g"
	startDeadline = 2 * time.Minute
)

// ContainerServer is a containerized server started for integration tests.
type ContainerServer struct {
	container testcontainers.Container
	URL       string
	Username  string
	Password  string
}

// StartContainer starts a server container and waits until its HTTP
// endpoint answers. The container is terminated on test cleanup.
func StartContainer(tb testing.TB, ctx context.Context) *ContainerServer {
	tb.Helper()

	image := defaultImage
	if v := os.Getenv("NEOREST_TEST_IMAGE"); v != "" {
		image = v
	}

	password := uuid.NewString()

	memory, err := units.RAMInBytes(memoryLimit)
	if err != nil {
		tb.Fatal(err)
	}

	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{httpPort},
		Env: map[string]string{
			"NEO4J_AUTH": containerUser + "/" + password,
		},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Memory = memory
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(httpPort),
			wait.ForHTTP("/").WithPort(httpPort),
		).WithDeadline(startDeadline),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		tb.Fatalf("starting server container failed: %s", err)
	}
	tb.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			tb.Logf("terminating server container failed: %s", err)
		}
	})

	host, err := c.Host(ctx)
	if err != nil {
		tb.Fatal(err)
	}
	port, err := c.MappedPort(ctx, httpPort)
	if err != nil {
		tb.Fatal(err)
	}

	return &ContainerServer{
		container: c,
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
		Username:  containerUser,
		Password:  password,
	}
}
