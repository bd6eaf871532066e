// SPDX-FileCopyrightText: 2020-2026 The go-neorest Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neorest/go-neorest/driver"
)

// testHandler implements the http.Handler interface for the load tests.
type testHandler struct {
	lt *loadTest
}

// newTestHandler returns a new TestHandler instance.
func newTestHandler(dba *dba) *testHandler {
	return &testHandler{lt: newLoadTest(dba)}
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := newURLQuery(r)

	sequential := q.getBool(urlQuerySequential, defSequential)
	workers := q.getInt(urlQueryWorkers, defWorkers)
	statements := q.getInt(urlQueryStatements, defStatements)

	result := h.lt.execute(sequential, workers, statements, cleanup)

	log.Printf("%s", result)
	fmt.Fprintln(w, result)
}

type testResult struct {
	Sequential bool
	Workers    int
	Statements int
	Duration   time.Duration
	Err        error
}

func (r *testResult) String() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return fmt.Sprintf(
		"creation of %d nodes in %s (sequential: %t workers: %d statements: %d)",
		r.Workers*r.Statements,
		r.Duration,
		r.Sequential,
		r.Workers,
		r.Statements,
	)
}

func (r *testResult) setError(err error) *testResult {
	r.Err = err
	return r
}

const (
	defSequential = true
	defWorkers    = 10
	defStatements = 100
)

const createStmt = "CREATE (n:" + nodeLabel + " {run: $run, worker: $worker, seq: $seq})"

type loadTest struct {
	dba *dba
}

func newLoadTest(dba *dba) *loadTest {
	return &loadTest{dba: dba}
}

func (lt *loadTest) execute(sequential bool, workers, statements int, cleanup bool) *testResult {
	// Try to get a comparable environment for each run
	// by clearing garbage from previous runs.
	runtime.GC()

	result := &testResult{Sequential: sequential, Workers: workers, Statements: statements}

	if cleanup {
		if _, err := lt.dba.deleteNodes(); err != nil {
			return result.setError(err)
		}
	}

	if wait > 0 {
		time.Sleep(time.Duration(wait) * time.Second)
	}

	run := uuid.NewString()

	var d time.Duration
	var err error
	if sequential {
		d, err = lt.executeSequential(run, workers, statements)
	} else {
		d, err = lt.executeConcurrent(run, workers, statements)
	}

	result.Duration = d
	if err != nil {
		return result.setError(err)
	}
	return result
}

// runWorker creates the nodes of one worker in a single transaction.
func (lt *loadTest) runWorker(run string, worker, statements int) error {
	ctx := context.Background()

	tx, err := lt.dba.client.Begin(ctx)
	if err != nil {
		return err
	}

	stmts := make([]driver.Statement, 0, statements)
	for seq := range statements {
		stmts = append(stmts, driver.Statement{
			Statement:  createStmt,
			Parameters: map[string]any{"run": run, "worker": worker, "seq": seq},
		})
	}

	if _, err := tx.ExecMany(ctx, stmts); err != nil {
		return err
	}
	if _, err := tx.Commit(ctx); err != nil {
		return err
	}
	return nil
}

func (lt *loadTest) executeSequential(run string, workers, statements int) (time.Duration, error) {
	t := time.Now()
	for worker := range workers {
		if err := lt.runWorker(run, worker, statements); err != nil {
			return time.Since(t), err
		}
	}
	return time.Since(t), nil
}

func (lt *loadTest) executeConcurrent(run string, workers, statements int) (time.Duration, error) {
	var wg sync.WaitGroup

	errs := make([]error, workers)

	t := time.Now() // Start time.

	for worker := range workers { // Start one goroutine per worker.
		wg.Add(1)

		go func(worker int) {
			defer wg.Done()
			errs[worker] = lt.runWorker(run, worker, statements)
		}(worker)
	}
	wg.Wait()

	d := time.Since(t) // Duration.

	for _, err := range errs {
		if err != nil {
			return d, err
		}
	}
	return d, nil
}
