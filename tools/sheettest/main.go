// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sheettest runs sheet scenarios from Gherkin feature files.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	runner "github.com/homelight/dat/sqlx-runner"
	"go.alis.build/alog"

	"github.com/homelight/sheets"
	"github.com/homelight/sheets/db"
	"github.com/homelight/sheets/sheettesting"
)

const databaseUrlEnv = "SHEETS_DATABASE_URL"

var (
	verbose = flag.Bool("v", false, "log debug information")
	dbUrl   = flag.String("db", "", "Postgres url of the store, defaults to $"+databaseUrlEnv)
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: sheettest [-v] [-db url] filename...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if *verbose {
		alog.SetLevel(alog.LevelDebug)
	}

	ctx := context.Background()
	url := *dbUrl
	if url == "" {
		url = os.Getenv(databaseUrlEnv)
	}
	r, err := newFeatureRunner(ctx, url)
	if err != nil {
		alog.Fatalf(ctx, "unable to set up store: %s", err)
	}

	var encounteredFailure bool
	for i, filename := range flag.Args() {
		if 0 < i {
			fmt.Println()
		}

		if ok := r.runFeature(filename); !ok {
			encounteredFailure = true
		}
	}

	r.close()
	if encounteredFailure {
		os.Exit(1)
	}
	os.Exit(0)
}

// featureRunner runs scenarios against a Postgres store when given a
// database, and against a throwaway local store otherwise.
type featureRunner struct {
	ctx context.Context

	conn  *runner.DB
	store *sheets.DbStore

	tempDir string
	local   *sheets.LocalStore
}

func newFeatureRunner(ctx context.Context, url string) (*featureRunner, error) {
	r := &featureRunner{ctx: ctx}
	if url == "" {
		tempDir, err := os.MkdirTemp("", "sheettest")
		if err != nil {
			return nil, err
		}
		r.tempDir = tempDir
		r.local = sheets.NewLocalStore(filepath.Join(tempDir, "sheets.json"))
		alog.Debugf(ctx, "storing sheets in %s", tempDir)
		return r, nil
	}

	conn, err := db.Open(url)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		conn.DB.Close()
		return nil, err
	}
	r.conn = conn
	r.store = sheets.NewStore()
	alog.Debugf(ctx, "storing sheets in database")
	return r, nil
}

func (r *featureRunner) close() {
	if r.conn != nil {
		if err := r.conn.DB.Close(); err != nil {
			alog.Warnf(r.ctx, "unable to close database: %s", err)
		}
	}
	if r.tempDir != "" {
		if err := os.RemoveAll(r.tempDir); err != nil {
			alog.Warnf(r.ctx, "unable to remove %s: %s", r.tempDir, err)
		}
	}
}

func (r *featureRunner) runFeature(filename string) bool {
	// open doc
	file, err := os.Open(filename)
	if err != nil {
		fmt.Printf("%s\n", filename)
		fmt.Printf("FAIL\t%s\n", err)
		return false
	}
	defer file.Close()

	// read feature
	scenarios, err := sheettesting.ReadFeature(bufio.NewReader(file), filename)
	if err != nil {
		fmt.Printf("%s\n", filename)
		fmt.Printf("FAIL\t%s\n", err)
		return false
	}

	// run scenarios
	ok := true
	for _, s := range scenarios {
		alog.Debugf(r.ctx, "running %s: %s", filename, s.Name)
		if err := r.runScenario(s); err != nil {
			fmt.Printf("%s\n", s.Name)
			fmt.Printf("FAIL\t%s\n", err)
			ok = false
		}
	}
	return ok
}

func (r *featureRunner) runScenario(scenario sheettesting.Scenario) error {
	if r.conn == nil {
		return scenario.Run(sheettesting.Context{Store: r.local})
	}
	return sheets.RunTransaction(r.conn, func(tx *runner.Tx) error {
		return scenario.Run(sheettesting.Context{Store: r.store.Open(r.ctx, tx)})
	})
}
