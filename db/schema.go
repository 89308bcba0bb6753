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

// Package db holds the Postgres schema backing sheets.DbStore.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	runner "github.com/homelight/dat/sqlx-runner"
	_ "github.com/lib/pq"
)

const (
	TableSheets = "sheets"
	TableRows   = "sheet_rows"
	TableCells  = "sheet_cells"
)

// Tables lists all tables, children first.
var Tables = []string{
	TableCells,
	TableRows,
	TableSheets,
}

// Rows and cells are versioned: a record is current for all sheet versions
// in [from_version, to_version]. Updating a sheet closes the records of what
// changed, and inserts new ones, so that every version of a sheet can be
// read back.
var statements = []string{
	`create table if not exists sheets (
		id          varchar(36) not null primary key,
		version     integer not null,
		type        varchar(16) not null,
		cashier_id  varchar(64) not null
	)`,
	`create table if not exists sheet_rows (
		id           serial primary key,
		sheet_id     varchar(36) not null references sheets(id),
		row_id       varchar(36) not null,
		row_index    integer not null,
		is_item_row  boolean not null,
		item_name    text,
		from_version integer not null,
		to_version   integer not null
	)`,
	`create index if not exists sheet_rows_sheet_id on sheet_rows (sheet_id, from_version, to_version)`,
	`create table if not exists sheet_cells (
		id            serial primary key,
		sheet_id      varchar(36) not null references sheets(id),
		row_id        varchar(36) not null,
		cell_id       varchar(36) not null,
		column_index  integer not null,
		value         text,
		formula       text,
		color         varchar(7),
		is_calculated boolean not null,
		from_version  integer not null,
		to_version    integer not null
	)`,
	`create index if not exists sheet_cells_sheet_id on sheet_cells (sheet_id, from_version, to_version)`,
}

// Schema is the DDL creating all tables.
func Schema() string {
	return strings.Join(statements, ";\n") + ";\n"
}

// Migrate creates missing tables and indexes.
func Migrate(db *runner.DB) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("unable to migrate: %s", err)
		}
	}
	return nil
}

// Truncate empties all tables.
func Truncate(db *runner.DB) error {
	_, err := db.Exec(fmt.Sprintf("truncate %s", strings.Join(Tables, ", ")))
	return err
}

// Open connects to the Postgres database at url.
func Open(url string) (*runner.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return runner.NewDB(conn, "postgres"), nil
}
