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

package sheets

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/homelight/dat/dat"
	runner "github.com/homelight/dat/sqlx-runner"
	"go.alis.build/alog"

	"github.com/homelight/sheets/db"
)

// Store persists sheets.
type Store interface {
	// Load loads the sheet with identifier `id` from the store.
	Load(id string) (*Sheet, error)

	// Save saves a new sheet to the store.
	Save(sheet *Sheet) error

	// Update updates an existing sheet in the store. It fails if the sheet
	// was updated concurrently since it was loaded.
	Update(sheet *Sheet) error
}

// DbStore stores sheets in Postgres. All access goes through a Session,
// bound to a transaction.
type DbStore struct{}

func NewStore() *DbStore {
	return &DbStore{}
}

func (s *DbStore) Open(ctx context.Context, tx *runner.Tx) *Session {
	return &Session{
		DbStore: s,
		ctx:     ctx,
		tx:      tx,
	}
}

// Session is a DbStore bound to a transaction. It is not safe for concurrent
// use.
type Session struct {
	*DbStore
	ctx context.Context
	tx  *runner.Tx
}

// Assert Session implements Store interface.
var _ Store = &Session{}

// rSheet represents a record of the sheets table.
type rSheet struct {
	Id        string `db:"id"`
	Version   int    `db:"version"`
	Type      string `db:"type"`
	CashierId string `db:"cashier_id"`
}

// rRow represents a record of the sheet_rows table.
type rRow struct {
	Id          int64          `db:"id"`
	SheetId     string         `db:"sheet_id"`
	RowId       string         `db:"row_id"`
	RowIndex    int            `db:"row_index"`
	IsItemRow   bool           `db:"is_item_row"`
	ItemName    dat.NullString `db:"item_name"`
	FromVersion int            `db:"from_version"`
	ToVersion   int            `db:"to_version"`
}

// rCell represents a record of the sheet_cells table.
type rCell struct {
	Id           int64          `db:"id"`
	SheetId      string         `db:"sheet_id"`
	RowId        string         `db:"row_id"`
	CellId       string         `db:"cell_id"`
	ColumnIndex  int            `db:"column_index"`
	Value        dat.NullString `db:"value"`
	Formula      dat.NullString `db:"formula"`
	Color        dat.NullString `db:"color"`
	IsCalculated bool           `db:"is_calculated"`
	FromVersion  int            `db:"from_version"`
	ToVersion    int            `db:"to_version"`
}

func (s *Session) Load(id string) (*Sheet, error) {
	return s.LoadAtVersion(id, 0)
}

// LoadAtVersion loads the sheet as it was at the given version. A version of
// 0 loads the current version.
func (s *Session) LoadAtVersion(id string, version int) (*Sheet, error) {
	var sheetRecs []rSheet
	if err := s.tx.
		Select("*").
		From(db.TableSheets).
		Where("id = $1", id).
		QueryStructs(&sheetRecs); err != nil {
		return nil, fmt.Errorf("unable to load sheets records: %s", err)
	} else if len(sheetRecs) == 0 {
		return nil, fmt.Errorf("unknown sheet with id %s", id)
	}
	sheetRec := sheetRecs[0]

	if version == 0 {
		version = sheetRec.Version
	} else if version < 1 || sheetRec.Version < version {
		return nil, fmt.Errorf("sheet %s has no version %d", id, version)
	}

	typ, err := ParseSheetType(sheetRec.Type)
	if err != nil {
		return nil, err
	}
	sheet := &Sheet{
		ID:        sheetRec.Id,
		Type:      typ,
		CashierID: sheetRec.CashierId,
		Version:   version,
	}

	var rowsRecs []rRow
	if err := s.tx.
		Select("*").
		From(db.TableRows).
		Where("sheet_id = $1", id).
		Where("from_version <= $1 and $1 <= to_version", version).
		OrderBy("row_index").
		QueryStructs(&rowsRecs); err != nil {
		return nil, err
	}
	rowsById := make(map[string]*Row, len(rowsRecs))
	for _, rowRec := range rowsRecs {
		row := &Row{
			ID:        rowRec.RowId,
			RowIndex:  rowRec.RowIndex,
			IsItemRow: rowRec.IsItemRow,
			ItemName:  readNullString(rowRec.ItemName),
		}
		rowsById[row.ID] = row
		sheet.Rows = append(sheet.Rows, row)
	}

	var cellsRecs []rCell
	if err := s.tx.
		Select("*").
		From(db.TableCells).
		Where("sheet_id = $1", id).
		Where("from_version <= $1 and $1 <= to_version", version).
		OrderBy("row_id, column_index").
		QueryStructs(&cellsRecs); err != nil {
		return nil, err
	}
	for _, cellRec := range cellsRecs {
		row, ok := rowsById[cellRec.RowId]
		if !ok {
			return nil, fmt.Errorf("cell %s refers to unknown row %s", cellRec.CellId, cellRec.RowId)
		}
		row.Cells = append(row.Cells, &Cell{
			ID:           cellRec.CellId,
			ColumnIndex:  cellRec.ColumnIndex,
			Value:        readNullString(cellRec.Value),
			Formula:      readNullString(cellRec.Formula),
			Color:        readNullString(cellRec.Color),
			IsCalculated: cellRec.IsCalculated,
		})
	}

	if err := sheet.validate(); err != nil {
		return nil, err
	}
	sheet.markPersisted()

	alog.Debugf(s.ctx, "loaded sheet %s at version %d: %d rows, %d cells", id, version, len(rowsRecs), len(cellsRecs))
	return sheet, nil
}

func (s *Session) Save(sheet *Sheet) error {
	if err := sheet.validate(); err != nil {
		return err
	}
	ensureCellIds(sheet)

	if _, err := s.tx.
		InsertInto(db.TableSheets).
		Columns("*").
		Record(&rSheet{
			Id:        sheet.ID,
			Version:   sheet.Version,
			Type:      string(sheet.Type),
			CashierId: sheet.CashierID,
		}).
		Exec(); err != nil {
		return err
	}

	var (
		rows  = make([]*Row, 0, len(sheet.Rows))
		cells = make(map[string]*Cell)
		owner = make(map[string]string)
	)
	for _, row := range sheet.Rows {
		rows = append(rows, row)
		for _, cell := range row.Cells {
			cells[cell.ID] = cell
			owner[cell.ID] = row.ID
		}
	}
	if err := s.insertRows(sheet, sheet.Version, rows); err != nil {
		return err
	}
	if err := s.insertCells(sheet, sheet.Version, cells, owner); err != nil {
		return err
	}

	sheet.markPersisted()

	alog.Debugf(s.ctx, "saved sheet %s: %d rows, %d cells", sheet.ID, len(rows), len(cells))
	return nil
}

func (s *Session) Update(sheet *Sheet) error {
	if err := sheet.validate(); err != nil {
		return err
	}
	if sheet.orig == nil {
		return fmt.Errorf("sheet %s was never saved", sheet.ID)
	}
	ensureCellIds(sheet)

	diff := sheet.diff()

	// no change, i.e. only the version would change
	if diff.empty() {
		return nil
	}

	oldVersion := sheet.Version
	newVersion := oldVersion + 1

	// close old records
	var rowIds, cellIds []string
	for id, change := range diff.rows {
		if change.before != nil {
			rowIds = append(rowIds, id)
		}
	}
	for id, change := range diff.cells {
		if change.before != nil {
			cellIds = append(cellIds, id)
		}
	}
	if err := s.closeRecords(db.TableRows, "row_id", sheet.ID, oldVersion, rowIds); err != nil {
		return err
	}
	if err := s.closeRecords(db.TableCells, "cell_id", sheet.ID, oldVersion, cellIds); err != nil {
		return err
	}

	// insert new records
	var (
		rows  []*Row
		cells = make(map[string]*Cell)
		owner = make(map[string]string)
	)
	for _, change := range diff.rows {
		if change.after != nil {
			rows = append(rows, change.after)
		}
	}
	for id, change := range diff.cells {
		if change.after != nil {
			cells[id] = change.after
			owner[id] = change.rowID
		}
	}
	if err := s.insertRows(sheet, newVersion, rows); err != nil {
		return err
	}
	if err := s.insertCells(sheet, newVersion, cells, owner); err != nil {
		return err
	}

	// update rSheet
	if result, err := s.tx.
		Update(db.TableSheets).
		Set("version", newVersion).
		Set("type", string(sheet.Type)).
		Set("cashier_id", sheet.CashierID).
		Where("id = $1 and version = $2", sheet.ID, oldVersion).
		Exec(); err != nil {
		return err
	} else if result.RowsAffected != 1 {
		alog.Warnf(s.ctx, "concurrent update of sheet %s at version %d", sheet.ID, oldVersion)
		return fmt.Errorf("concurrent update detected")
	}

	// now we can update the sheet itself to reflect the store
	sheet.Version = newVersion
	sheet.markPersisted()

	alog.Debugf(s.ctx, "updated sheet %s to version %d: %d rows, %d cells changed", sheet.ID, newVersion, len(diff.rows), len(diff.cells))
	return nil
}

func (s *Session) closeRecords(table, idColumn, sheetId string, oldVersion int, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.tx.
		Update(table).
		Set("to_version", oldVersion).
		Where("sheet_id = $1", sheetId).
		Where("from_version <= $1 and $1 <= to_version", oldVersion).
		Where(inClause(idColumn, len(ids)), ughconvert(ids)...).
		Exec()
	return err
}

func (s *Session) insertRows(sheet *Sheet, version int, rows []*Row) error {
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].RowIndex < rows[j].RowIndex
	})
	insert := s.tx.InsertInto(db.TableRows).Columns("*").Blacklist("id")
	for _, row := range rows {
		insert.Record(rRow{
			SheetId:     sheet.ID,
			RowId:       row.ID,
			RowIndex:    row.RowIndex,
			IsItemRow:   row.IsItemRow,
			ItemName:    writeNullString(row.ItemName),
			FromVersion: version,
			ToVersion:   math.MaxInt32,
		})
	}
	_, err := insert.Exec()
	return err
}

func (s *Session) insertCells(sheet *Sheet, version int, cells map[string]*Cell, owner map[string]string) error {
	if len(cells) == 0 {
		return nil
	}
	ids := make([]string, 0, len(cells))
	for id := range cells {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	insert := s.tx.InsertInto(db.TableCells).Columns("*").Blacklist("id")
	for _, id := range ids {
		cell := cells[id]
		insert.Record(rCell{
			SheetId:      sheet.ID,
			RowId:        owner[id],
			CellId:       id,
			ColumnIndex:  cell.ColumnIndex,
			Value:        writeNullString(cell.Value),
			Formula:      writeNullString(cell.Formula),
			Color:        writeNullString(cell.Color),
			IsCalculated: cell.IsCalculated,
			FromVersion:  version,
			ToVersion:    math.MaxInt32,
		})
	}
	_, err := insert.Exec()
	return err
}

// ensureCellIds assigns identifiers to cells created without one.
func ensureCellIds(sheet *Sheet) {
	for _, row := range sheet.Rows {
		for _, cell := range row.Cells {
			if cell.ID == "" {
				cell.ID = newId()
			}
		}
	}
}

func readNullString(optValue dat.NullString) *string {
	if !optValue.Valid {
		return nil
	}
	return strPtr(optValue.String)
}

func writeNullString(value *string) dat.NullString {
	if value == nil {
		return dat.NullString{NullString: sql.NullString{String: "", Valid: false}}
	}
	return dat.NullStringFrom(*value)
}
