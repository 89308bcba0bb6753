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
	"errors"
	"fmt"
	"sort"

	"github.com/satori/go.uuid"
)

type SheetType string

const (
	SheetKahon     SheetType = "KAHON"
	SheetInventory SheetType = "INVENTORY"
)

var ErrRowNotFound = errors.New("row not found")

func ParseSheetType(name string) (SheetType, error) {
	switch typ := SheetType(name); typ {
	case SheetKahon, SheetInventory:
		return typ, nil
	default:
		return "", fmt.Errorf("unknown sheet type %s", name)
	}
}

// Sheet is a cashier's sheet: rows of cells, each holding a literal value or
// a formula with its last computed value.
//
// Rows are kept ordered by RowIndex.
type Sheet struct {
	ID        string    `json:"id"`
	Type      SheetType `json:"type"`
	CashierID string    `json:"cashierId"`
	Version   int       `json:"version"`
	Rows      []*Row    `json:"rows"`

	// orig is the sheet as last loaded from, or written to, a store. It is
	// nil for sheets which were never persisted.
	orig *Sheet
}

type Row struct {
	ID        string  `json:"id"`
	RowIndex  int     `json:"rowIndex"`
	IsItemRow bool    `json:"isItemRow"`
	ItemName  *string `json:"itemName"`
	Cells     []*Cell `json:"cells"`
}

type Cell struct {
	ID           string  `json:"id"`
	ColumnIndex  int     `json:"columnIndex"`
	Value        *string `json:"value"`
	Formula      *string `json:"formula"`
	Color        *string `json:"color"`
	IsCalculated bool    `json:"isCalculated"`
}

func newId() string {
	return uuid.Must(uuid.NewV4()).String()
}

// NewSheet creates an empty sheet, at version 1.
func NewSheet(typ SheetType, cashierID string) *Sheet {
	return &Sheet{
		ID:        newId(),
		Type:      typ,
		CashierID: cashierID,
		Version:   1,
	}
}

// Row returns the row at rowIndex, or nil.
func (s *Sheet) Row(rowIndex int) *Row {
	i := sort.Search(len(s.Rows), func(i int) bool {
		return s.Rows[i].RowIndex >= rowIndex
	})
	if i < len(s.Rows) && s.Rows[i].RowIndex == rowIndex {
		return s.Rows[i]
	}
	return nil
}

func (s *Sheet) RowByID(id string) *Row {
	for _, row := range s.Rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// AddRow inserts an empty row at rowIndex, which must be free.
func (s *Sheet) AddRow(rowIndex int) (*Row, error) {
	if rowIndex < 0 {
		return nil, fmt.Errorf("negative row index %d", rowIndex)
	}
	if s.Row(rowIndex) != nil {
		return nil, fmt.Errorf("row %d already exists", rowIndex+1)
	}
	row := &Row{
		ID:       newId(),
		RowIndex: rowIndex,
	}
	s.Rows = append(s.Rows, row)
	s.sortRows()
	return row, nil
}

// AppendRows adds count empty rows after the last row.
func (s *Sheet) AppendRows(count int) []*Row {
	next := 0
	if len(s.Rows) != 0 {
		next = s.Rows[len(s.Rows)-1].RowIndex + 1
	}
	rows := make([]*Row, 0, count)
	for i := 0; i < count; i++ {
		row, err := s.AddRow(next + i)
		if err != nil {
			panic(fmt.Sprintf("unexpected %s", err))
		}
		rows = append(rows, row)
	}
	return rows
}

// DeleteRow removes a row and its cells. Other rows keep their index.
func (s *Sheet) DeleteRow(rowID string) error {
	for i, row := range s.Rows {
		if row.ID == rowID {
			s.Rows = append(s.Rows[:i], s.Rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRowNotFound, rowID)
}

// ReorderRow moves a row to the newIndex-th place, and renumbers all rows
// from 0 in their new order.
func (s *Sheet) ReorderRow(rowID string, newIndex int) error {
	from := -1
	for i, row := range s.Rows {
		if row.ID == rowID {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, rowID)
	}
	if newIndex < 0 || len(s.Rows) <= newIndex {
		return fmt.Errorf("row index %d out of range", newIndex)
	}

	moved := s.Rows[from]
	rows := append(s.Rows[:from:from], s.Rows[from+1:]...)
	rows = append(rows[:newIndex], append([]*Row{moved}, rows[newIndex:]...)...)
	for i, row := range rows {
		row.RowIndex = i
	}
	s.Rows = rows
	return nil
}

func (s *Sheet) sortRows() {
	sort.SliceStable(s.Rows, func(i, j int) bool {
		return s.Rows[i].RowIndex < s.Rows[j].RowIndex
	})
}

// Cell returns the cell of this row at columnIndex, or nil.
func (r *Row) Cell(columnIndex int) *Cell {
	for _, cell := range r.Cells {
		if cell.ColumnIndex == columnIndex {
			return cell
		}
	}
	return nil
}

// HasFormula reports whether the cell is computed.
func (c *Cell) HasFormula() bool {
	return c.Formula != nil && *c.Formula != ""
}

// validate checks the structural invariants of a sheet.
func (s *Sheet) validate() error {
	if s.ID == "" {
		return fmt.Errorf("missing id")
	}
	if s.Version < 1 {
		return fmt.Errorf("invalid version %d", s.Version)
	}
	if _, err := ParseSheetType(string(s.Type)); err != nil {
		return err
	}

	var (
		rowIds  = make(map[string]bool)
		cellIds = make(map[string]bool)
		indexes = make(map[int]bool)
	)
	for _, row := range s.Rows {
		if row.ID == "" {
			return fmt.Errorf("row %d: missing id", row.RowIndex+1)
		}
		if rowIds[row.ID] {
			return fmt.Errorf("duplicate row id %s", row.ID)
		}
		rowIds[row.ID] = true
		if row.RowIndex < 0 || indexes[row.RowIndex] {
			return fmt.Errorf("row %s: invalid or duplicate row index %d", row.ID, row.RowIndex)
		}
		indexes[row.RowIndex] = true

		columns := make(map[int]bool)
		for _, cell := range row.Cells {
			pos := Position{row.RowIndex, cell.ColumnIndex}
			if cell.ColumnIndex < 0 || columns[cell.ColumnIndex] {
				return fmt.Errorf("row %d: invalid or duplicate column index %d", row.RowIndex+1, cell.ColumnIndex)
			}
			columns[cell.ColumnIndex] = true
			if cell.ID != "" {
				if cellIds[cell.ID] {
					return fmt.Errorf("%s: duplicate cell id %s", pos, cell.ID)
				}
				cellIds[cell.ID] = true
			}
			if cell.Color != nil && !IsValidHexColor(*cell.Color) {
				return fmt.Errorf("%s: %w %s", pos, ErrInvalidColor, *cell.Color)
			}
		}
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
