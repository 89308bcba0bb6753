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
	"regexp"
	"sort"
	"strings"
)

var ErrInvalidColor = errors.New("invalid color")

// PendingChange is an edit of a cell which has not been committed to the
// sheet yet. CellID is empty when the edit creates the cell.
type PendingChange struct {
	CellID      string  `json:"cellId,omitempty"`
	RowID       string  `json:"rowId"`
	ColumnIndex int     `json:"columnIndex"`
	Value       *string `json:"value"`
	Formula     *string `json:"formula"`
	Color       *string `json:"color"`
}

// CellUpdate is a pending change to an existing cell.
type CellUpdate struct {
	ID           string  `json:"id"`
	Value        *string `json:"value,omitempty"`
	Formula      *string `json:"formula,omitempty"`
	Color        *string `json:"color,omitempty"`
	IsCalculated bool    `json:"isCalculated"`
}

// CellInsert is a pending change creating a cell.
type CellInsert struct {
	RowID        string  `json:"rowId"`
	ColumnIndex  int     `json:"columnIndex"`
	Value        *string `json:"value,omitempty"`
	Formula      *string `json:"formula,omitempty"`
	Color        *string `json:"color,omitempty"`
	IsCalculated bool    `json:"isCalculated"`
}

// Editor stages edits of a sheet, and evaluates formulas against the sheet
// as it would be once the edits are committed.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	sheet *Sheet
	grid  *Grid
	mode  FormatMode

	// order lists staged changes in the order they were first staged.
	order []pendingKey
}

func NewEditor(sheet *Sheet) *Editor {
	return &Editor{
		sheet: sheet,
		grid:  NewGrid(sheet),
		mode:  FormatModeFor(sheet.Type),
	}
}

func (e *Editor) Sheet() *Sheet {
	return e.sheet
}

// Lookup returns the cell value lookup over the sheet and staged changes.
func (e *Editor) Lookup() *Grid {
	return e.grid
}

func (e *Editor) Mode() FormatMode {
	return e.mode
}

// SetMode overrides the format mode derived from the sheet type.
func (e *Editor) SetMode(mode FormatMode) {
	e.mode = mode
}

var pFormulaReference = regexp.MustCompile(`[A-Za-z]+[0-9]+`)

// LooksLikeFormula reports whether cell input should be read as a formula:
// it refers to a cell, and has an operator.
func LooksLikeFormula(input string) bool {
	return pFormulaReference.MatchString(input) && strings.ContainsAny(input, "+-*/")
}

// SetCell stages input typed in the cell at pos. Blank input clears the
// cell. Formulas are evaluated, and their formatted result becomes the
// cell's value. A formula which cannot be evaluated, because it is circular,
// is kept as literal text.
func (e *Editor) SetCell(pos Position, input string) error {
	row := e.sheet.Row(pos.Row)
	if row == nil {
		return fmt.Errorf("%w: %d", ErrRowNotFound, pos.Row+1)
	}

	var (
		trimmed        = strings.TrimSpace(input)
		value, formula *string
	)
	switch {
	case trimmed == "":
	case LooksLikeFormula(trimmed):
		if result, err := e.grid.EvaluateAt(pos, trimmed); err != nil {
			value = strPtr(trimmed)
		} else {
			value = strPtr(FormatCellNumber(result, e.mode))
			formula = strPtr(trimmed)
		}
	default:
		value = strPtr(trimmed)
	}

	e.stage(row, pos.Column, value, formula, e.color(row, pos.Column))
	return nil
}

// SetColor stages a new background color for the cell at pos, keeping its
// content. A nil color resets the background.
func (e *Editor) SetColor(pos Position, color *string) error {
	if color != nil && !IsValidHexColor(*color) {
		return fmt.Errorf("%w %s", ErrInvalidColor, *color)
	}
	row := e.sheet.Row(pos.Row)
	if row == nil {
		return fmt.Errorf("%w: %d", ErrRowNotFound, pos.Row+1)
	}

	var value, formula *string
	if change, ok := e.grid.staged(row.ID, pos.Column); ok {
		value, formula = change.Value, change.Formula
	} else if cell := row.Cell(pos.Column); cell != nil {
		value, formula = cell.Value, cell.Formula
	}
	e.stage(row, pos.Column, value, formula, color)
	return nil
}

// ApplyQuickFormula stages the quick formula typ at pos, and returns the
// number of cells staged. Bulk formulas fill the column of pos, for every
// row whose source cells hold numbers, staged values included.
func (e *Editor) ApplyQuickFormula(typ QuickFormulaType, pos Position) (int, error) {
	row := e.sheet.Row(pos.Row)
	if row == nil {
		return 0, fmt.Errorf("%w: %d", ErrRowNotFound, pos.Row+1)
	}

	if typ.IsBulk() {
		var results []BulkFormulaResult
		rows := RowValuesOf(e.DisplayRows())
		if typ == QuickMultiplyAllRows {
			results = MultiplyForAllRows(rows, pos.Column, DefaultOperandCount)
		} else {
			results = AddForAllRows(rows, pos.Column, DefaultOperandCount)
		}

		count := 0
		for _, result := range results {
			target := e.sheet.Row(result.RowIndex)
			if target == nil {
				continue
			}
			if e.stageFormula(target, result.ColumnIndex, result.Formula) == nil {
				count++
			}
		}
		return count, nil
	}

	formula, err := QuickFormula(typ, pos)
	if err != nil {
		return 0, err
	}
	if formula == "" {
		return 0, nil
	}
	if err := e.stageFormula(row, pos.Column, formula); err != nil {
		return 0, err
	}
	return 1, nil
}

func (e *Editor) stageFormula(row *Row, columnIndex int, formula string) error {
	result, err := e.grid.EvaluateAt(Position{row.RowIndex, columnIndex}, formula)
	if err != nil {
		return err
	}
	e.stage(row, columnIndex, strPtr(FormatCellNumber(result, e.mode)), strPtr(formula), e.color(row, columnIndex))
	return nil
}

// Recalculate re-evaluates every formula, staged or committed, and stages a
// change for each cell whose value is stale. It returns the number of cells
// whose value changed. Circular formulas are left untouched, and reported.
func (e *Editor) Recalculate() (int, error) {
	var (
		count int
		errs  []error
	)
	for _, row := range e.sheet.Rows {
		for _, columnIndex := range e.columns(row) {
			pos := Position{row.RowIndex, columnIndex}

			var value, formula, color *string
			if change, ok := e.grid.staged(row.ID, columnIndex); ok {
				value, formula, color = change.Value, change.Formula, change.Color
			} else if cell := row.Cell(columnIndex); cell != nil {
				value, formula, color = cell.Value, cell.Formula, cell.Color
			}
			if formula == nil || *formula == "" {
				continue
			}

			result, err := e.grid.EvaluateAt(pos, *formula)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			formatted := FormatCellNumber(result, e.mode)
			if value != nil && *value == formatted {
				continue
			}
			e.stage(row, columnIndex, strPtr(formatted), formula, color)
			count++
		}
	}
	return count, errors.Join(errs...)
}

// columns lists, in order, the columns of row with a cell or a staged change.
func (e *Editor) columns(row *Row) []int {
	seen := make(map[int]bool)
	var columns []int
	for _, cell := range row.Cells {
		if !seen[cell.ColumnIndex] {
			seen[cell.ColumnIndex] = true
			columns = append(columns, cell.ColumnIndex)
		}
	}
	for _, key := range e.order {
		if key.rowID == row.ID && !seen[key.columnIndex] {
			seen[key.columnIndex] = true
			columns = append(columns, key.columnIndex)
		}
	}
	sort.Ints(columns)
	return columns
}

func (e *Editor) color(row *Row, columnIndex int) *string {
	if change, ok := e.grid.staged(row.ID, columnIndex); ok {
		return change.Color
	}
	if cell := row.Cell(columnIndex); cell != nil {
		return cell.Color
	}
	return nil
}

func (e *Editor) stage(row *Row, columnIndex int, value, formula, color *string) {
	change := &PendingChange{
		RowID:       row.ID,
		ColumnIndex: columnIndex,
		Value:       value,
		Formula:     formula,
		Color:       color,
	}
	if cell := row.Cell(columnIndex); cell != nil {
		change.CellID = cell.ID
	}
	if _, ok := e.grid.staged(row.ID, columnIndex); !ok {
		e.order = append(e.order, pendingKey{row.ID, columnIndex})
	}
	e.grid.stage(change)
}

// Pending lists staged changes, in the order cells were first edited.
func (e *Editor) Pending() []*PendingChange {
	changes := make([]*PendingChange, 0, len(e.order))
	for _, key := range e.order {
		changes = append(changes, e.grid.overlay[key])
	}
	return changes
}

func (e *Editor) HasChanges() bool {
	return len(e.order) != 0
}

// Discard drops all staged changes.
func (e *Editor) Discard() {
	e.order = nil
	e.grid.overlay = make(map[pendingKey]*PendingChange)
}

// Changes splits staged changes into updates of existing cells, and
// insertions of new cells.
func (e *Editor) Changes() ([]CellUpdate, []CellInsert) {
	var (
		updates []CellUpdate
		inserts []CellInsert
	)
	for _, change := range e.Pending() {
		isCalculated := change.Formula != nil && *change.Formula != ""
		if change.CellID != "" {
			updates = append(updates, CellUpdate{
				ID:           change.CellID,
				Value:        change.Value,
				Formula:      change.Formula,
				Color:        change.Color,
				IsCalculated: isCalculated,
			})
		} else {
			inserts = append(inserts, CellInsert{
				RowID:        change.RowID,
				ColumnIndex:  change.ColumnIndex,
				Value:        change.Value,
				Formula:      change.Formula,
				Color:        change.Color,
				IsCalculated: isCalculated,
			})
		}
	}
	return updates, inserts
}

// DisplayRows returns copies of the sheet's rows with staged changes
// merged in. Cells which do not exist yet get a placeholder id.
func (e *Editor) DisplayRows() []*Row {
	rows := make([]*Row, 0, len(e.sheet.Rows))
	for _, row := range e.sheet.Rows {
		dup := row.clone()
		for _, cell := range dup.Cells {
			if change, ok := e.grid.staged(row.ID, cell.ColumnIndex); ok {
				applyChange(cell, change)
			}
		}
		for _, key := range e.order {
			if key.rowID != row.ID || dup.Cell(key.columnIndex) != nil {
				continue
			}
			cell := &Cell{
				ID:          fmt.Sprintf("pending-%s-%d", key.rowID, key.columnIndex),
				ColumnIndex: key.columnIndex,
			}
			applyChange(cell, e.grid.overlay[key])
			dup.Cells = append(dup.Cells, cell)
		}
		rows = append(rows, dup)
	}
	return rows
}

func applyChange(cell *Cell, change *PendingChange) {
	cell.Value = cloneStr(change.Value)
	cell.Formula = cloneStr(change.Formula)
	cell.Color = cloneStr(change.Color)
	cell.IsCalculated = change.Formula != nil && *change.Formula != ""
}

// Commit applies staged changes to the sheet, creating cells as needed, and
// clears them. Changes to rows deleted since they were staged are dropped.
func (e *Editor) Commit() {
	for _, change := range e.Pending() {
		row := e.sheet.RowByID(change.RowID)
		if row == nil {
			continue
		}
		cell := row.Cell(change.ColumnIndex)
		if cell == nil {
			cell = &Cell{
				ID:          newId(),
				ColumnIndex: change.ColumnIndex,
			}
			row.Cells = append(row.Cells, cell)
			sort.SliceStable(row.Cells, func(i, j int) bool {
				return row.Cells[i].ColumnIndex < row.Cells[j].ColumnIndex
			})
		}
		applyChange(cell, change)
	}
	e.Discard()
	e.grid.refresh()
}

// Save commits staged changes, and persists the sheet.
func (e *Editor) Save(store Store) error {
	e.Commit()
	if e.sheet.orig == nil {
		return store.Save(e.sheet)
	}
	return store.Update(e.sheet)
}

// AppendRows adds count empty rows at the end of the sheet.
func (e *Editor) AppendRows(count int) []*Row {
	rows := e.sheet.AppendRows(count)
	e.grid.refresh()
	return rows
}

// DeleteRow removes a row, along with changes staged on it.
func (e *Editor) DeleteRow(rowID string) error {
	if err := e.sheet.DeleteRow(rowID); err != nil {
		return err
	}
	order := e.order[:0]
	for _, key := range e.order {
		if key.rowID == rowID {
			delete(e.grid.overlay, key)
		} else {
			order = append(order, key)
		}
	}
	e.order = order
	e.grid.refresh()
	return nil
}

// ReorderRow moves a row. Staged changes follow their row. Formulas are not
// rewritten, and still refer to the same addresses.
func (e *Editor) ReorderRow(rowID string, newIndex int) error {
	if err := e.sheet.ReorderRow(rowID, newIndex); err != nil {
		return err
	}
	e.grid.refresh()
	return nil
}
