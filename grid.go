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
	"fmt"
)

// pendingKey identifies a staged change by row and column. Rows are keyed by
// id so that staged changes follow a row when it is renumbered.
type pendingKey struct {
	rowID       string
	columnIndex int
}

// Grid resolves cell values of a sheet, with staged changes layered over
// the committed cells. Formula cells are evaluated on every lookup.
//
// A Grid is not safe for concurrent use.
type Grid struct {
	sheet   *Sheet
	rows    map[int]*Row
	cells   map[Position]*Cell
	overlay map[pendingKey]*PendingChange

	// visiting holds the cells whose formula is being evaluated, to detect
	// circular references.
	visiting map[Position]bool
	err      error
}

// Assert Grid implements the CellValueLookup interface.
var _ CellValueLookup = &Grid{}

// NewGrid indexes the cells of sheet. The grid must be rebuilt, or
// refreshed, when rows or cells are added to or removed from the sheet.
func NewGrid(sheet *Sheet) *Grid {
	g := &Grid{
		sheet:    sheet,
		overlay:  make(map[pendingKey]*PendingChange),
		visiting: make(map[Position]bool),
	}
	g.refresh()
	return g
}

func (g *Grid) refresh() {
	g.rows = make(map[int]*Row, len(g.sheet.Rows))
	g.cells = make(map[Position]*Cell)
	for _, row := range g.sheet.Rows {
		g.rows[row.RowIndex] = row
		for _, cell := range row.Cells {
			g.cells[Position{row.RowIndex, cell.ColumnIndex}] = cell
		}
	}
}

// CellValue returns the numeric value of a cell: staged changes first, then
// committed cells, with formulas evaluated recursively. Empty and unknown
// cells are 0, as are cells which take part in a circular reference.
func (g *Grid) CellValue(rowIndex, columnIndex int) float64 {
	pos := Position{rowIndex, columnIndex}
	if g.visiting[pos] {
		g.circular(pos)
		return 0
	}
	row, ok := g.rows[rowIndex]
	if !ok {
		return 0
	}

	var value, formula *string
	if change, ok := g.overlay[pendingKey{row.ID, columnIndex}]; ok {
		value, formula = change.Value, change.Formula
	} else if cell, ok := g.cells[pos]; ok {
		value, formula = cell.Value, cell.Formula
	} else {
		return 0
	}

	if formula == nil || *formula == "" {
		return ParseNumericValue(value)
	}
	return g.evaluateAt(pos, *formula)
}

func (g *Grid) evaluateAt(pos Position, formula string) float64 {
	if g.visiting[pos] {
		g.circular(pos)
		return 0
	}
	g.visiting[pos] = true
	defer delete(g.visiting, pos)
	return EvaluateFormula(formula, g)
}

// circular records the first circular reference met while evaluating.
func (g *Grid) circular(pos Position) {
	if g.err == nil {
		g.err = fmt.Errorf("%w at %s", ErrCircularReference, pos)
	}
}

// Evaluate computes formula against the grid. It fails with an error
// wrapping ErrCircularReference if resolving the formula loops.
func (g *Grid) Evaluate(formula string) (float64, error) {
	g.err = nil
	result := EvaluateFormula(formula, g)
	return result, g.takeErr()
}

// EvaluateAt computes formula as if it were stored at pos, so that a
// formula referring to its own cell is detected as circular.
func (g *Grid) EvaluateAt(pos Position, formula string) (float64, error) {
	g.err = nil
	result := g.evaluateAt(pos, formula)
	return result, g.takeErr()
}

func (g *Grid) takeErr() error {
	err := g.err
	g.err = nil
	return err
}

func (g *Grid) stage(change *PendingChange) {
	g.overlay[pendingKey{change.RowID, change.ColumnIndex}] = change
}

func (g *Grid) staged(rowID string, columnIndex int) (*PendingChange, bool) {
	change, ok := g.overlay[pendingKey{rowID, columnIndex}]
	return change, ok
}
