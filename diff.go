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

// rowChange records a row which differs from its persisted state. before is
// nil for added rows, and after is nil for deleted rows.
type rowChange struct {
	before, after *Row
}

type cellChange struct {
	rowID         string
	before, after *Cell
}

type sheetDiff struct {
	header bool
	rows   map[string]rowChange
	cells  map[string]cellChange
}

func (d sheetDiff) empty() bool {
	return !d.header && len(d.rows) == 0 && len(d.cells) == 0
}

// markPersisted records the current state of the sheet as its persisted
// state, against which later changes are diffed.
func (s *Sheet) markPersisted() {
	s.orig = s.cloneData()
}

// diff compares the sheet with its persisted state. A sheet which was never
// persisted differs entirely.
func (s *Sheet) diff() sheetDiff {
	orig := s.orig
	if orig == nil {
		orig = &Sheet{}
	}

	d := sheetDiff{
		header: s.Type != orig.Type || s.CashierID != orig.CashierID,
		rows:   make(map[string]rowChange),
		cells:  make(map[string]cellChange),
	}

	var (
		origRows  = make(map[string]*Row)
		origCells = make(map[string]cellChange)
	)
	for _, row := range orig.Rows {
		origRows[row.ID] = row
		for _, cell := range row.Cells {
			origCells[cell.ID] = cellChange{rowID: row.ID, before: cell}
		}
	}

	for _, row := range s.Rows {
		before, ok := origRows[row.ID]
		delete(origRows, row.ID)
		if !ok || !row.sameAs(before) {
			d.rows[row.ID] = rowChange{before: before, after: row}
		}
		for _, cell := range row.Cells {
			prev, ok := origCells[cell.ID]
			delete(origCells, cell.ID)
			if !ok || prev.rowID != row.ID || !cell.sameAs(prev.before) {
				d.cells[cell.ID] = cellChange{rowID: row.ID, before: prev.before, after: cell}
			}
		}
	}
	for id, row := range origRows {
		d.rows[id] = rowChange{before: row}
	}
	for id, change := range origCells {
		d.cells[id] = change
	}

	return d
}

func (r *Row) sameAs(that *Row) bool {
	return r.RowIndex == that.RowIndex &&
		r.IsItemRow == that.IsItemRow &&
		sameStr(r.ItemName, that.ItemName)
}

func (c *Cell) sameAs(that *Cell) bool {
	return c.ColumnIndex == that.ColumnIndex &&
		c.IsCalculated == that.IsCalculated &&
		sameStr(c.Value, that.Value) &&
		sameStr(c.Formula, that.Formula) &&
		sameStr(c.Color, that.Color)
}

func sameStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
