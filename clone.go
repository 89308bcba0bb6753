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

// Clone makes a deep copy of this sheet, keeping all identifiers and the
// version. Editing the copy does not affect the original.
func (s *Sheet) Clone() *Sheet {
	dup := s.cloneData()
	if s.orig != nil {
		dup.orig = s.orig.cloneData()
	}
	return dup
}

// Duplicate copies the content of this sheet into a new sheet, with fresh
// identifiers, for the given cashier. The duplicate starts at version 1.
func (s *Sheet) Duplicate(cashierID string) *Sheet {
	dup := s.cloneData()
	dup.ID = newId()
	dup.CashierID = cashierID
	dup.Version = 1
	for _, row := range dup.Rows {
		row.ID = newId()
		for _, cell := range row.Cells {
			cell.ID = newId()
		}
	}
	return dup
}

func (s *Sheet) cloneData() *Sheet {
	dup := &Sheet{
		ID:        s.ID,
		Type:      s.Type,
		CashierID: s.CashierID,
		Version:   s.Version,
		Rows:      make([]*Row, 0, len(s.Rows)),
	}
	for _, row := range s.Rows {
		dup.Rows = append(dup.Rows, row.clone())
	}
	return dup
}

func (r *Row) clone() *Row {
	dup := &Row{
		ID:        r.ID,
		RowIndex:  r.RowIndex,
		IsItemRow: r.IsItemRow,
		ItemName:  cloneStr(r.ItemName),
		Cells:     make([]*Cell, 0, len(r.Cells)),
	}
	for _, cell := range r.Cells {
		dup.Cells = append(dup.Cells, cell.clone())
	}
	return dup
}

func (c *Cell) clone() *Cell {
	return &Cell{
		ID:           c.ID,
		ColumnIndex:  c.ColumnIndex,
		Value:        cloneStr(c.Value),
		Formula:      cloneStr(c.Formula),
		Color:        cloneStr(c.Color),
		IsCalculated: c.IsCalculated,
	}
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(*s)
}
