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
	"math"
	"regexp"
	"strconv"
	"strings"
)

// BulkFormulaResult is a formula to stage at a given cell, as produced by
// the bulk generators.
type BulkFormulaResult struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Formula     string `json:"formula"`
}

// RowValues is the minimal view of a row needed by the bulk generators.
type RowValues struct {
	RowIndex int
	Cells    []CellValue
}

type CellValue struct {
	ColumnIndex int
	Value       *string
}

func (r RowValues) value(columnIndex int) *string {
	for _, cell := range r.Cells {
		if cell.ColumnIndex == columnIndex {
			return cell.Value
		}
	}
	return nil
}

// RowValuesOf projects sheet rows for the bulk generators.
func RowValuesOf(rows []*Row) []RowValues {
	values := make([]RowValues, 0, len(rows))
	for _, row := range rows {
		rv := RowValues{
			RowIndex: row.RowIndex,
			Cells:    make([]CellValue, 0, len(row.Cells)),
		}
		for _, cell := range row.Cells {
			rv.Cells = append(rv.Cells, CellValue{
				ColumnIndex: cell.ColumnIndex,
				Value:       cell.Value,
			})
		}
		values = append(values, rv)
	}
	return values
}

// MultiplyForAllRows generates, for every row whose sourceColumnOffset cells
// left of targetColumnIndex all hold numbers, the formula multiplying them.
// Other rows are skipped.
func MultiplyForAllRows(rows []RowValues, targetColumnIndex, sourceColumnOffset int) []BulkFormulaResult {
	return forAllRows(rows, targetColumnIndex, sourceColumnOffset, MultiplyLeftFormula)
}

// AddForAllRows is like MultiplyForAllRows, adding instead.
func AddForAllRows(rows []RowValues, targetColumnIndex, sourceColumnOffset int) []BulkFormulaResult {
	return forAllRows(rows, targetColumnIndex, sourceColumnOffset, AddLeftFormula)
}

func forAllRows(rows []RowValues, target, offset int, generate func(row, column, count int) string) []BulkFormulaResult {
	if offset <= 0 {
		return nil
	}
	var results []BulkFormulaResult
	for _, row := range rows {
		if !hasNumbersLeftOf(row, target, offset) {
			continue
		}
		results = append(results, BulkFormulaResult{
			RowIndex:    row.RowIndex,
			ColumnIndex: target,
			Formula:     generate(row.RowIndex, target, offset),
		})
	}
	return results
}

func hasNumbersLeftOf(row RowValues, target, offset int) bool {
	for i := 1; i <= offset; i++ {
		column := target - i
		if column < 0 {
			return false
		}
		value := row.value(column)
		if value == nil {
			return false
		}
		if _, ok := leadingNumber(*value); !ok {
			return false
		}
	}
	return true
}

var pLeadingNumber = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?`)

// leadingNumber reads the longest number at the start of s, ignoring
// leading whitespace and whatever follows the number, e.g. "3kg" reads as 3.
// Only finite numbers are accepted.
func leadingNumber(s string) (float64, bool) {
	literal := pLeadingNumber.FindString(strings.TrimSpace(s))
	if literal == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

// IsNumericValue reports whether value starts with a finite number.
func IsNumericValue(value *string) bool {
	if value == nil {
		return false
	}
	_, ok := leadingNumber(*value)
	return ok
}

// ParseNumericValue reads the number value starts with, or returns 0.
func ParseNumericValue(value *string) float64 {
	if value == nil {
		return 0
	}
	number, _ := leadingNumber(*value)
	return number
}
