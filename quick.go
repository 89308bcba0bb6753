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
	"strings"
)

// DefaultOperandCount is the number of neighbouring cells used by the "2
// above" and "2 left" quick formulas.
const DefaultOperandCount = 2

var (
	ErrUnknownQuickFormula = errors.New("unknown quick formula")
	ErrBulkQuickFormula    = errors.New("bulk quick formula applies to a column, not a cell")
)

type QuickFormulaType string

const (
	QuickSumAllAbove      QuickFormulaType = "sum-all-above"
	QuickSumAbove2        QuickFormulaType = "sum-above-2"
	QuickSubtractAbove2   QuickFormulaType = "subtract-above-2"
	QuickSubtractAllAbove QuickFormulaType = "subtract-all-above"
	QuickMultiplyLeft2    QuickFormulaType = "multiply-left-2"
	QuickAddLeft2         QuickFormulaType = "add-left-2"
	QuickMultiplyAllRows  QuickFormulaType = "multiply-all-rows"
	QuickAddAllRows       QuickFormulaType = "add-all-rows"
)

type QuickFormulaOption struct {
	Type        QuickFormulaType `json:"type"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	IsBulk      bool             `json:"isBulk"`
}

// QuickFormulaOptions is the catalog of quick formulas, in menu order.
var QuickFormulaOptions = []QuickFormulaOption{
	{QuickSumAllAbove, "Sum All Above", "Add all cells above in this column", false},
	{QuickSumAbove2, "Sum 2 Above", "Add the 2 cells above", false},
	{QuickSubtractAbove2, "Subtract 2 Above", "Subtract the 2 cells above", false},
	{QuickSubtractAllAbove, "Subtract All Above", "Subtract all cells above sequentially", false},
	{QuickMultiplyLeft2, "Multiply 2 Left", "Multiply the 2 cells to the left", false},
	{QuickAddLeft2, "Add 2 Left", "Add the 2 cells to the left", false},
	{QuickMultiplyAllRows, "Multiply All Rows", "Apply multiply formula to all rows in this column", true},
	{QuickAddAllRows, "Add All Rows", "Apply addition formula to all rows in this column", true},
}

// ParseQuickFormulaType returns the catalog entry named name.
func ParseQuickFormulaType(name string) (QuickFormulaOption, error) {
	for _, option := range QuickFormulaOptions {
		if string(option.Type) == name {
			return option, nil
		}
	}
	return QuickFormulaOption{}, fmt.Errorf("%w: %s", ErrUnknownQuickFormula, name)
}

func (typ QuickFormulaType) IsBulk() bool {
	for _, option := range QuickFormulaOptions {
		if option.Type == typ {
			return option.IsBulk
		}
	}
	return false
}

// QuickFormula generates the formula of a single-cell quick formula for the
// cell at pos. Bulk types are rejected with ErrBulkQuickFormula.
func QuickFormula(typ QuickFormulaType, pos Position) (string, error) {
	switch typ {
	case QuickSumAllAbove:
		return SumAllAboveFormula(pos.Row, pos.Column), nil
	case QuickSumAbove2:
		return SumAboveFormula(pos.Row, pos.Column, DefaultOperandCount), nil
	case QuickSubtractAbove2:
		return SubtractAboveFormula(pos.Row, pos.Column, DefaultOperandCount), nil
	case QuickSubtractAllAbove:
		return SubtractAllAboveFormula(pos.Row, pos.Column), nil
	case QuickMultiplyLeft2:
		return MultiplyLeftFormula(pos.Row, pos.Column, DefaultOperandCount), nil
	case QuickAddLeft2:
		return AddLeftFormula(pos.Row, pos.Column, DefaultOperandCount), nil
	case QuickMultiplyAllRows, QuickAddAllRows:
		return "", fmt.Errorf("%w: %s", ErrBulkQuickFormula, typ)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownQuickFormula, typ)
	}
}

// SumAllAboveFormula adds every cell above the current one, top to bottom.
// The first row has nothing above it, and yields the empty formula.
func SumAllAboveFormula(rowIndex, columnIndex int) string {
	return strings.Join(allAbove(rowIndex, columnIndex), "+")
}

// SubtractAllAboveFormula subtracts from the top cell of the column every
// other cell above the current one.
func SubtractAllAboveFormula(rowIndex, columnIndex int) string {
	return strings.Join(allAbove(rowIndex, columnIndex), "-")
}

// SumAboveFormula adds the count nearest cells above, or fewer near the top
// of the sheet.
func SumAboveFormula(rowIndex, columnIndex, count int) string {
	return strings.Join(nearestAbove(rowIndex, columnIndex, count), "+")
}

// SubtractAboveFormula subtracts the count nearest cells above, top first.
func SubtractAboveFormula(rowIndex, columnIndex, count int) string {
	return strings.Join(nearestAbove(rowIndex, columnIndex, count), "-")
}

// MultiplyLeftFormula multiplies the count nearest cells to the left, or
// fewer near the first column.
func MultiplyLeftFormula(rowIndex, columnIndex, count int) string {
	return strings.Join(nearestLeft(rowIndex, columnIndex, count), "*")
}

// AddLeftFormula adds the count nearest cells to the left.
func AddLeftFormula(rowIndex, columnIndex, count int) string {
	return strings.Join(nearestLeft(rowIndex, columnIndex, count), "+")
}

func allAbove(rowIndex, columnIndex int) []string {
	if rowIndex <= 0 {
		return nil
	}
	parts := make([]string, 0, rowIndex)
	for row := 0; row < rowIndex; row++ {
		parts = append(parts, CellAddress(row, columnIndex))
	}
	return parts
}

// nearestAbove lists, top to bottom, up to count addresses right above.
func nearestAbove(rowIndex, columnIndex, count int) []string {
	first := rowIndex - count
	if first < 0 {
		first = 0
	}
	var parts []string
	for row := first; row < rowIndex; row++ {
		parts = append(parts, CellAddress(row, columnIndex))
	}
	return parts
}

// nearestLeft lists, left to right, up to count addresses right before.
func nearestLeft(rowIndex, columnIndex, count int) []string {
	first := columnIndex - count
	if first < 0 {
		first = 0
	}
	var parts []string
	for column := first; column < columnIndex; column++ {
		parts = append(parts, CellAddress(rowIndex, column))
	}
	return parts
}
