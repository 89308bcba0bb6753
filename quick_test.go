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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestSumAllAboveFormula() {
	require.Equal(s.T(), "A1+A2+A3", SumAllAboveFormula(3, 0))
	require.Equal(s.T(), "B1", SumAllAboveFormula(1, 1))
	require.Equal(s.T(), "", SumAllAboveFormula(0, 0))
	require.Equal(s.T(), "", SumAllAboveFormula(-1, 0))
}

func (s *Zuite) TestSubtractAllAboveFormula() {
	require.Equal(s.T(), "C1-C2-C3-C4", SubtractAllAboveFormula(4, 2))
	require.Equal(s.T(), "", SubtractAllAboveFormula(0, 2))
}

func (s *Zuite) TestNearestAboveFormulas() {
	cases := []struct {
		row, column, count int
		sum, subtract      string
	}{
		{5, 0, 2, "A4+A5", "A4-A5"},
		{5, 1, 3, "B3+B4+B5", "B3-B4-B5"},
		{1, 0, 2, "A1", "A1"},
		{0, 0, 2, "", ""},
		{3, 0, 0, "", ""},
	}
	for _, ex := range cases {
		assert.Equal(s.T(), ex.sum, SumAboveFormula(ex.row, ex.column, ex.count))
		assert.Equal(s.T(), ex.subtract, SubtractAboveFormula(ex.row, ex.column, ex.count))
	}
}

func (s *Zuite) TestNearestLeftFormulas() {
	cases := []struct {
		row, column, count int
		multiply, add      string
	}{
		{0, 2, 2, "A1*B1", "A1+B1"},
		{4, 3, 2, "B5*C5", "B5+C5"},
		{4, 3, 3, "A5*B5*C5", "A5+B5+C5"},
		{0, 1, 2, "A1", "A1"},
		{0, 0, 2, "", ""},
		{9, 27, 2, "Z10*AA10", "Z10+AA10"},
	}
	for _, ex := range cases {
		assert.Equal(s.T(), ex.multiply, MultiplyLeftFormula(ex.row, ex.column, ex.count))
		assert.Equal(s.T(), ex.add, AddLeftFormula(ex.row, ex.column, ex.count))
	}
}

func (s *Zuite) TestQuickFormulaOptions() {
	require.Len(s.T(), QuickFormulaOptions, 8)

	var bulk []QuickFormulaType
	for _, option := range QuickFormulaOptions {
		require.NotEmpty(s.T(), option.Label)
		require.NotEmpty(s.T(), option.Description)
		if option.IsBulk {
			bulk = append(bulk, option.Type)
		}
		require.Equal(s.T(), option.IsBulk, option.Type.IsBulk())
	}
	require.Equal(s.T(), []QuickFormulaType{QuickMultiplyAllRows, QuickAddAllRows}, bulk)
}

func (s *Zuite) TestParseQuickFormulaType() {
	option, err := ParseQuickFormulaType("sum-above-2")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "Sum 2 Above", option.Label)

	_, err = ParseQuickFormulaType("sum-above-3")
	require.True(s.T(), errors.Is(err, ErrUnknownQuickFormula))
	require.EqualError(s.T(), err, "unknown quick formula: sum-above-3")
}

func (s *Zuite) TestQuickFormula() {
	pos := Position{Row: 3, Column: 2}
	cases := map[QuickFormulaType]string{
		QuickSumAllAbove:      "C1+C2+C3",
		QuickSumAbove2:        "C2+C3",
		QuickSubtractAbove2:   "C2-C3",
		QuickSubtractAllAbove: "C1-C2-C3",
		QuickMultiplyLeft2:    "A4*B4",
		QuickAddLeft2:         "A4+B4",
	}
	for typ, expected := range cases {
		formula, err := QuickFormula(typ, pos)
		require.NoError(s.T(), err)
		require.Equal(s.T(), expected, formula, typ)
	}

	_, err := QuickFormula(QuickAddAllRows, pos)
	require.True(s.T(), errors.Is(err, ErrBulkQuickFormula))

	_, err = QuickFormula("nope", pos)
	require.True(s.T(), errors.Is(err, ErrUnknownQuickFormula))
}
