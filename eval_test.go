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
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestEvaluateFormula_arithmetic() {
	cases := map[string]float64{
		"":              0,
		"   ":           0,
		"7":             7,
		"2+3*4":         14,
		"(2+3)*4":       20,
		"-5+2":          -3,
		"10/0":          0,
		"10/4":          2.5,
		"10-4-3":        3,
		"100/10/5":      2,
		"--5":           5,
		"-(2+3)":        -5,
		"2*-3":          -6,
		"((1+2)*(3+4))": 21,
		"1.5*2":         3,
		"8/(4-4)+1":     1,
	}
	for formula, expected := range cases {
		assert.Equal(s.T(), expected, EvaluateFormula(formula, LookupFunc(noCells)), formula)
	}
}

func (s *Zuite) TestEvaluateFormula_lenient() {
	cases := map[string]float64{
		// unclosed group
		"(2+3":   5,
		"2*(3+4": 14,

		// stray closing parenthesis ends parsing
		"2+3)*4": 5,
		")":      0,

		// operator in primary position yields 0, and is then read as an
		// operator by the enclosing rule
		"*5":   0,
		"+5":   5,
		"2+":   2,
		"2*":   0,
		"2++3": 5,

		// dropped fragments
		"total":      0,
		"1.2.3+4":    4,
		"4+1.2.3":    4,
		"2 # 3":      2,
		"foo*2+3":    3,
		"3 apples+4": 7,
	}
	for formula, expected := range cases {
		assert.Equal(s.T(), expected, EvaluateFormula(formula, LookupFunc(noCells)), formula)
	}
}

func (s *Zuite) TestEvaluateFormula_cells() {
	lookup := mapLookup{
		"A1": 5,
		"B1": 10,
		"C3": 2,
	}
	require.Equal(s.T(), 15.0, EvaluateFormula("A1+B1", lookup))
	require.Equal(s.T(), 15.0, EvaluateFormula("a1 + b1", lookup))
	require.Equal(s.T(), 35.0, EvaluateFormula("(A1+B1)*C3 + A1", lookup))
	require.Equal(s.T(), 0.0, EvaluateFormula("Z99", lookup))
	require.Equal(s.T(), 0.0, EvaluateFormula("A1/Z99", lookup))
}

func (s *Zuite) TestEvaluateFormula_overflow() {
	huge := "1" + strings.Repeat("0", 400)
	require.True(s.T(), math.IsInf(EvaluateFormula(huge+"+1", LookupFunc(noCells)), 1))
	require.Equal(s.T(), "Infinity", FormatCellNumber(EvaluateFormula(huge+"+1", LookupFunc(noCells)), FormatDefault))
}

func (s *Zuite) TestEvaluateFormula_lookupCalls() {
	lookup := new(mockLookup)
	lookup.On("CellValue", 0, 0).Return(3.0).Twice()
	lookup.On("CellValue", 1, 2).Return(4.0).Once()

	require.Equal(s.T(), 10.0, EvaluateFormula("A1+C2+A1", lookup))
	lookup.AssertExpectations(s.T())
}

func (s *Zuite) TestEvaluateFormula_recursiveLookup() {
	formulas := map[Position]string{
		{0, 1}: "A1*2",
	}
	values := map[Position]float64{
		{0, 0}: 3,
	}
	var lookup LookupFunc
	lookup = func(rowIndex, columnIndex int) float64 {
		if formula, ok := formulas[Position{rowIndex, columnIndex}]; ok {
			return EvaluateFormula(formula, lookup)
		}
		return values[Position{rowIndex, columnIndex}]
	}

	require.Equal(s.T(), 7.0, EvaluateFormula("B1+1", lookup))
}

func (s *Zuite) TestEvaluateFormula_deterministic() {
	lookup := mapLookup{"B3": 4, "AA12": 0.5}
	for _, pos := range []Position{{2, 1}, {11, 26}} {
		formula := "(" + CellAddress(pos.Row, pos.Column) + "+1)*3"
		first := EvaluateFormula(formula, lookup)
		var rebuilt []string
		for _, token := range TokenizeFormula(formula) {
			rebuilt = append(rebuilt, token.String())
		}
		require.Equal(s.T(), first, EvaluateFormula(strings.Join(rebuilt, " "), lookup))
		require.Equal(s.T(), first, EvaluateFormula(formula, lookup))
	}
}

func (s *Zuite) TestEvaluateFormula_deeplyNested() {
	formula := strings.Repeat("(", maxNesting+5) + "1" + strings.Repeat(")", maxNesting+5)
	require.Equal(s.T(), 0.0, EvaluateFormula(formula, LookupFunc(noCells)))

	formula = strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100)
	require.Equal(s.T(), 1.0, EvaluateFormula(formula, LookupFunc(noCells)))
}

func (s *Zuite) TestEvaluateFormulaWithWarnings() {
	cases := []struct {
		formula  string
		result   float64
		warnings []string
	}{
		{"2+3*4", 14, nil},
		{"10/0", 0, []string{"division by zero, using 0"}},
		{"(2+3", 5, []string{"missing closing parenthesis"}},
		{"2+3)*4", 5, []string{"unexpected ), ignoring 3 trailing token(s)"}},
		{"*5", 0, []string{"unexpected *, using 0"}},
		{"2 3", 2, []string{"unexpected 3, ignoring 1 trailing token(s)"}},
		{"foo+1", 1, []string{
			`0: "foo": not a cell address`,
			"unexpected +, using 0",
		}},
	}
	for _, ex := range cases {
		result, warnings := EvaluateFormulaWithWarnings(ex.formula, LookupFunc(noCells))
		assert.Equal(s.T(), ex.result, result, ex.formula)
		assert.Equal(s.T(), ex.result, EvaluateFormula(ex.formula, LookupFunc(noCells)), ex.formula)

		var actual []string
		for _, w := range warnings {
			actual = append(actual, w.String())
		}
		assert.Equal(s.T(), ex.warnings, actual, ex.formula)
	}
}
