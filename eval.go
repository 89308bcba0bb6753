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
)

var (
	ErrFormula           = errors.New("formula error")
	ErrCircularReference = fmt.Errorf("%w: circular reference detected", ErrFormula)
)

// maxNesting bounds the depth of parentheses and unary minus chains. Deeper
// groups evaluate to 0.
const maxNesting = 10000

// CellValueLookup resolves the numeric value of cells referenced by a
// formula.
//
// Implementations must return 0 for empty or unknown cells, and must not
// fail. They may evaluate other formulas to resolve a cell.
type CellValueLookup interface {
	CellValue(rowIndex, columnIndex int) float64
}

// LookupFunc adapts a function to the CellValueLookup interface.
type LookupFunc func(rowIndex, columnIndex int) float64

func (fn LookupFunc) CellValue(rowIndex, columnIndex int) float64 {
	return fn(rowIndex, columnIndex)
}

// EvaluateFormula computes the value of formula, resolving cell references
// through lookup. It never fails: empty formulas evaluate to 0, division by
// zero yields 0, and malformed parts are skipped.
func EvaluateFormula(formula string, lookup CellValueLookup) float64 {
	tokens := TokenizeFormula(formula)
	e := &evaluator{
		tokens: tokens,
		lookup: lookup,
	}
	return e.parseExpression()
}

// EvaluateFormulaWithWarnings evaluates exactly like EvaluateFormula, and
// also reports everything that was skipped or defaulted along the way.
func EvaluateFormulaWithWarnings(formula string, lookup CellValueLookup) (float64, []Warning) {
	tokens, warnings := ScanFormula(formula)
	e := &evaluator{
		tokens:   tokens,
		lookup:   lookup,
		warnings: warnings,
		verbose:  true,
	}
	result := e.parseExpression()
	if e.pos < len(e.tokens) {
		e.warn(fmt.Sprintf("unexpected %s, ignoring %d trailing token(s)", e.tokens[e.pos], len(e.tokens)-e.pos))
	}
	return result, e.warnings
}

type evaluator struct {
	tokens   []Token
	pos      int
	depth    int
	lookup   CellValueLookup
	verbose  bool
	warnings []Warning
}

func (e *evaluator) peek() (Token, bool) {
	if e.pos < len(e.tokens) {
		return e.tokens[e.pos], true
	}
	return Token{}, false
}

func (e *evaluator) next() Token {
	token := e.tokens[e.pos]
	e.pos++
	return token
}

// peekOperator reports whether the next token is one of the operators ops.
func (e *evaluator) peekOperator(ops string) (byte, bool) {
	token, ok := e.peek()
	if !ok || token.Kind != TokenOperator {
		return 0, false
	}
	for i := 0; i < len(ops); i++ {
		if ops[i] == token.Operator {
			return token.Operator, true
		}
	}
	return 0, false
}

func (e *evaluator) warn(reason string) {
	if e.verbose {
		e.warnings = append(e.warnings, Warning{Offset: -1, Reason: reason})
	}
}

func (e *evaluator) parseExpression() float64 {
	left := e.parseTerm()
	for {
		op, ok := e.peekOperator("+-")
		if !ok {
			return left
		}
		e.next()
		right := e.parseTerm()
		if op == '+' {
			left = left + right
		} else {
			left = left - right
		}
	}
}

func (e *evaluator) parseTerm() float64 {
	left := e.parsePrimary()
	for {
		op, ok := e.peekOperator("*/")
		if !ok {
			return left
		}
		e.next()
		right := e.parsePrimary()
		if op == '*' {
			left = left * right
		} else if right != 0 {
			left = left / right
		} else {
			e.warn("division by zero, using 0")
			left = 0
		}
	}
}

func (e *evaluator) parsePrimary() float64 {
	token, ok := e.peek()
	if !ok {
		return 0
	}

	switch token.Kind {
	case TokenNumber:
		e.next()
		return token.Value
	case TokenCell:
		e.next()
		return e.lookup.CellValue(token.Position.Row, token.Position.Column)
	case TokenLParen:
		e.next()
		if !e.enter() {
			return 0
		}
		result := e.parseExpression()
		e.leave()
		if next, ok := e.peek(); ok && next.Kind == TokenRParen {
			e.next()
		} else {
			e.warn("missing closing parenthesis")
		}
		return result
	case TokenOperator:
		if token.Operator == '-' {
			e.next()
			if !e.enter() {
				return 0
			}
			result := -e.parsePrimary()
			e.leave()
			return result
		}
	}

	// Leave the token in place for the enclosing rule.
	e.warn(fmt.Sprintf("unexpected %s, using 0", token))
	return 0
}

func (e *evaluator) enter() bool {
	if e.depth >= maxNesting {
		e.warn("formula nested too deeply, using 0")
		e.pos = len(e.tokens)
		return false
	}
	e.depth++
	return true
}

func (e *evaluator) leave() {
	e.depth--
}
