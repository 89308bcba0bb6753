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
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenKind int

const (
	TokenCell TokenKind = iota
	TokenNumber
	TokenOperator
	TokenLParen
	TokenRParen
)

var tokenKindNames = map[TokenKind]string{
	TokenCell:     "cell",
	TokenNumber:   "number",
	TokenOperator: "operator",
	TokenLParen:   "lparen",
	TokenRParen:   "rparen",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexical element of a formula. Only the fields relevant to its
// Kind are set: Address and Position for cells, Value for numbers, and
// Operator for operators.
type Token struct {
	Kind     TokenKind
	Address  string
	Position Position
	Value    float64
	Operator byte
}

func (t Token) String() string {
	switch t.Kind {
	case TokenCell:
		return t.Address
	case TokenNumber:
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	case TokenOperator:
		return string(t.Operator)
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		panic(fmt.Sprintf("unexpected token kind %s", t.Kind))
	}
}

// Warning describes a fragment of a formula which was ignored, or a
// computation which was defaulted, while scanning or evaluating.
type Warning struct {
	// Offset is the byte offset of the fragment in the trimmed formula, or -1
	// when the warning is not tied to a fragment.
	Offset   int
	Fragment string
	Reason   string
}

func (w Warning) String() string {
	if w.Offset < 0 {
		return w.Reason
	}
	return fmt.Sprintf("%d: %s: %s", w.Offset, strconv.Quote(w.Fragment), w.Reason)
}

// CellReference is a cell mentioned in a formula.
type CellReference struct {
	Address string
	Position
}

// TokenizeFormula splits a formula into tokens. Scanning is lenient: words
// which are not cell addresses, malformed numbers, and unknown characters
// are dropped without error.
func TokenizeFormula(formula string) []Token {
	tokens, _ := ScanFormula(formula)
	return tokens
}

// ScanFormula tokenizes like TokenizeFormula, and additionally reports every
// fragment it dropped.
func ScanFormula(formula string) ([]Token, []Warning) {
	var (
		src      = strings.TrimSpace(formula)
		tokens   []Token
		warnings []Warning
	)
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '+' || r == '-' || r == '*' || r == '/':
			tokens = append(tokens, Token{Kind: TokenOperator, Operator: byte(r)})
			i++
		case r == '(':
			tokens = append(tokens, Token{Kind: TokenLParen})
			i++
		case r == ')':
			tokens = append(tokens, Token{Kind: TokenRParen})
			i++
		case isLetter(r):
			start := i
			for i < len(src) && (isLetter(rune(src[i])) || isDigit(rune(src[i]))) {
				i++
			}
			word := src[start:i]
			if pos, ok := ParseCellAddress(word); ok {
				tokens = append(tokens, Token{
					Kind:     TokenCell,
					Address:  canonicalAddress(word),
					Position: pos,
				})
			} else {
				warnings = append(warnings, Warning{start, word, "not a cell address"})
			}
		case isDigit(r) || r == '.':
			start := i
			for i < len(src) && (isDigit(rune(src[i])) || src[i] == '.') {
				i++
			}
			literal := src[start:i]
			if value, ok := parseNumberLiteral(literal); ok {
				tokens = append(tokens, Token{Kind: TokenNumber, Value: value})
			} else {
				warnings = append(warnings, Warning{start, literal, "not a number"})
			}
		default:
			warnings = append(warnings, Warning{i, string(r), "unexpected character"})
			i += size
		}
	}
	return tokens, warnings
}

// CellReferencesFromFormula lists the cells a formula refers to, in order of
// appearance. A cell mentioned twice is listed twice.
func CellReferencesFromFormula(formula string) []CellReference {
	var refs []CellReference
	for _, token := range TokenizeFormula(formula) {
		if token.Kind == TokenCell {
			refs = append(refs, CellReference{
				Address:  token.Address,
				Position: token.Position,
			})
		}
	}
	return refs
}

// parseNumberLiteral reads a run of digits and dots. Literals too large for
// a float64 read as +Inf.
func parseNumberLiteral(literal string) (float64, bool) {
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil && !math.IsInf(value, 1) {
		return 0, false
	}
	return value, true
}

func isLetter(r rune) bool {
	return ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z')
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
