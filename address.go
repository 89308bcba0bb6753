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
	"regexp"
	"strconv"
	"strings"
)

// maxColumnLetters bounds column names so that decoding fits in an int.
const maxColumnLetters = 13

var pCellAddress = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// Position is a zero-based (row, column) pair on a sheet.
type Position struct {
	Row    int
	Column int
}

// String returns the address of the position, e.g. "B3" for row 2 and
// column 1.
func (p Position) String() string {
	return CellAddress(p.Row, p.Column)
}

// ColumnIndexToLetter converts a zero-based column index into its
// spreadsheet name: 0 is "A", 25 is "Z", 26 is "AA", and so forth. Negative
// indices have no name and yield the empty string.
func ColumnIndexToLetter(index int) string {
	var letters []byte
	for index >= 0 {
		letters = append(letters, byte('A'+index%26))
		index = index/26 - 1
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// ColumnLetterToIndex is the inverse of ColumnIndexToLetter. Letters are
// case-insensitive. It returns -1 when letter is not a column name.
func ColumnLetterToIndex(letter string) int {
	if len(letter) == 0 || len(letter) > maxColumnLetters {
		return -1
	}
	result := 0
	for i := 0; i < len(letter); i++ {
		c := letter[i]
		switch {
		case 'A' <= c && c <= 'Z':
			result = result*26 + int(c-'A'+1)
		case 'a' <= c && c <= 'z':
			result = result*26 + int(c-'a'+1)
		default:
			return -1
		}
	}
	return result - 1
}

// CellAddress returns the address of the cell at the zero-based row and
// column, e.g. CellAddress(0, 0) is "A1".
func CellAddress(rowIndex, columnIndex int) string {
	return ColumnIndexToLetter(columnIndex) + strconv.Itoa(rowIndex+1)
}

// ParseCellAddress parses addresses such as "A1" or "ab12". Anything other
// than letters followed by digits, or a row number below 1, is rejected.
func ParseCellAddress(address string) (Position, bool) {
	matches := pCellAddress.FindStringSubmatch(address)
	if matches == nil {
		return Position{}, false
	}
	column := ColumnLetterToIndex(matches[1])
	if column < 0 {
		return Position{}, false
	}
	row, err := strconv.Atoi(matches[2])
	if err != nil || row < 1 {
		return Position{}, false
	}
	return Position{Row: row - 1, Column: column}, true
}

// MustParseCellAddress is like ParseCellAddress, but panics on invalid
// addresses.
func MustParseCellAddress(address string) Position {
	pos, ok := ParseCellAddress(address)
	if !ok {
		panic("invalid cell address " + strconv.Quote(address))
	}
	return pos
}

// IsValidCellAddress reports whether address parses with ParseCellAddress.
func IsValidCellAddress(address string) bool {
	_, ok := ParseCellAddress(address)
	return ok
}

// canonicalAddress uppercases the letters of a valid address.
func canonicalAddress(address string) string {
	return strings.ToUpper(address)
}

// DefaultColumnHeaders returns the names of the first count columns.
func DefaultColumnHeaders(count int) []string {
	if count <= 0 {
		return nil
	}
	headers := make([]string, count)
	for i := range headers {
		headers[i] = ColumnIndexToLetter(i)
	}
	return headers
}
