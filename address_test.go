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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestColumnIndexToLetter() {
	cases := map[int]string{
		0:     "A",
		1:     "B",
		25:    "Z",
		26:    "AA",
		27:    "AB",
		51:    "AZ",
		52:    "BA",
		701:   "ZZ",
		702:   "AAA",
		16383: "XFD",
		-1:    "",
	}
	for index, expected := range cases {
		assert.Equal(s.T(), expected, ColumnIndexToLetter(index), "index %d", index)
	}
}

func (s *Zuite) TestColumnLetterToIndex() {
	cases := map[string]int{
		"A":   0,
		"a":   0,
		"Z":   25,
		"AA":  26,
		"aA":  26,
		"ZZ":  701,
		"AAA": 702,
		"XFD": 16383,
		"":    -1,
		"A1":  -1,
		"$A":  -1,
	}
	for letter, expected := range cases {
		assert.Equal(s.T(), expected, ColumnLetterToIndex(letter), "letter %q", letter)
	}

	// too many letters to fit an int
	require.Equal(s.T(), -1, ColumnLetterToIndex("ZZZZZZZZZZZZZZ"))
}

func (s *Zuite) TestColumnLetters_roundTrip() {
	for n := 0; n <= 1000; n++ {
		require.Equal(s.T(), n, ColumnLetterToIndex(ColumnIndexToLetter(n)), "n = %d", n)
	}
	for _, n := range []int{18277, 18278, 475253, 475254, 1 << 40} {
		require.Equal(s.T(), n, ColumnLetterToIndex(ColumnIndexToLetter(n)), "n = %d", n)
	}
}

func (s *Zuite) TestCellAddress() {
	require.Equal(s.T(), "A1", CellAddress(0, 0))
	require.Equal(s.T(), "B3", CellAddress(2, 1))
	require.Equal(s.T(), "AA10", CellAddress(9, 26))
	require.Equal(s.T(), "C7", Position{Row: 6, Column: 2}.String())
}

func (s *Zuite) TestParseCellAddress() {
	cases := map[string]Position{
		"A1":    {0, 0},
		"a1":    {0, 0},
		"B3":    {2, 1},
		"aa10":  {9, 26},
		"ZZ100": {99, 701},
		"A01":   {0, 0},
	}
	for address, expected := range cases {
		pos, ok := ParseCellAddress(address)
		require.True(s.T(), ok, address)
		require.Equal(s.T(), expected, pos, address)
		require.True(s.T(), IsValidCellAddress(address), address)
	}
}

func (s *Zuite) TestParseCellAddress_rejected() {
	cases := []string{
		"",
		"A",
		"1",
		"1A",
		"A1B",
		"A0",
		"A-1",
		" A1",
		"A1 ",
		"A 1",
		"$A$1",
		"A1.5",
		"Å1",
		"A99999999999999999999",
	}
	for _, address := range cases {
		_, ok := ParseCellAddress(address)
		assert.False(s.T(), ok, address)
		assert.False(s.T(), IsValidCellAddress(address), address)
	}
}

func (s *Zuite) TestCellAddress_roundTrip() {
	for row := 0; row < 200; row += 7 {
		for column := 0; column < 800; column += 13 {
			pos, ok := ParseCellAddress(CellAddress(row, column))
			require.True(s.T(), ok)
			require.Equal(s.T(), Position{row, column}, pos)
		}
	}
}

func (s *Zuite) TestMustParseCellAddress() {
	require.Equal(s.T(), Position{1, 1}, MustParseCellAddress("B2"))
	require.Panics(s.T(), func() {
		MustParseCellAddress("2B")
	})
}

func (s *Zuite) TestDefaultColumnHeaders() {
	require.Equal(s.T(), []string{"A", "B", "C"}, DefaultColumnHeaders(3))
	require.Nil(s.T(), DefaultColumnHeaders(0))

	headers := DefaultColumnHeaders(28)
	require.Len(s.T(), headers, 28)
	require.Equal(s.T(), "AB", headers[27])
}
