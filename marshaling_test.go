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
	"strings"

	"github.com/stretchr/testify/require"
)

const sampleSheet = `{
	"id": "s1",
	"type": "KAHON",
	"cashierId": "c1",
	"version": 2,
	"rows": [
		{
			"id": "r2",
			"rowIndex": 1,
			"isItemRow": false,
			"itemName": null,
			"cells": null
		},
		{
			"id": "r1",
			"rowIndex": 0,
			"isItemRow": true,
			"itemName": "Rice",
			"cells": [
				{
					"id": "a1",
					"columnIndex": 1,
					"value": "6",
					"formula": "A1*2",
					"color": null,
					"isCalculated": true
				}
			]
		}
	]
}`

func (s *Zuite) TestUnmarshalSheet() {
	sheet, err := UnmarshalSheet([]byte(sampleSheet))
	require.NoError(s.T(), err)

	require.Equal(s.T(), "s1", sheet.ID)
	require.Equal(s.T(), SheetKahon, sheet.Type)
	require.Equal(s.T(), "c1", sheet.CashierID)
	require.Equal(s.T(), 2, sheet.Version)
	require.Equal(s.T(), []int{0, 1}, rowIndexes(sheet))

	row := sheet.Row(0)
	require.True(s.T(), row.IsItemRow)
	require.Equal(s.T(), "Rice", *row.ItemName)
	require.Equal(s.T(), &Cell{
		ID:           "a1",
		ColumnIndex:  1,
		Value:        strPtr("6"),
		Formula:      strPtr("A1*2"),
		IsCalculated: true,
	}, row.Cells[0])
	require.Nil(s.T(), sheet.Row(1).ItemName)
}

func (s *Zuite) TestMarshalSheet() {
	sheet, err := UnmarshalSheet([]byte(sampleSheet))
	require.NoError(s.T(), err)

	data, err := MarshalSheet(sheet)
	require.NoError(s.T(), err)

	// rows come out ordered
	require.JSONEq(s.T(), `{
		"id": "s1",
		"type": "KAHON",
		"cashierId": "c1",
		"version": 2,
		"rows": [
			{"id": "r1", "rowIndex": 0, "isItemRow": true, "itemName": "Rice", "cells": [
				{"id": "a1", "columnIndex": 1, "value": "6", "formula": "A1*2", "color": null, "isCalculated": true}
			]},
			{"id": "r2", "rowIndex": 1, "isItemRow": false, "itemName": null, "cells": null}
		]
	}`, string(data))
}

func (s *Zuite) TestUnmarshalSheet_errors() {
	cases := map[string]string{
		`{`: "unreadable sheet: ",
		`{"id": "s1", "type": "KAHON", "version": 1, "rows": [null]}`:                                          "null row",
		`{"id": "s1", "type": "KAHON", "version": 1, "rows": [{"id": "r1", "cells": [null]}]}`:                 "row 1: null cell",
		`{"id": "s1", "type": "OTHER", "version": 1}`:                                                          "unknown sheet type OTHER",
		`{"id": "s1", "type": "KAHON", "version": 0}`:                                                          "invalid version 0",
		`{"id": "s1", "type": "KAHON", "version": 1, "rows": [{"id": "r1"}, {"id": "r2"}]}`:                    "invalid or duplicate row index 0",
		`{"id": "s1", "type": "KAHON", "version": 1, "rows": [{"id": "r1", "cells": [{"color": "blue"}]}]}`: "A1: invalid color blue",
	}
	for input, expected := range cases {
		_, err := UnmarshalSheet([]byte(input))
		require.Error(s.T(), err, input)
		require.True(s.T(), strings.Contains(err.Error(), expected), "%s: %s", input, err)
	}
}
