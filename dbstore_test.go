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
	"context"
	"math"

	runner "github.com/homelight/dat/sqlx-runner"
	"github.com/stretchr/testify/require"

	"github.com/homelight/sheets/db"
)

func (s *DbZuite) requireSameSheet(expected, actual *Sheet) {
	expectedData, err := MarshalSheet(expected)
	require.NoError(s.T(), err)
	actualData, err := MarshalSheet(actual)
	require.NoError(s.T(), err)
	require.JSONEq(s.T(), string(expectedData), string(actualData))
}

func (s *DbZuite) TestExample() {
	sheet := newTestSheet(SheetKahon, [][]string{{"2", "=A1*3"}})

	s.MustRunTransaction(func(session *Session) error {
		return session.Save(sheet)
	})

	fetched := s.mustLoad(sheet.ID)
	require.Equal(s.T(), 6.0, NewGrid(fetched).CellValue(0, 1))
}

func (s *DbZuite) TestSave() {
	sheet := newTestSheet(SheetInventory, [][]string{{"Rice", "3"}, {}, {"Eggs"}})
	sheet.Rows[0].ItemName = strPtr("Rice")

	s.MustRunTransaction(func(session *Session) error {
		return session.Save(sheet)
	})
	require.True(s.T(), sheet.diff().empty())

	var sheetsRecs []rSheet
	require.NoError(s.T(), s.db.Select("*").From(db.TableSheets).QueryStructs(&sheetsRecs))
	require.Equal(s.T(), []rSheet{{
		Id:        sheet.ID,
		Version:   1,
		Type:      "INVENTORY",
		CashierId: "cashier-1",
	}}, sheetsRecs)

	var rowsRecs []rRow
	require.NoError(s.T(), s.db.Select("*").From(db.TableRows).OrderBy("row_index").QueryStructs(&rowsRecs))
	require.Len(s.T(), rowsRecs, 3)
	for i, rec := range rowsRecs {
		require.Equal(s.T(), sheet.Rows[i].ID, rec.RowId)
		require.Equal(s.T(), i, rec.RowIndex)
		require.Equal(s.T(), 1, rec.FromVersion)
		require.Equal(s.T(), math.MaxInt32, rec.ToVersion)
	}
	require.Equal(s.T(), "Rice", rowsRecs[0].ItemName.String)
	require.False(s.T(), rowsRecs[1].ItemName.Valid)

	require.Len(s.T(), s.cellsRecs(sheet.ID), 3)

	fetched := s.mustLoad(sheet.ID)
	s.requireSameSheet(sheet, fetched)
}

func (s *DbZuite) TestLoad_unknownSheet() {
	err := RunTransaction(s.db, func(tx *runner.Tx) error {
		_, err := s.store.Open(context.Background(), tx).Load("nope")
		return err
	})
	require.EqualError(s.T(), err, "unknown sheet with id nope")
}

func (s *DbZuite) TestUpdate() {
	sheet := newTestSheet(SheetKahon, [][]string{{"1", "2"}, {"3"}})
	s.MustRunTransaction(func(session *Session) error {
		return session.Save(sheet)
	})

	changed := sheet.Row(0).Cell(1)
	e := NewEditor(sheet)
	require.NoError(s.T(), e.SetCell(Position{0, 1}, "5"))
	require.NoError(s.T(), e.SetCell(Position{1, 1}, "A1+B1"))
	e.Commit()

	s.MustRunTransaction(func(session *Session) error {
		return session.Update(sheet)
	})
	require.Equal(s.T(), 2, sheet.Version)

	var changedRecs []rCellForTesting
	for _, rec := range s.cellsRecs(sheet.ID) {
		if rec.CellId == changed.ID {
			changedRecs = append(changedRecs, rec)
		}
	}
	require.Equal(s.T(), []rCellForTesting{
		{RowId: sheet.Row(0).ID, CellId: changed.ID, Value: "2", FromVersion: 1, ToVersion: 1},
		{RowId: sheet.Row(0).ID, CellId: changed.ID, Value: "5", FromVersion: 2, ToVersion: math.MaxInt32},
	}, changedRecs)
	require.Len(s.T(), s.cellsRecs(sheet.ID), 5)

	fetched := s.mustLoad(sheet.ID)
	require.Equal(s.T(), 2, fetched.Version)
	s.requireSameSheet(sheet, fetched)
	require.Equal(s.T(), "6", *fetched.Row(1).Cell(1).Value)

	var previous *Sheet
	s.MustRunTransaction(func(session *Session) error {
		var err error
		previous, err = session.LoadAtVersion(sheet.ID, 1)
		return err
	})
	require.Equal(s.T(), 1, previous.Version)
	require.Equal(s.T(), "2", *previous.Row(0).Cell(1).Value)
	require.Nil(s.T(), previous.Row(1).Cell(1))
}

func (s *DbZuite) TestUpdate_noChange() {
	sheet := newTestSheet(SheetKahon, [][]string{{"1"}})
	s.MustRunTransaction(func(session *Session) error {
		return session.Save(sheet)
	})
	s.MustRunTransaction(func(session *Session) error {
		return session.Update(sheet)
	})
	require.Equal(s.T(), 1, sheet.Version)
}

func (s *DbZuite) TestUpdate_deletedRow() {
	sheet := newTestSheet(SheetKahon, [][]string{{"1"}, {"2", "3"}})
	s.MustRunTransaction(func(session *Session) error {
		return session.Save(sheet)
	})

	require.NoError(s.T(), sheet.DeleteRow(sheet.Row(1).ID))
	s.MustRunTransaction(func(session *Session) error {
		return session.Update(sheet)
	})

	fetched := s.mustLoad(sheet.ID)
	require.Len(s.T(), fetched.Rows, 1)
	s.requireSameSheet(sheet, fetched)
}

func (s *DbZuite) TestUpdate_concurrent() {
	sheet := newTestSheet(SheetKahon, [][]string{{"1"}})
	s.MustRunTransaction(func(session *Session) error {
		return session.Save(sheet)
	})

	first, second := s.mustLoad(sheet.ID), s.mustLoad(sheet.ID)

	*first.Rows[0].Cells[0].Value = "2"
	s.MustRunTransaction(func(session *Session) error {
		return session.Update(first)
	})

	*second.Rows[0].Cells[0].Value = "3"
	err := RunTransaction(s.db, func(tx *runner.Tx) error {
		return s.store.Open(context.Background(), tx).Update(second)
	})
	require.EqualError(s.T(), err, "concurrent update detected")
	require.Equal(s.T(), 1, second.Version)

	fetched := s.mustLoad(sheet.ID)
	require.Equal(s.T(), "2", *fetched.Rows[0].Cells[0].Value)
}
