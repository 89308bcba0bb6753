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
	"io/fs"
	"os"

	json "github.com/bytedance/sonic"
)

// LocalStore keeps sheets in a JSON file, as an object mapping sheet ids to
// sheets. It keeps no history of versions.
type LocalStore struct {
	filename string
}

// Assert LocalStore implements the Store interface.
var _ Store = &LocalStore{}

func NewLocalStore(filename string) *LocalStore {
	return &LocalStore{
		filename: filename,
	}
}

type byId map[string]*Sheet

func (s *LocalStore) read() (byId, error) {
	data, err := os.ReadFile(s.filename)
	if errors.Is(err, fs.ErrNotExist) {
		return make(byId), nil
	} else if err != nil {
		return nil, err
	}

	var sheets byId
	if err := json.Unmarshal(data, &sheets); err != nil {
		return nil, fmt.Errorf("%s: %s", s.filename, err)
	}
	if sheets == nil {
		sheets = make(byId)
	}
	return sheets, nil
}

func (s *LocalStore) write(sheets byId) error {
	data, err := json.Marshal(sheets)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filename, data, 0644)
}

func (s *LocalStore) Load(id string) (*Sheet, error) {
	sheets, err := s.read()
	if err != nil {
		return nil, err
	}

	sheet, ok := sheets[id]
	if !ok || sheet == nil {
		return nil, fmt.Errorf("sheet not found %s", id)
	}
	if err := sheet.normalize(); err != nil {
		return nil, fmt.Errorf("sheet %s: %s", id, err)
	}
	sheet.markPersisted()

	return sheet, nil
}

func (s *LocalStore) Save(sheet *Sheet) error {
	if err := sheet.validate(); err != nil {
		return err
	}
	sheets, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := sheets[sheet.ID]; ok {
		return fmt.Errorf("sheet %s already saved", sheet.ID)
	}

	ensureCellIds(sheet)
	sheets[sheet.ID] = sheet
	if err := s.write(sheets); err != nil {
		return err
	}

	sheet.markPersisted()
	return nil
}

func (s *LocalStore) Update(sheet *Sheet) error {
	if err := sheet.validate(); err != nil {
		return err
	}
	sheets, err := s.read()
	if err != nil {
		return err
	}
	stored, ok := sheets[sheet.ID]
	if !ok || stored == nil {
		return fmt.Errorf("sheet not found %s", sheet.ID)
	}
	if stored.Version != sheet.Version {
		return fmt.Errorf("concurrent update detected")
	}
	ensureCellIds(sheet)
	if sheet.diff().empty() {
		return nil
	}

	sheet.Version++
	sheets[sheet.ID] = sheet
	if err := s.write(sheets); err != nil {
		sheet.Version--
		return err
	}

	sheet.markPersisted()
	return nil
}
