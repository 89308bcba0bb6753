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

	json "github.com/bytedance/sonic"
)

// MarshalSheet encodes a sheet in the JSON shape used by the backend, with
// camelCase field names.
func MarshalSheet(sheet *Sheet) ([]byte, error) {
	return json.Marshal(sheet)
}

// UnmarshalSheet decodes and validates a sheet. Rows are ordered by index.
func UnmarshalSheet(data []byte) (*Sheet, error) {
	var sheet Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("unreadable sheet: %s", err)
	}
	if err := sheet.normalize(); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// normalize orders rows, and validates the sheet.
func (s *Sheet) normalize() error {
	for _, row := range s.Rows {
		if row == nil {
			return fmt.Errorf("null row")
		}
		for _, cell := range row.Cells {
			if cell == nil {
				return fmt.Errorf("row %d: null cell", row.RowIndex+1)
			}
		}
	}
	s.sortRows()
	return s.validate()
}
