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
)

var pHexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CellColorPalette lists the background colors offered for cells. White,
// the first entry, is the default.
var CellColorPalette = []string{
	"#FFFFFF",
	"#FFE4E1",
	"#FFE4B5",
	"#FFFACD",
	"#E0FFE0",
	"#E0FFFF",
	"#E6E6FA",
	"#FFE4E1",
	"#D3D3D3",
	"#FFDAB9",
}

func IsValidHexColor(color string) bool {
	return pHexColor.MatchString(color)
}
