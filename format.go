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

	"github.com/shopspring/decimal"
)

// FormatMode selects how computed numbers are displayed in cells.
type FormatMode string

const (
	// FormatDefault drops the decimal point of integers, and shows at most
	// four decimals otherwise, without trailing zeros.
	FormatDefault FormatMode = "default"

	// FormatCeil rounds up to an integer. Kahon sheets count whole units.
	FormatCeil FormatMode = "ceil"

	// FormatDecimal always shows two decimals. Inventory sheets track
	// fractional weights.
	FormatDecimal FormatMode = "decimal"
)

const defaultMaxDecimals = 4

func ParseFormatMode(name string) (FormatMode, error) {
	switch mode := FormatMode(name); mode {
	case FormatDefault, FormatCeil, FormatDecimal:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown format mode %s", name)
	}
}

// FormatModeFor returns the format mode used by sheets of type typ.
func FormatModeFor(typ SheetType) FormatMode {
	if typ == SheetKahon {
		return FormatCeil
	}
	return FormatDecimal
}

// FormatCellNumber renders value for display in a cell. An unknown mode
// formats like FormatDefault.
func FormatCellNumber(value float64, mode FormatMode) string {
	switch {
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "Infinity"
	case math.IsInf(value, -1):
		return "-Infinity"
	}

	d := decimal.NewFromFloat(value)
	switch mode {
	case FormatCeil:
		return d.Ceil().String()
	case FormatDecimal:
		return d.StringFixed(2)
	default:
		if d.IsInteger() {
			return d.String()
		}
		return d.Round(defaultMaxDecimals).String()
	}
}
