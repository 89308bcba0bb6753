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

// Package sheettesting runs sheet scenarios written as Gherkin features.
//
// Every scenario starts from a fresh sheet, and steps edit and check it:
//
//	Scenario: totals round up
//		Given sheet KAHON
//		And rows 3
//		When set
//			| A1 | 2.2   |
//			| A2 | 3     |
//		And quick sum-all-above A3
//		Then assert A3 6
package sheettesting

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/gherkin-go"

	"github.com/homelight/sheets"
)

const verbs = "sheet, rows, set, quick, recalculate, commit, reload, assert, assert-formula, or evaluate"

// cashierID owns the sheets created by scenarios.
const cashierID = "sheettest"

type command interface {
	run(ctx *Context) error
}

// Assert all commands implement the command interface.
var _ = []command{
	cSheet{},
	cRows{},
	cSet{},
	cQuick{},
	cRecalculate{},
	cCommit{},
	cReload{},
	cAssert{},
	cAssertFormula{},
	cEvaluate{},
}

type cSheet struct {
	typ sheets.SheetType
}

type cRows struct {
	count int
}

type cellInput struct {
	pos   sheets.Position
	input string
}

type cSet struct {
	inputs []cellInput
}

type cQuick struct {
	typ sheets.QuickFormulaType
	pos sheets.Position
}

type cRecalculate struct{}

type cCommit struct{}

type cReload struct{}

type cAssert struct {
	expected []cellInput
}

type cAssertFormula struct {
	pos     sheets.Position
	formula string
}

type cEvaluate struct {
	formula  string
	expected string
}

func stepToCommand(step *gherkin.Step) (command, error) {
	parts := strings.Fields(step.Text)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no verb: expecting verb %s", verbs)
	}
	switch parts[0] {
	case "sheet":
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s: expecting sheet <type>", step.Text)
		}
		typ, err := sheets.ParseSheetType(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %s", step.Text, err)
		}
		return cSheet{typ}, nil
	case "rows":
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s: expecting rows <count>", step.Text)
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil || count < 1 {
			return nil, fmt.Errorf("%s: unreadable row count %s", step.Text, parts[1])
		}
		return cRows{count}, nil
	case "set":
		var (
			set cSet
			err error
		)
		if len(parts) == 1 {
			set.inputs, err = tableToInputs(step.Argument)
		} else {
			set.inputs, err = partsToInputs(parts[1], parts[2:])
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %s", step.Text, err)
		}
		return set, nil
	case "quick":
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s: expecting quick <type> <cell>", step.Text)
		}
		option, err := sheets.ParseQuickFormulaType(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %s", step.Text, err)
		}
		pos, err := parseAddress(parts[2])
		if err != nil {
			return nil, fmt.Errorf("%s: %s", step.Text, err)
		}
		return cQuick{option.Type, pos}, nil
	case "recalculate", "commit", "reload":
		if len(parts) != 1 {
			return nil, fmt.Errorf("%s: expecting %s alone", step.Text, parts[0])
		}
		switch parts[0] {
		case "recalculate":
			return cRecalculate{}, nil
		case "commit":
			return cCommit{}, nil
		default:
			return cReload{}, nil
		}
	case "assert":
		var (
			assert cAssert
			err    error
		)
		switch len(parts) {
		case 1:
			assert.expected, err = tableToInputs(step.Argument)
		case 2:
			return nil, fmt.Errorf("%s: missing value", step.Text)
		default:
			assert.expected, err = partsToInputs(parts[1], parts[2:])
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %s", step.Text, err)
		}
		return assert, nil
	case "assert-formula":
		if len(parts) < 3 {
			return nil, fmt.Errorf("%s: expecting assert-formula <cell> <formula>", step.Text)
		}
		pos, err := parseAddress(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %s", step.Text, err)
		}
		return cAssertFormula{pos, strings.Join(parts[2:], " ")}, nil
	case "evaluate":
		if len(parts) < 3 {
			return nil, fmt.Errorf("%s: expecting evaluate <formula> <value>", step.Text)
		}
		return cEvaluate{
			formula:  strings.Join(parts[1:len(parts)-1], " "),
			expected: parts[len(parts)-1],
		}, nil
	default:
		return nil, fmt.Errorf("wrong verb '%s': expecting verb %s", parts[0], verbs)
	}
}

func parseAddress(address string) (sheets.Position, error) {
	pos, ok := sheets.ParseCellAddress(address)
	if !ok {
		return sheets.Position{}, fmt.Errorf("invalid cell address %s", address)
	}
	return pos, nil
}

func partsToInputs(address string, rest []string) ([]cellInput, error) {
	pos, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	return []cellInput{{pos, strings.Join(rest, " ")}}, nil
}

func (cmd cSheet) run(ctx *Context) error {
	if ctx.editor != nil {
		return fmt.Errorf("sheet already created")
	}
	ctx.editor = sheets.NewEditor(sheets.NewSheet(cmd.typ, cashierID))
	return nil
}

func (cmd cRows) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	editor.AppendRows(cmd.count)
	return nil
}

func (cmd cSet) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	for _, input := range cmd.inputs {
		if err := editor.SetCell(input.pos, input.input); err != nil {
			return err
		}
	}
	return nil
}

func (cmd cQuick) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	_, err = editor.ApplyQuickFormula(cmd.typ, cmd.pos)
	return err
}

func (cmd cRecalculate) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	_, err = editor.Recalculate()
	return err
}

func (cmd cCommit) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	if ctx.Store == nil {
		editor.Commit()
		return nil
	}
	return editor.Save(ctx.Store)
}

func (cmd cReload) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	if ctx.Store == nil {
		return fmt.Errorf("no store to reload from")
	}
	if editor.HasChanges() {
		return fmt.Errorf("cannot reload with uncommitted changes")
	}
	sheet, err := ctx.Store.Load(editor.Sheet().ID)
	if err != nil {
		return err
	}
	ctx.editor = sheets.NewEditor(sheet)
	return nil
}

func (cmd cAssert) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	var diffs []string
	for _, expected := range cmd.expected {
		actual := ""
		if cell := displayCell(editor, expected.pos); cell != nil && cell.Value != nil {
			actual = *cell.Value
		}
		if actual != expected.input {
			diffs = append(diffs, fmt.Sprintf("%s: expected <%s>, was <%s>", expected.pos, expected.input, actual))
		}
	}
	if len(diffs) != 0 {
		return fmt.Errorf("%s", strings.Join(diffs, "\n"))
	}
	return nil
}

func (cmd cAssertFormula) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	actual := ""
	if cell := displayCell(editor, cmd.pos); cell != nil && cell.Formula != nil {
		actual = *cell.Formula
	}
	if actual != cmd.formula {
		return fmt.Errorf("%s: expected formula <%s>, was <%s>", cmd.pos, cmd.formula, actual)
	}
	return nil
}

func (cmd cEvaluate) run(ctx *Context) error {
	editor, err := ctx.mustHaveEditor()
	if err != nil {
		return err
	}
	result, err := editor.Lookup().Evaluate(cmd.formula)
	if err != nil {
		return err
	}
	if actual := sheets.FormatCellNumber(result, editor.Mode()); actual != cmd.expected {
		return fmt.Errorf("%s: expected <%s>, was <%s>", cmd.formula, cmd.expected, actual)
	}
	return nil
}

// displayCell returns the cell at pos as the sheet would show it, staged
// changes included.
func displayCell(editor *sheets.Editor, pos sheets.Position) *sheets.Cell {
	for _, row := range editor.DisplayRows() {
		if row.RowIndex == pos.Row {
			return row.Cell(pos.Column)
		}
	}
	return nil
}

// Context holds all that is necessary to run a scenario.
type Context struct {
	// Store, when provided, persists the sheet on commit, and is where
	// reload reads it back from. Without a store, commit applies staged
	// changes to the sheet in memory.
	Store sheets.Store

	// editor edits the sheet of the running scenario.
	editor *sheets.Editor
}

func (ctx *Context) mustHaveEditor() (*sheets.Editor, error) {
	if ctx.editor == nil {
		return nil, fmt.Errorf("sheet not yet created")
	}
	return ctx.editor, nil
}

// Scenario represents a single scenario from a .feature.
type Scenario struct {
	// Name is the scenario's name.
	Name string

	source   string
	steps    []*gherkin.Step
	commands []command
}

// Run runs the scenario using the provided context.
func (s Scenario) Run(ctx Context) error {
	ctx.editor = nil
	for i, cmd := range s.commands {
		if err := cmd.run(&ctx); err != nil {
			return niceErr(s.source, s.steps[i], err)
		}
	}
	return nil
}

func niceErr(source string, step *gherkin.Step, err error) error {
	if step.Location == nil {
		return fmt.Errorf("%s: %s: %s", source, step.Text, err)
	}
	return fmt.Errorf("%s:%d:%d: %s: %s",
		source, step.Location.Line, step.Location.Column,
		step.Text, err)
}

// ReadFeature reads a feature in gherkin syntax, and parses out all the
// scenarios contained herein.
func ReadFeature(reader io.Reader, source string) ([]Scenario, error) {
	doc, err := gherkin.ParseGherkinDocument(reader)
	if err != nil {
		return nil, err
	}

	scenarios, err := docToScenarios(doc, source)
	if err != nil {
		return nil, err
	}

	return scenarios, nil
}

// RunFeature runs a feature test.
func RunFeature(t *testing.T, filename string, opts ...Context) {
	file, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	scenarios, err := ReadFeature(bufio.NewReader(file), filename)
	if err != nil {
		t.Fatal(err)
	}

	// context
	var ctx Context
	switch len(opts) {
	case 0:
	case 1:
		ctx = opts[0]
	default:
		t.Fatalf("too many contexts provided")
	}

	// run scenarios
	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.Name, func(t *testing.T) {
			if err := scenario.Run(ctx); err != nil {
				t.Error(err)
			}
		})
	}
}

func docToScenarios(doc *gherkin.GherkinDocument, source string) ([]Scenario, error) {
	if doc.Feature == nil {
		return nil, fmt.Errorf("%s: no feature", source)
	}

	var (
		bgSteps    []*gherkin.Step
		bgCommands []command
		scenarios  []Scenario
	)
	for _, child := range doc.Feature.Children {
		switch definition := child.(type) {
		case *gherkin.Scenario:
			var commands []command
			for _, step := range definition.Steps {
				cmd, err := stepToCommand(step)
				if err != nil {
					return nil, niceErr(source, step, err)
				}
				commands = append(commands, cmd)
			}
			scenarios = append(scenarios, Scenario{
				Name:     definition.Name,
				steps:    definition.Steps,
				commands: commands,
			})
		case *gherkin.Background:
			for _, step := range definition.Steps {
				cmd, err := stepToCommand(step)
				if err != nil {
					return nil, niceErr(source, step, err)
				}
				bgCommands = append(bgCommands, cmd)
			}
			bgSteps = definition.Steps
		default:
			return nil, fmt.Errorf("%s: unknown child type %T", source, child)
		}
	}
	for i := range scenarios {
		scenarios[i].source = source
		scenarios[i].steps = append(bgSteps[:len(bgSteps):len(bgSteps)], scenarios[i].steps...)
		scenarios[i].commands = append(bgCommands[:len(bgCommands):len(bgCommands)], scenarios[i].commands...)
	}
	return scenarios, nil
}

// tableToInputs reads a two columns table of cell addresses and inputs. An
// empty input stands for an empty cell.
func tableToInputs(extra interface{}) ([]cellInput, error) {
	table := mustGetDataTable(extra)
	if table == nil {
		return nil, fmt.Errorf("must provide a data table")
	}

	var inputs []cellInput
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("must provide a table with two columns on every row")
		}
		pos, err := parseAddress(strings.TrimSpace(row.Cells[0].Value))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, cellInput{pos, row.Cells[1].Value})
	}

	return inputs, nil
}

func mustGetDataTable(extra interface{}) *gherkin.DataTable {
	table, _ := extra.(*gherkin.DataTable)
	return table
}
