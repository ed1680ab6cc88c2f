package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/edmsql/internal/store"
)

// AssertionError is a failed expectation.
type AssertionError struct {
	Type     string // what was checked: sql, params, rows, ...
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// checkExpect compares a step outcome with its expectations and returns
// one message per failure.
func checkExpect(expect *Expect, event TraceEvent) []string {
	var errs []error
	fail := func(typ, expected, actual string) {
		errs = append(errs, &AssertionError{Type: typ, Expected: expected, Actual: actual})
	}

	switch {
	case expect == nil || expect.Error == "":
		if event.Error != "" {
			fail("error", "success", event.Error)
		}
	case event.Error == "":
		fail("error", fmt.Sprintf("error containing %q", expect.Error), "success")
	case !strings.Contains(event.Error, expect.Error):
		fail("error", fmt.Sprintf("error containing %q", expect.Error), event.Error)
	}
	if expect == nil || len(errs) > 0 || event.Error != "" {
		return messages(errs)
	}

	if expect.SQL != "" && expect.SQL != event.SQL {
		fail("sql", expect.SQL, event.SQL)
	}
	if expect.Params != nil {
		if err := assertParams(expect.Params, event.Params); err != nil {
			errs = append(errs, err)
		}
	}

	if !expect.executes() {
		return messages(errs)
	}
	res := event.Result
	if res == nil {
		fail("result", "an executed statement", "no result")
		return messages(errs)
	}
	if expect.Rows != nil {
		errs = append(errs, assertRows(expect.Rows, res.Rows)...)
	}
	if expect.RowCount != nil && *expect.RowCount != len(res.Rows) {
		fail("row_count", fmt.Sprint(*expect.RowCount), fmt.Sprint(len(res.Rows)))
	}
	if expect.Count != nil && *expect.Count != res.Count {
		fail("count", fmt.Sprint(*expect.Count), fmt.Sprint(res.Count))
	}
	if expect.RowsAffected != nil && *expect.RowsAffected != res.RowsAffected {
		fail("rows_affected", fmt.Sprint(*expect.RowsAffected), fmt.Sprint(res.RowsAffected))
	}
	if expect.More != nil && *expect.More != res.More {
		fail("more", fmt.Sprint(*expect.More), fmt.Sprint(res.More))
	}
	return messages(errs)
}

func assertParams(expected []any, actual []string) error {
	want := make([]string, len(expected))
	for i, v := range expected {
		want[i] = fmt.Sprint(v)
	}
	if len(want) != len(actual) {
		return &AssertionError{Type: "params", Expected: fmt.Sprint(want), Actual: fmt.Sprint(actual)}
	}
	for i := range want {
		if want[i] != actual[i] {
			return &AssertionError{
				Type:     fmt.Sprintf("params[%d]", i),
				Expected: want[i],
				Actual:   actual[i],
			}
		}
	}
	return nil
}

// assertRows matches rows in order. Only the columns listed in an expected
// row are compared.
func assertRows(expected []map[string]any, actual []store.Row) []error {
	if len(expected) != len(actual) {
		return []error{&AssertionError{
			Type:     "rows",
			Expected: fmt.Sprintf("%d row(s)", len(expected)),
			Actual:   fmt.Sprintf("%d row(s): %v", len(actual), actual),
		}}
	}
	var errs []error
	for i, want := range expected {
		cols := make([]string, 0, len(want))
		for col := range want {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			got, ok := actual[i][col]
			if !ok {
				errs = append(errs, &AssertionError{
					Type:     fmt.Sprintf("rows[%d].%s", i, col),
					Expected: fmt.Sprint(want[col]),
					Actual:   "no such column",
				})
				continue
			}
			if !valuesEqual(got, want[col]) {
				errs = append(errs, &AssertionError{
					Type:     fmt.Sprintf("rows[%d].%s", i, col),
					Expected: fmt.Sprintf("%v", want[col]),
					Actual:   fmt.Sprintf("%v", got),
				})
			}
		}
	}
	return errs
}

// valuesEqual compares a database value with a YAML value by text, so that
// int64 1 equals 1 and float64 12.5 equals 12.5.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

func messages(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
