package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// Scenario is a sequence of requests compiled against one catalog, with
// expectations on the SQL, the parameters and, when a schema is given, the
// rows the statements produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the path of a CUE or YAML catalog.
	// Relative paths resolve against the scenario's base path.
	Catalog string `yaml:"catalog"`

	// Dialect selects the SQL dialect. Defaults to ansi.
	Dialect string `yaml:"dialect,omitempty"`

	// CaseSensitive quotes identifiers.
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`

	// PageSize overrides the server-side page size.
	PageSize int `yaml:"page_size,omitempty"`

	// Schema is the path of a SQL script creating the catalog's tables.
	// When set, every step is also executed against a fresh in-memory
	// SQLite database, so the dialect must be sqlite.
	Schema string `yaml:"schema,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step compiles, and possibly executes, one request.
type Step struct {
	// Name labels the step in the trace. Defaults to "step N".
	Name string `yaml:"name,omitempty"`

	Request querysql.Request `yaml:"request"`

	// Expect is checked against the step's outcome. A nil Expect only
	// requires the step to succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists the checks for one step. Unset fields are not checked.
type Expect struct {
	// SQL is the exact statement text.
	SQL string `yaml:"sql,omitempty"`

	// Params are compared by their text form, e.g. 1, ann or
	// 2024-01-02(DATE) for temporal parameters.
	Params []any `yaml:"params,omitempty"`

	// Error is a substring of the expected build or execution error.
	Error string `yaml:"error,omitempty"`

	// Rows are matched in order; each listed column must be equal, other
	// columns are ignored.
	Rows []map[string]any `yaml:"rows,omitempty"`

	RowCount     *int   `yaml:"row_count,omitempty"`
	Count        *int64 `yaml:"count,omitempty"`
	RowsAffected *int64 `yaml:"rows_affected,omitempty"`
	More         *bool  `yaml:"more,omitempty"`
}

// executes reports whether e needs the statement to run.
func (e *Expect) executes() bool {
	return e.Rows != nil || e.RowCount != nil || e.Count != nil || e.RowsAffected != nil || e.More != nil
}

// LoadScenario reads and parses a scenario YAML file. Relative catalog and
// schema paths resolve against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative catalog and schema paths against basePath.
//
// Unknown fields are rejected so that typos do not silently disable checks.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Catalog = resolve(basePath, scenario.Catalog)
	scenario.Schema = resolve(basePath, scenario.Schema)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return fmt.Errorf("catalog not found: %s", s.Catalog)
	}
	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
			return fmt.Errorf("schema not found: %s", s.Schema)
		}
		if s.dialect() != sqlexpr.DialectSQLite {
			return fmt.Errorf("schema requires dialect sqlite, got %s", s.dialect())
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Request.Kind == "" {
			return fmt.Errorf("steps[%d]: request kind is required", i)
		}
		if step.Expect != nil && step.Expect.executes() && s.Schema == "" {
			return fmt.Errorf("steps[%d]: result expectations need a schema", i)
		}
	}
	return nil
}

func (s *Scenario) dialect() sqlexpr.Dialect {
	return sqlexpr.ParseDialect(s.Dialect)
}

func (s *Scenario) stepName(i int) string {
	if name := s.Steps[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("step %d", i+1)
}
