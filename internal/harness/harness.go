package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/edmsql/internal/compiler"
	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/sqlexpr"
	"github.com/roach88/edmsql/internal/store"
	"github.com/roach88/edmsql/internal/testutil"
)

// Harness runs the steps of one scenario.
type Harness struct {
	builder *querysql.Builder
	store   *store.Store // nil when the scenario has no schema
}

// Run executes a scenario and returns the result.
//
// Statement IDs are fixed to the scenario name, so traces are identical
// across runs. Scenarios with a schema execute against a fresh in-memory
// SQLite database.
//
// The returned error reports problems preparing the scenario (catalog,
// schema); failed expectations are recorded in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a context for statement execution.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	catalog, err := compiler.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	h := &Harness{
		builder: querysql.NewBuilder(catalog,
			querysql.WithContext(sqlexpr.Context{
				Dialect:       scenario.dialect(),
				CaseSensitive: scenario.CaseSensitive,
			}),
			querysql.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.Name)),
			querysql.WithPageSize(scenario.PageSize),
		),
	}

	if scenario.Schema != "" {
		st, err := openSchema(ctx, scenario.Schema)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		h.store = st
	}

	result := NewResult()
	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		event := h.runStep(ctx, scenario.stepName(i), &step.Request)
		result.AddTrace(event)
		for _, msg := range checkExpect(step.Expect, event) {
			result.AddError(fmt.Sprintf("%s: %s", event.Step, msg))
		}
	}

	slog.Debug("scenario finished", "scenario", scenario.Name, "steps", len(scenario.Steps), "pass", result.Pass)
	return result, nil
}

func openSchema(ctx context.Context, path string) (*store.Store, error) {
	ddl, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	st, err := store.Open(sqlexpr.DialectSQLite, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	if err := st.ApplySchema(ctx, string(ddl)); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return st, nil
}

// runStep compiles req and, with a store, executes it. Reads go through
// store.Read so that expanded pages are read by key.
func (h *Harness) runStep(ctx context.Context, name string, req *querysql.Request) TraceEvent {
	event := TraceEvent{Step: name, Kind: string(req.Kind)}

	stmt, err := h.builder.Build(req)
	if err != nil {
		event.Error = err.Error()
		return event
	}
	event.SQL = stmt.SQL
	event.Params = make([]string, len(stmt.Params))
	for i, p := range stmt.Params {
		event.Params[i] = p.String()
	}

	if h.store == nil {
		return event
	}
	var res *store.Result
	switch req.Kind {
	case querysql.KindSelect, querysql.KindCount:
		res, err = h.store.Read(ctx, h.builder, req)
	default:
		res, err = h.store.Execute(ctx, stmt)
	}
	if err != nil {
		event.Error = err.Error()
		return event
	}
	event.Result = res
	return event
}
