package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	CatalogOptions
	Database string
	Schema   string // SQL script applied before the requests
}

// RunResult is the output form of one executed request.
type RunResult struct {
	Request string        `json:"request"`
	SQL     string        `json:"sql"`
	Result  *store.Result `json:"result"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run --catalog <catalog> --db <dsn> <request.yaml>...",
		Short: "Execute requests against a database",
		Long: `Compile requests and execute them, in order, against a database.

The dialect selects the driver: sqlite (file path or :memory:), postgres
(lib/pq connection string) or mysql (go-sql-driver DSN). Reads return their
rows; writes report the affected row count. Execution stops at the first
failing request.

Example:
  edmsql run -c ./shop.yaml -d sqlite --db ./shop.db orders.yaml
  edmsql run -c ./shop.yaml -d sqlite --db :memory: --schema shop.sql seed.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequests(opts, args, cmd)
		},
	}

	addCatalogFlags(cmd, &opts.CatalogOptions)
	cmd.Flags().StringVar(&opts.Database, "db", "", "database DSN (required)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "SQL script to apply before running")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRequests(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	model, loadErrs := LoadCatalog(opts.Catalog)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, "catalog", loadErrs)
	}
	requests, err := LoadRequests(paths, cmd.InOrStdin())
	if err != nil {
		return outputLoadErrors(formatter, "requests", []error{err})
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect := opts.context().Dialect
	st, err := store.Open(dialect, opts.Database)
	if err != nil {
		return outputRunError(formatter, ErrCodeDatabase, "", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.Schema != "" {
		ddl, err := os.ReadFile(opts.Schema)
		if err != nil {
			return outputRunError(formatter, ErrCodeNotFound, opts.Schema, err)
		}
		if err := st.ApplySchema(ctx, string(ddl)); err != nil {
			return outputRunError(formatter, ErrCodeDatabase, opts.Schema, err)
		}
		formatter.VerboseLog("Applied schema %s", opts.Schema)
	}

	b := opts.builder(model)
	results := make([]RunResult, 0, len(requests))
	for _, rf := range requests {
		stmt, err := b.Build(rf.Request)
		if err != nil {
			return outputRunError(formatter, requestErrorCode(err), rf.Name(), err)
		}
		formatter.VerboseLog("%s: %s", rf.Name(), stmt.SQL)

		res, err := execute(ctx, st, b, rf.Request, stmt)
		if err != nil {
			return outputRunError(formatter, ErrCodeDatabase, rf.Name(), err)
		}
		results = append(results, RunResult{Request: rf.Name(), SQL: stmt.SQL, Result: res})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		printResult(formatter, r)
	}
	return nil
}

// execute runs reads through store.Read, which pages expanded selects by
// key, and writes as compiled.
func execute(ctx context.Context, st *store.Store, b *querysql.Builder, req *querysql.Request, stmt *querysql.Statement) (*store.Result, error) {
	if req.Kind == querysql.KindSelect || req.Kind == querysql.KindCount {
		return st.Read(ctx, b, req)
	}
	return st.Execute(ctx, stmt)
}

func printResult(formatter *OutputFormatter, r RunResult) {
	w := formatter.Writer
	res := r.Result
	switch res.Kind {
	case querysql.KindSelect:
		more := ""
		if res.More {
			more = ", more available"
		}
		fmt.Fprintf(w, "-- %s: %d row(s)%s\n", r.Request, len(res.Rows), more)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
		for _, row := range res.Rows {
			cells := make([]string, len(res.Columns))
			for i, col := range res.Columns {
				cells[i] = fmt.Sprint(row[col])
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		tw.Flush()
	case querysql.KindCount:
		fmt.Fprintf(w, "-- %s: count %d\n", r.Request, res.Count)
	default:
		fmt.Fprintf(w, "-- %s: %d row(s) affected\n", r.Request, res.RowsAffected)
	}
	fmt.Fprintln(w)
}

func outputRunError(formatter *OutputFormatter, code, subject string, err error) error {
	message := err.Error()
	if subject != "" {
		message = subject + ": " + message
	}
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, code, err)
}
