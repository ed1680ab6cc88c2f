package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/edmsql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	CatalogOptions
	Output string // output file path
}

// CompiledStatement is the output form of one compiled request.
type CompiledStatement struct {
	Request string   `json:"request"`
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	SQL     string   `json:"sql"`
	Params  []string `json:"params"`
	Columns []string `json:"columns,omitempty"`
}

// CompileFailure reports a request that could not be compiled.
type CompileFailure struct {
	Request string `json:"request"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CompilationResult holds the statements of one compile run.
type CompilationResult struct {
	Dialect    string              `json:"dialect"`
	Statements []CompiledStatement `json:"statements"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile --catalog <catalog> <request.yaml>...",
		Short: "Compile requests to SQL",
		Long: `Compile YAML requests against a catalog into parameterized SQL.

Each file may hold several requests separated by "---"; "-" reads stdin.
Parameters are printed in placeholder order and never spliced into the SQL.

Example:
  edmsql compile --catalog ./shop.yaml --dialect postgres orders.yaml
  edmsql compile -c ./catalog --format json -o statements.json requests/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	addCatalogFlags(cmd, &opts.CatalogOptions)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write statements as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	model, loadErrs := LoadCatalog(opts.Catalog)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, "catalog", loadErrs)
	}
	requests, err := LoadRequests(paths, cmd.InOrStdin())
	if err != nil {
		return outputLoadErrors(formatter, "requests", []error{err})
	}
	formatter.VerboseLog("Loaded %d request(s) for %s", len(requests), opts.context().Dialect)

	b := opts.builder(model)
	result := CompilationResult{Dialect: string(opts.context().Dialect)}
	var failures []CompileFailure
	for _, rf := range requests {
		stmt, err := b.Build(rf.Request)
		if err != nil {
			failures = append(failures, CompileFailure{Request: rf.Name(), Code: requestErrorCode(err), Message: err.Error()})
			continue
		}
		result.Statements = append(result.Statements, compiledStatement(rf.Name(), stmt))
	}

	if len(failures) > 0 {
		return outputCompileFailures(formatter, failures)
	}

	if opts.Output != "" {
		if err := writeStatementsToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

func compiledStatement(name string, stmt *querysql.Statement) CompiledStatement {
	params := make([]string, len(stmt.Params))
	for i, p := range stmt.Params {
		params[i] = p.String()
	}
	return CompiledStatement{
		Request: name,
		ID:      stmt.ID,
		Kind:    string(stmt.Kind),
		SQL:     stmt.SQL,
		Params:  params,
		Columns: stmt.Columns,
	}
}

// outputCompileSuccess outputs the compiled statements.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d statement(s) for %s\n\n", len(result.Statements), result.Dialect)
	for _, s := range result.Statements {
		fmt.Fprintf(w, "-- %s (%s)\n", s.Request, s.Kind)
		fmt.Fprintln(w, s.SQL)
		if len(s.Params) > 0 {
			fmt.Fprintf(w, "   params: %s\n", strings.Join(s.Params, ", "))
		}
		fmt.Fprintln(w)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote statements to %s\n", outputFile)
	}
	return nil
}

// outputCompileFailures reports the requests that did not compile.
func outputCompileFailures(formatter *OutputFormatter, failures []CompileFailure) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   failures,
			Error:  &CLIError{Code: failures[0].Code, Message: failures[0].Message},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
		fmt.Fprintln(formatter.Writer)
		for _, f := range failures {
			fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", f.Request, f.Code, f.Message)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(failures)))
}

// outputLoadErrors reports catalog or request loading errors.
func outputLoadErrors(formatter *OutputFormatter, what string, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := parseLoadError(err)
		cliErrors[i] = CLIError{Code: code, Message: message}
	}

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Loading %s failed\n\n", what)
		for _, err := range errs {
			fmt.Fprintf(formatter.Writer, "  %v\n", err)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("loading %s failed: %s: %s", what, cliErrors[0].Code, cliErrors[0].Message))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeStatementsToFile writes the statements as indented JSON.
func writeStatementsToFile(result CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling statements: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
