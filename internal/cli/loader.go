package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"cuelang.org/go/cue/token"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/edmsql/internal/compiler"
	"github.com/roach88/edmsql/internal/edm"
	"github.com/roach88/edmsql/internal/filter"
	"github.com/roach88/edmsql/internal/querysql"
	"github.com/roach88/edmsql/internal/sqlexpr"
)

// EnvCaseSensitive sets the default of --case-sensitive.
const EnvCaseSensitive = "EDMSQL_NAMES_CASE_SENSITIVE"

// Error code constants - unified across all CLI commands.
// Catalog validation codes (E1xx) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeBadRequest  = "E002" // Request file unreadable, malformed or invalid
	ErrCodeNoRequests  = "E003" // No request documents found
	ErrCodeLoadFailed  = "E004" // Catalog syntax or load error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Catalog types do not resolve
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeCompile     = "E008" // Request does not fit the catalog
	ErrCodeBadValue    = "E009" // Key or value the request carries is unusable
	ErrCodeDatabase    = "E010" // Database open or execution error
)

// LoadError represents an error that occurred while loading a catalog or a
// request.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	File    string    // YAML position if available
	Line    int
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CatalogOptions holds the flags shared by commands that compile requests.
type CatalogOptions struct {
	Catalog       string
	Dialect       string
	CaseSensitive bool
	PageSize      int
}

func addCatalogFlags(cmd *cobra.Command, o *CatalogOptions) {
	cmd.Flags().StringVarP(&o.Catalog, "catalog", "c", "", "catalog file or CUE directory (required)")
	cmd.Flags().StringVarP(&o.Dialect, "dialect", "d", string(sqlexpr.DialectANSI), "SQL dialect (ansi|derby|postgres|h2|hana|sybase|mysql|sqlite)")
	cmd.Flags().BoolVar(&o.CaseSensitive, "case-sensitive", envBool(EnvCaseSensitive), "quote identifiers (default from "+EnvCaseSensitive+")")
	cmd.Flags().IntVar(&o.PageSize, "page-size", querysql.DefaultPageSize, "server-side page size")
	_ = cmd.MarkFlagRequired("catalog")
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

// context returns the query context of the flags.
func (o *CatalogOptions) context() sqlexpr.Context {
	return sqlexpr.Context{Dialect: sqlexpr.ParseDialect(o.Dialect), CaseSensitive: o.CaseSensitive}
}

// builder creates a statement builder for m configured from the flags.
func (o *CatalogOptions) builder(m *edm.Model) *querysql.Builder {
	return querysql.NewBuilder(m,
		querysql.WithContext(o.context()),
		querysql.WithPageSize(o.PageSize),
	)
}

// LoadCatalog reads, validates and resolves a catalog. Every structural
// problem is returned; loading stops at the first syntax error.
func LoadCatalog(path string) (*edm.Model, []error) {
	if _, err := os.Stat(path); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}}
	}

	doc, err := compiler.LoadDocument(path)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeLoadFailed)}
	}

	if verrs := compiler.Validate(doc); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = &LoadError{Code: ve.Code, Message: ve.Field + ": " + ve.Message, File: ve.File, Line: ve.Line}
		}
		return nil, errs
	}

	m, err := compiler.Build(doc)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeBuildFailed)}
	}
	return m, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, code string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    code,
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
			File:    compileErr.File,
			Line:    compileErr.Line,
		}
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// RequestFile is one request document read from a file.
type RequestFile struct {
	Path    string
	Index   int // position of the document within the file
	Request *querysql.Request
}

// Name identifies the document in output, e.g. orders.yaml#2.
func (r RequestFile) Name() string {
	if r.Index == 0 {
		return r.Path
	}
	return fmt.Sprintf("%s#%d", r.Path, r.Index+1)
}

// LoadRequests reads request documents from files. A file may hold several
// YAML documents separated by "---"; the path "-" reads stdin.
func LoadRequests(paths []string, stdin io.Reader) ([]RequestFile, error) {
	var out []RequestFile
	for _, path := range paths {
		if path == "-" {
			reqs, err := decodeRequests(path, stdin)
			if err != nil {
				return nil, err
			}
			out = append(out, reqs...)
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("request file not found: %s", path)}
		}
		reqs, err := decodeRequests(path, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, reqs...)
	}
	if len(out) == 0 {
		return nil, &LoadError{Code: ErrCodeNoRequests, Message: "no requests found"}
	}
	return out, nil
}

func decodeRequests(path string, r io.Reader) ([]RequestFile, error) {
	var out []RequestFile
	dec := yaml.NewDecoder(r)
	for i := 0; ; i++ {
		var req querysql.Request
		err := dec.Decode(&req)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadRequest, Message: fmt.Sprintf("%s: %v", path, err)}
		}
		out = append(out, RequestFile{Path: path, Index: i, Request: &req})
	}
}

// requestErrorCode classifies an error from building a request.
func requestErrorCode(err error) string {
	switch {
	case querysql.IsRequestError(err), filter.IsFilterError(err):
		return ErrCodeBadRequest
	case sqlexpr.IsClientError(err):
		return ErrCodeBadValue
	case sqlexpr.Code(err) != "":
		return ErrCodeCompile
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return ErrCodeBadRequest
	}
	return ErrCodeGeneric
}
