package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/edmsql/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Types  int                        `json:"types"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Validate a catalog",
		Long: `Validate a CUE or YAML catalog without compiling requests.

Reports every structural problem (names, tables, keys, relationship targets)
with its code and line, then checks that related types are joinable.

Exit codes:
  0 - Catalog valid
  1 - Validation errors found
  2 - Catalog could not be read`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path))
	}
	doc, err := compiler.LoadDocument(path)
	if err != nil {
		loadErr := convertCompileError(err, ErrCodeLoadFailed)
		return outputValidateError(formatter, loadErr.Code, loadErr.Error())
	}
	for _, ts := range doc.Types {
		formatter.VerboseLog("Validating type: %s", ts.Name)
	}

	validationErrors := compiler.Validate(doc)
	if len(validationErrors) == 0 {
		if _, err := compiler.Build(doc); err != nil {
			validationErrors = append(validationErrors, buildValidationError(err))
		}
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter, len(doc.Types))
}

// buildValidationError reports a model resolution error in validation form.
func buildValidationError(err error) compiler.ValidationError {
	ve := compiler.ValidationError{Field: "catalog", Message: err.Error(), Code: ErrCodeBuildFailed}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		ve.Field, ve.Message = compileErr.Field, compileErr.Message
		ve.File, ve.Line = compileErr.File, compileErr.Line
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, types int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Types: types})
	}
	fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d type(s)\n", types)
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.File, err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
