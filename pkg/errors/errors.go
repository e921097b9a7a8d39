// Package errors defines the error taxonomy for the ledger ingestion
// pipeline. Every failure carries a category, a code, optional context and
// a suggestion, and maps to a process exit code so the CLI can surface
// failures without string matching.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors.
type ErrorCategory string

const (
	// CategoryStructural covers directory/file/schema shape failures
	// detected before any parsing starts. Always fatal for the run.
	CategoryStructural ErrorCategory = "structural"
	// CategoryParse covers rows that match a format but violate a
	// semantic rule. Fails the whole file, never silently skipped.
	CategoryParse ErrorCategory = "parse"
	// CategoryValidation covers field-level value failures.
	CategoryValidation ErrorCategory = "validation"
	// CategoryReference covers unresolvable natural keys, such as a
	// transaction naming an account that was never imported.
	CategoryReference ErrorCategory = "reference"
	// CategoryStorage covers ledger persistence failures.
	CategoryStorage ErrorCategory = "storage"
	// CategoryInternal covers unexpected conditions.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories.
type ErrorCode string

const (
	// Structural errors
	CodeDirectoryMissing ErrorCode = "directory_missing"
	CodeFileMissing      ErrorCode = "file_missing"
	CodeBadFileName      ErrorCode = "bad_file_name"
	CodeSchemaMismatch   ErrorCode = "schema_mismatch"

	// Parse errors
	CodeInvalidFormat    ErrorCode = "invalid_format"
	CodeMutuallyExclusive ErrorCode = "mutually_exclusive"
	CodeInvalidData      ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Reference errors
	CodeUnknownAccount     ErrorCode = "unknown_account"
	CodeUnknownInstitution ErrorCode = "unknown_institution"

	// Storage errors
	CodeQueryFailed ErrorCode = "query_failed"
	CodeTxFailed    ErrorCode = "tx_failed"
	CodeMigration   ErrorCode = "migration_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// LedgerError is the base error type for all application errors.
type LedgerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error.
func (e *LedgerError) GetExitCode() int {
	switch e.Category {
	case CategoryStructural:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryReference:
		return 4
	case CategoryStorage:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error.
func (e *LedgerError) WithSuggestion(suggestion string) *LedgerError {
	e.Suggestion = suggestion
	return e
}

// stackTracer interface for extracting stack traces.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new LedgerError.
func New(category ErrorCategory, code ErrorCode, message string) *LedgerError {
	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with LedgerError context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// StructuralError creates an error for invalid directory/file structure.
// These are detected by the pre-flight validators and abort the run.
func StructuralError(code ErrorCode, path, detail string) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeDirectoryMissing:
		message = fmt.Sprintf("source directory %s is not a directory or does not exist", path)
		suggestion = "check the --source-dir path"
	case CodeFileMissing:
		message = fmt.Sprintf("required file or directory %s is missing", detail)
		suggestion = "check the expected directory layout in the command help"
	case CodeBadFileName:
		message = fmt.Sprintf("invalid file name in %s: %s", path, detail)
		suggestion = "transaction files must be named <AccountID>_<YYYY>-<MM>[-<DD>].csv"
	case CodeSchemaMismatch:
		message = fmt.Sprintf("unexpected columns in %s: %s", path, detail)
		suggestion = "verify the file has the required column headers"
	default:
		message = fmt.Sprintf("invalid source structure at %s: %s", path, detail)
		suggestion = "check the directory layout and file formats"
	}

	return New(CategoryStructural, code, message).
		WithSuggestion(suggestion).
		WithContext("path", path)
}

// RowError creates an error for a row that matched a format but violated a
// semantic rule. A RowError fails the whole file.
func RowError(code ErrorCode, file string, row int, field, value string, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeMutuallyExclusive:
		message = fmt.Sprintf("row %d in %s: columns are mutually exclusive (%s='%s')", row, file, field, value)
		suggestion = "a row may carry either a credit or a debit amount, not both"
	case CodeInvalidData:
		message = fmt.Sprintf("row %d in %s: invalid value for %s: '%s'", row, file, field, value)
		suggestion = "correct the value or remove the row"
	case CodeInvalidFormat:
		message = fmt.Sprintf("row %d in %s: unrecognized format (%s='%s')", row, file, field, value)
		suggestion = "check that the file matches the institution's export format"
	default:
		message = fmt.Sprintf("row %d in %s: parse failure", row, file)
		suggestion = "check the row contents"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("row", row).
		WithContext("field", field)
}

// ValidationError creates a field-level validation error.
func ValidationError(code ErrorCode, field string, value interface{}, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "amounts must be decimal numbers such as '12.34'"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ReferenceError creates an error for an unresolvable natural key.
func ReferenceError(code ErrorCode, key string) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeUnknownAccount:
		message = fmt.Sprintf("transaction references unknown account '%s'", key)
		suggestion = "import accounts before importing transactions"
	case CodeUnknownInstitution:
		message = fmt.Sprintf("unsupported institution '%s'", key)
		suggestion = "supported institutions: TDCanada, KOHO"
	default:
		message = fmt.Sprintf("unresolvable reference '%s'", key)
		suggestion = "check that the referenced entity exists"
	}

	return New(CategoryReference, code, message).
		WithSuggestion(suggestion).
		WithContext("key", key)
}

// StorageError creates a ledger persistence error.
func StorageError(code ErrorCode, operation string, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeQueryFailed:
		message = fmt.Sprintf("ledger query failed during %s", operation)
		suggestion = "check the database file and permissions"
	case CodeTxFailed:
		message = fmt.Sprintf("ledger transaction failed during %s", operation)
		suggestion = "the chunk was rolled back; re-run the import"
	case CodeMigration:
		message = fmt.Sprintf("schema migration failed during %s", operation)
		suggestion = "check that the database file is not corrupted"
	default:
		message = fmt.Sprintf("storage error during %s", operation)
		suggestion = "check the database and try again"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryStorage, code, message)
	} else {
		result = New(CategoryStorage, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error.
func InternalError(operation string, err error) *LedgerError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsLedgerError checks if an error is a LedgerError.
func IsLedgerError(err error) bool {
	_, ok := err.(*LedgerError)
	return ok
}

// AsLedgerError extracts a LedgerError from an error chain.
func AsLedgerError(err error) (*LedgerError, bool) {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a LedgerError.
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	if ledgerErr, ok := AsLedgerError(err); ok {
		return ledgerErr
	}

	return Wrap(err, category, code, message)
}

// ExitCode returns the exit code for any error, defaulting to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ledgerErr, ok := AsLedgerError(err); ok {
		return ledgerErr.GetExitCode()
	}
	return 1
}

// FormatForUser renders an error the way the CLI shows it.
func FormatForUser(err error) string {
	ledgerErr, ok := AsLedgerError(err)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", ledgerErr.Message)
	if ledgerErr.Suggestion != "" {
		fmt.Fprintf(&b, "Suggestion: %s\n", ledgerErr.Suggestion)
	}
	return b.String()
}
