package dberror

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by invalid user input or operations.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents errors that might succeed on retry, for
	// example a query that ran out of its memory budget or hit its deadline.
	ErrCategoryTransient

	// ErrCategorySystem represents errors requiring administrator intervention.
	ErrCategorySystem

	// ErrCategoryData represents errors related to data corruption or integrity.
	ErrCategoryData

	// ErrCategoryConcurrency represents errors from concurrent conflicts.
	ErrCategoryConcurrency

	// ErrCategoryInternal represents a violated caller contract, such as
	// resolving an index that was never issued.
	ErrCategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategoryTransient:
		return "transient"
	case ErrCategorySystem:
		return "system"
	case ErrCategoryData:
		return "data"
	case ErrCategoryConcurrency:
		return "concurrency"
	case ErrCategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Marker sentinels. Test for them with errors.Is from
// github.com/cockroachdb/errors; they survive wrapping.
var (
	ErrOutOfMemory = errors.New("out of memory")
	ErrTimeout     = errors.New("timeout")
	ErrNotFound    = errors.New("not found")
)

const (
	CodeOutOfMemory = "OUT_OF_MEMORY"
	CodeTimeout     = "QUERY_TIMEOUT"
	CodeNotFound    = "NOT_FOUND"
	CodeInvalidPlan = "INVALID_PLAN"
	CodeExhausted   = "ID_SPACE_EXHAUSTED"
)

// DBError represents a structured engine error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "OUT_OF_MEMORY").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	Detail string

	// Hint suggests how the user might fix or work around this error.
	Hint string

	// Operation identifies the operation that was running, e.g. "Join on ?x".
	Operation string

	// Component identifies the subsystem where the error originated.
	Component string

	// Cause is the underlying error that triggered this error.
	Cause error
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// Wrap wraps an existing error with engine-specific context information.
// If the error already carries a DBError, that error is enriched with
// operation and component context (only if not already set) and the
// original chain, markers included, is returned unchanged.
func Wrap(err error, code, operation, component string) error {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return err
	}

	return errors.WithStackDepth(&DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
	}, 1)
}

// OutOfMemory reports that an allocation of requested bytes was refused
// because only left bytes remained in the budget.
func OutOfMemory(requested, left int64) error {
	e := New(ErrCategoryTransient, CodeOutOfMemory, "memory limit exceeded")
	e.Detail = fmt.Sprintf("tried to allocate %s, but only %s were left",
		humanize.IBytes(uint64(max(requested, 0))), humanize.IBytes(uint64(max(left, 0))))
	e.Hint = "raise memory.limit or make the query more selective"
	return errors.Mark(errors.WithStackDepth(e, 1), ErrOutOfMemory)
}

// Timeout reports that operation was cancelled because its deadline expired
// or its context was cancelled.
func Timeout(operation string, cause error) error {
	e := New(ErrCategoryTransient, CodeTimeout, "operation was cancelled")
	e.Operation = operation
	e.Cause = cause
	return errors.Mark(errors.WithStackDepth(e, 1), ErrTimeout)
}

// NotFound reports a lookup that violated the caller contract, such as
// resolving an identifier the component never issued.
func NotFound(component, detail string) error {
	e := New(ErrCategoryInternal, CodeNotFound, "identifier not found")
	e.Component = component
	e.Detail = detail
	return errors.Mark(errors.WithStackDepth(e, 1), ErrNotFound)
}

// Exhausted reports that component ran out of identifiers. Identifiers come
// back once the objects holding them are released.
func Exhausted(component, detail string) error {
	e := New(ErrCategoryTransient, CodeExhausted, "identifier space exhausted")
	e.Component = component
	e.Detail = detail
	return errors.WithStackDepth(e, 1)
}

// InvalidPlan reports an execution tree that cannot be evaluated.
func InvalidPlan(component, detail string) error {
	e := New(ErrCategoryUser, CodeInvalidPlan, "invalid execution tree")
	e.Component = component
	e.Detail = detail
	return errors.WithStackDepth(e, 1)
}

// CategoryOf returns the category of the first DBError in err's chain, or
// ErrCategorySystem when there is none.
func CategoryOf(err error) ErrorCategory {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Category
	}
	return ErrCategorySystem
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" || e.Component != "" {
		var ctx []string
		if e.Operation != "" {
			ctx = append(ctx, "operation: "+e.Operation)
		}
		if e.Component != "" {
			ctx = append(ctx, "component: "+e.Component)
		}
		b.WriteString(" (" + strings.Join(ctx, ", ") + ")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable rendering of err including the stack
// trace recorded when it was created.
func FormatStack(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
