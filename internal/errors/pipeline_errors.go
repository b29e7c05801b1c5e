package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryGeneration represents failures of the text generation capability
	ErrorCategoryGeneration ErrorCategory = "GENERATION"
	// ErrorCategoryContext represents missing dependency results while composing context
	ErrorCategoryContext ErrorCategory = "CONTEXT"
	// ErrorCategoryPersistence represents failures writing artifacts or store rows
	ErrorCategoryPersistence ErrorCategory = "PERSISTENCE"
	// ErrorCategoryGraph represents task graph construction errors
	ErrorCategoryGraph ErrorCategory = "GRAPH"
	// ErrorCategoryConfiguration represents configuration errors
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryValidation represents user input validation errors
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// ErrorCategoryRun represents run-level interruptions
	ErrorCategoryRun ErrorCategory = "RUN"
)

// Kinds usable with errors.Is against any *PipelineError.
var (
	ErrCycleDetected  = stderrors.New("cycle detected")
	ErrInvalidGraph   = stderrors.New("invalid task graph")
	ErrContextMissing = stderrors.New("dependency result missing")
	ErrRunInterrupted = stderrors.New("run interrupted")
	ErrGeneration     = stderrors.New("generation failed")
	ErrPersistence    = stderrors.New("persistence failed")
	ErrConfiguration  = stderrors.New("invalid configuration")
)

// PipelineError represents a structured error with context and troubleshooting information
type PipelineError struct {
	Category        ErrorCategory
	Code            string
	Kind            error
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		sb.WriteString("\nContext:")
		for _, key := range e.contextKeys() {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, e.Context[key]))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *PipelineError) Unwrap() error {
	return e.OriginalError
}

// Is reports whether target is this error's kind
func (e *PipelineError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

func (e *PipelineError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewPipelineError creates a new pipeline error with the specified parameters
func NewPipelineError(category ErrorCategory, code, message, operation string) *PipelineError {
	return &PipelineError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithKind sets the sentinel kind matched by errors.Is
func (e *PipelineError) WithKind(kind error) *PipelineError {
	e.Kind = kind
	return e
}

// WithContext adds context information to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *PipelineError) WithTroubleshooting(steps ...string) *PipelineError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the original error to the pipeline error
func (e *PipelineError) WithOriginalError(err error) *PipelineError {
	e.OriginalError = err
	return e
}

// NewGraphError creates a new task graph error
func NewGraphError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryGraph, code, message, operation).WithKind(ErrInvalidGraph)
}

// NewValidationError creates a new validation error
func NewValidationError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryValidation, code, message, operation)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(code, message, operation string) *PipelineError {
	return NewPipelineError(ErrorCategoryConfiguration, code, message, operation).WithKind(ErrConfiguration)
}
