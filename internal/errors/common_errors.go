package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Common error codes
const (
	// Graph error codes
	CodeGraphInvalid = "001"
	CodeGraphCycle   = "002"

	// Context error codes
	CodeContextMissing = "001"

	// Generation error codes
	CodeGenerationFailed = "001"
	CodeGenerationEmpty  = "002"

	// Persistence error codes
	CodePersistenceArtifact = "001"
	CodePersistenceStore    = "002"

	// Configuration / validation error codes
	CodeValidationInput  = "001"
	CodeValidationConfig = "002"

	// Run error codes
	CodeRunInterrupted = "001"
)

// NewCycleDetectedError creates an error for a dependency cycle found while ordering tasks
func NewCycleDetectedError(path []string) *PipelineError {
	msg := "Task graph contains a dependency cycle"
	if len(path) > 0 {
		msg = fmt.Sprintf("Task graph contains a dependency cycle: %s", strings.Join(path, " -> "))
	}
	return NewPipelineError(ErrorCategoryGraph, CodeGraphCycle, msg, "Task graph construction").
		WithKind(ErrCycleDetected).
		WithContext("cycle", strings.Join(path, " -> ")).
		WithTroubleshooting(
			"Remove one of the dependencies listed in the cycle",
			"Run 'prodcrew order' to inspect the planned execution order",
		)
}

// NewInvalidGraphError creates an error for a malformed task definition
func NewInvalidGraphError(taskID, reason string) *PipelineError {
	return NewGraphError(CodeGraphInvalid,
		fmt.Sprintf("Invalid task definition '%s': %s", taskID, reason),
		"Task graph construction").
		WithContext("task", taskID)
}

// NewContextMissingError creates an error for a dependency whose result is not recorded yet
func NewContextMissingError(taskID, dependencyID string) *PipelineError {
	return NewPipelineError(ErrorCategoryContext, CodeContextMissing,
		fmt.Sprintf("Task '%s' requires the result of '%s' but none was recorded", taskID, dependencyID),
		"Context aggregation").
		WithKind(ErrContextMissing).
		WithContext("task", taskID).
		WithContext("dependency", dependencyID).
		WithTroubleshooting(
			"The execution order does not respect the declared dependencies",
			"Rebuild the graph with taskgraph.NewGraph so it is validated and ordered",
		)
}

// NewGenerationError creates an error for a failed generation call
func NewGenerationError(taskID string, originalErr error) *PipelineError {
	return NewPipelineError(ErrorCategoryGeneration, CodeGenerationFailed,
		fmt.Sprintf("Generation failed for task '%s'", taskID),
		"Executor invocation").
		WithKind(ErrGeneration).
		WithContext("task", taskID).
		WithOriginalError(originalErr)
}

// NewPersistenceError creates an error for an artifact or store write
func NewPersistenceError(code, target string, originalErr error) *PipelineError {
	return NewPipelineError(ErrorCategoryPersistence, code,
		fmt.Sprintf("Failed to persist %s", target),
		"Run persistence").
		WithKind(ErrPersistence).
		WithContext("target", target).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check that the output directory exists and is writable",
			"Check free disk space",
		)
}

// NewRunInterruptedError creates an error for a run stopped before all tasks executed
func NewRunInterruptedError(executed, total int, cause error) *PipelineError {
	return NewPipelineError(ErrorCategoryRun, CodeRunInterrupted,
		fmt.Sprintf("Run interrupted after %d of %d tasks", executed, total),
		"Task graph execution").
		WithKind(ErrRunInterrupted).
		WithContext("executed", executed).
		WithContext("total", total).
		WithOriginalError(cause)
}

// NewValidationFailedError creates an error for input validation failures
func NewValidationFailedError(field, value, operation string) *PipelineError {
	return NewValidationError(CodeValidationInput,
		fmt.Sprintf("Invalid value for %s: '%s'", field, value),
		operation).
		WithContext("field", field).
		WithContext("value", value).
		WithTroubleshooting(
			"Check the command syntax and parameter values",
			"Use --help to see available options and examples",
		)
}

// IsFatal reports whether err must abort a run. Only missing context and graph
// construction errors do; everything else degrades to a recorded result.
func IsFatal(err error) bool {
	var pErr *PipelineError
	if !stderrors.As(err, &pErr) {
		return false
	}
	return pErr.Category == ErrorCategoryContext || pErr.Category == ErrorCategoryGraph
}

// GetErrorSeverity returns the severity level of an error
func GetErrorSeverity(err error) string {
	var pErr *PipelineError
	if stderrors.As(err, &pErr) {
		switch pErr.Category {
		case ErrorCategoryValidation, ErrorCategoryConfiguration, ErrorCategoryPersistence:
			return "WARNING"
		case ErrorCategoryContext, ErrorCategoryGraph:
			return "CRITICAL"
		default:
			return "ERROR"
		}
	}
	return "ERROR"
}
