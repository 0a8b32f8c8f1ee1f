package pipeline

import "fmt"

// ValidationError reports a required input that is missing or empty. It is
// detected before any side effect and always aborts the pipeline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced file that does not exist. Required
// resources make it fatal; optional ones only warn.
type NotFoundError struct {
	Resource string
	Path     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Path)
}

// ExternalToolError reports a nonzero exit from an invoked external process.
type ExternalToolError struct {
	Stage string
	Err   error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("external tool failed in stage %s: %v", e.Stage, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
