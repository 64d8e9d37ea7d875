package services

import (
	"errors"
	"fmt"
	"strings"

	"mcexport/internal/queue"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails, and whether the item needs review.
// Items that fail on bad input or configuration will not succeed on retry
// without an operator looking at them.
func FailureStatus(err error) (queue.Status, bool) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return queue.StatusFailed, true
	default:
		return queue.StatusFailed, false
	}
}

// ErrorDetails summarizes a wrapped error for structured logging and
// notifications.
type ErrorDetails struct {
	Kind    string
	Message string
	Hint    string
}

// Details classifies err by its marker.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Message: err.Error()}
	switch {
	case errors.Is(err, ErrTimeout):
		details.Kind = "timeout"
		details.Hint = "raise blender.render_timeout or simplify the scene"
	case errors.Is(err, ErrExternalTool):
		details.Kind = "external_tool"
		details.Hint = "inspect blender_stdout.log and blender_stderr.log in the job directory"
	case errors.Is(err, ErrValidation):
		details.Kind = "validation"
		details.Hint = "check the source .blend file and retry with 'mcexport queue retry'"
	case errors.Is(err, ErrConfiguration):
		details.Kind = "configuration"
		details.Hint = "run 'mcexport config validate' and 'mcexport deps'"
	case errors.Is(err, ErrNotFound):
		details.Kind = "not_found"
		details.Hint = "the source or an expected output file is missing"
	default:
		details.Kind = "transient"
		details.Hint = "retry the item; check disk space and permissions"
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
