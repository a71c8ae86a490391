package gitlabapi

import (
	"errors"
	"fmt"
	"net/http"

	gitlab "github.com/xanzy/go-gitlab"
)

const operationErrorTemplateConstant = "gitlab %s failed for %s: %v"

// OperationError wraps a GitLab API failure with the operation name and subject.
type OperationError struct {
	Operation string
	Subject   string
	Err       error
}

// Error renders the operation, subject, and underlying cause.
func (operationError *OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Subject, operationError.Err)
}

// Unwrap exposes the underlying API error.
func (operationError *OperationError) Unwrap() error {
	return operationError.Err
}

func newOperationError(operationName string, subjectIdentifier string, underlyingError error) error {
	return &OperationError{Operation: operationName, Subject: subjectIdentifier, Err: underlyingError}
}

// IsNotFound reports whether the error stems from a 404 API response.
func IsNotFound(candidateError error) bool {
	var errorResponse *gitlab.ErrorResponse
	if errors.As(candidateError, &errorResponse) {
		return errorResponse.Response != nil && errorResponse.Response.StatusCode == http.StatusNotFound
	}
	return false
}
