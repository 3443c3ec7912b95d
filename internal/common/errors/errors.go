// Package errors provides standardized error handling for the deployment
// pipeline stages.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
	ErrCodeRepositoryNotFound  ErrorCode = "REPOSITORY_NOT_FOUND"
	ErrCodePublishFailed       ErrorCode = "PUBLISH_FAILED"
	ErrCodeUpdateFailed        ErrorCode = "UPDATE_FAILED"
	ErrCodeAttachmentFailed    ErrorCode = "ATTACHMENT_FAILED"
	ErrCodeHostingEnableFailed ErrorCode = "HOSTING_ENABLE_FAILED"
	ErrCodeVerificationTimeout ErrorCode = "VERIFICATION_TIMEOUT"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeRevisionConflict    ErrorCode = "REVISION_CONFLICT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewGenerationFailedError marks a generation-service call or response-shape
// failure. The generator degrades this to a sentinel artifact; the error form
// exists for logging and metrics.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Generation service call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRepositoryNotFoundError marks an update against a repository that does
// not exist. Distinct from generic update failure by contract.
func NewRepositoryNotFoundError(repoName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRepositoryNotFound,
		Message:   "Repository not found",
		Details:   fmt.Sprintf("repository: %s", repoName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPublishFailedError marks any remote repository operation failure during
// first-round publishing.
func NewPublishFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePublishFailed,
		Message:   "Repository publish failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpdateFailedError marks any fetch/generation/commit failure during a
// revision round other than repository-not-found.
func NewUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpdateFailed,
		Message:   "Repository update failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentFailedError marks a per-file decode or write failure. Isolated:
// never fatal to the surrounding batch.
func NewAttachmentFailedError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentFailed,
		Message:   "Attachment processing failed",
		Details:   fmt.Sprintf("attachment: %s, error: %s", name, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHostingEnableFailedError marks a hosting-enable call failure. Logged
// only; the publish result is still success.
func NewHostingEnableFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHostingEnableFailed,
		Message:   "Static hosting enable failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVerificationTimeoutError marks a deployment that never became observably
// live within the polling budget.
func NewVerificationTimeoutError(pagesURL string, deadline time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerificationTimeout,
		Message:   "Deployment verification timed out",
		Details:   fmt.Sprintf("url: %s, deadline: %s", pagesURL, deadline),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError marks exhausted callback retries.
func NewNotificationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Evaluator callback delivery failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRevisionConflictError marks an optimistic-concurrency update whose
// supplied revision id was stale.
func NewRevisionConflictError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRevisionConflict,
		Message:   "File revision id is stale",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodePublishFailed, ErrCodeUpdateFailed, ErrCodeRevisionConflict:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GENERATION"):
		return "GENERATION"
	case strings.Contains(codeStr, "REPOSITORY") || strings.Contains(codeStr, "PUBLISH") ||
		strings.Contains(codeStr, "UPDATE") || strings.Contains(codeStr, "REVISION"):
		return "REPOSITORY"
	case strings.Contains(codeStr, "ATTACHMENT"):
		return "ATTACHMENT"
	case strings.Contains(codeStr, "HOSTING") || strings.Contains(codeStr, "VERIFICATION"):
		return "DEPLOYMENT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
