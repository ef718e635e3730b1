package utils

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrorCodeUpstreamError      ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCodeNoURLFound         ErrorCode = "NO_URL_FOUND"
	ErrorCodeVideoNotFound      ErrorCode = "VIDEO_NOT_FOUND"
	ErrorCodeResolversExhausted ErrorCode = "ALL_RESOLVERS_EXHAUSTED"
	ErrorCodeStreamingFailure   ErrorCode = "STREAMING_FAILURE"
	ErrorCodeLinkUnavailable    ErrorCode = "LINK_UNAVAILABLE"
	ErrorCodeSearchFailed       ErrorCode = "SEARCH_FAILED"
	ErrorCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError    ErrorCode = "VALIDATION_ERROR"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Common error constructors
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewInvalidInputError(input string) *AppError {
	return NewErrorWithDetails(
		ErrorCodeInvalidInput,
		"The provided video identifier or URL is not in a recognized format",
		http.StatusBadRequest,
		map[string]interface{}{
			"expected_format": "11-character video id or watch/short/embed URL",
			"provided":        input,
		},
	)
}

func NewVideoNotFoundError(videoID string) *AppError {
	return NewError(
		ErrorCodeVideoNotFound,
		fmt.Sprintf("No video found for identifier %s", videoID),
		http.StatusNotFound,
	)
}

func NewResolversExhaustedError() *AppError {
	// Per-resolver failure details stay in the server logs; callers only get
	// a generic retry-able message.
	return NewError(
		ErrorCodeResolversExhausted,
		"Could not download media from any source",
		http.StatusInternalServerError,
	)
}

func NewSearchError(err error) *AppError {
	return NewError(
		ErrorCodeSearchFailed,
		"Failed to search videos",
		http.StatusInternalServerError,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
