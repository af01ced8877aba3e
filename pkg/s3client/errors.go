package s3client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Common errors
var (
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrObjectNotFound     = errors.New("object not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
)

var notFoundCodes = map[string]bool{
	"NoSuchBucket": true,
	"NoSuchKey":    true,
	"NotFound":     true,
}

var authCodes = map[string]bool{
	"AccessDenied":                 true,
	"InvalidAccessKeyId":           true,
	"SignatureDoesNotMatch":        true,
	"AuthorizationHeaderMalformed": true,
}

// transientCodes are S3 error codes worth retrying
var transientCodes = map[string]bool{
	"RequestTimeout":         true,
	"RequestTimeTooSkewed":   true,
	"InternalError":          true,
	"SlowDown":               true,
	"OperationAborted":       true,
	"ServiceUnavailable":     true,
	"RequestLimitExceeded":   true,
	"BandwidthLimitExceeded": true,
	"KMSThrottlingException": true,
	"ThrottlingException":    true,
}

// Code returns the S3 error code carried by err, or "" for non-S3 errors
func Code(err error) string {
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBucketNotFound) || errors.Is(err, ErrObjectNotFound) {
		return true
	}
	if notFoundCodes[Code(err)] {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "not found") || strings.Contains(errStr, "no such")
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrPermissionDenied) {
		return true
	}
	if authCodes[Code(err)] {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "access denied") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid credential")
}

// IsTransientError reports whether retrying the call may succeed.
// Cancellation, auth and not-found failures are never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsAuthError(err) || IsNotFoundError(err) {
		return false
	}
	if code := Code(err); code != "" {
		return transientCodes[code]
	}

	lowerErr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "reset", "broken pipe", "network", "unavailable"} {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}
	return false
}

// FormatError formats an error for display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return fmt.Sprintf("S3 error: %s (code: %s)", minioErr.Message, minioErr.Code)
	}

	return err.Error()
}
