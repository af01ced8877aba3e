package common

import "fmt"

// InspectError wraps a failure to read or walk an image source
type InspectError struct {
	Path string
	Op   string
	Err  error
}

func (e *InspectError) Error() string {
	return fmt.Sprintf("Inspect Error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *InspectError) Unwrap() error {
	return e.Err
}

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

// S3Error wraps a failed object storage call
type S3Error struct {
	Op  string
	Key string
	Err error
}

func (e *S3Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("S3 Error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("S3 Error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *S3Error) Unwrap() error {
	return e.Err
}

func NewInspectError(path, op string, err error) error {
	return &InspectError{Path: path, Op: op, Err: err}
}

func NewConfigError(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

func NewS3Error(op, key string, err error) error {
	return &S3Error{Op: op, Key: key, Err: err}
}
