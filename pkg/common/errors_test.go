package common

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspectError(t *testing.T) {
	err := NewInspectError("photos/a.jpg", "open", fs.ErrNotExist)
	assert.EqualError(t, err, "Inspect Error: open photos/a.jpg: file does not exist")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var ie *InspectError
	assert.True(t, errors.As(err, &ie))
	assert.Equal(t, "photos/a.jpg", ie.Path)
}

func TestS3Error(t *testing.T) {
	cause := errors.New("timeout")
	assert.EqualError(t, NewS3Error("put", "a.json", cause), "S3 Error: put a.json: timeout")
	assert.EqualError(t, NewS3Error("connect", "", cause), "S3 Error: connect: timeout")
	assert.ErrorIs(t, NewS3Error("put", "a.json", cause), cause)
}

func TestConfigError(t *testing.T) {
	assert.EqualError(t, NewConfigError("workers must be positive, got %d", -1),
		"Configuration Error: workers must be positive, got -1")
}
