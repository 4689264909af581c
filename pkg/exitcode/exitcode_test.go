package exitcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodesAreStable(t *testing.T) {
	// Scripts match on these numbers.
	assert.Equal(t, 0, Success)
	assert.Equal(t, 1, GeneralError)
	assert.Equal(t, 2, ConfigError)
	assert.Equal(t, 3, ValidationError)
	assert.Equal(t, 4, FileSystemError)
	assert.Equal(t, 6, PermissionError)
	assert.Equal(t, 8, UnsupportedFormat)
}

func TestString(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{Success, "ok"},
		{GeneralError, "run failed"},
		{ConfigError, "invalid configuration"},
		{ValidationError, "manifest invalid or out of date"},
		{FileSystemError, "asset root or manifest file unavailable"},
		{PermissionError, "permission denied"},
		{UnsupportedFormat, "unsupported manifest format"},
		{5, "unknown exit code"},
		{999, "unknown exit code"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.code), "code %d", tt.code)
	}
}
