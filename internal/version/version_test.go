package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	tests := []struct {
		version  string
		target   string
		expected bool
	}{
		{"0.2.0", "0.1.0", true},
		{"0.1.0", "0.1.0", true},
		{"0.1.0", "0.2.0", false},
		{"1.0.0", "0.9.9", true},
		{"0.0.0-dev", "0.0.0-dev", true},
		{"0.0.0", "0.0.0-dev", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsVersionGreaterOrEqualThan(tt.version, tt.target),
			"%s >= %s", tt.version, tt.target)
	}
}

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, DevVersion, GetCurrentVersion("demo"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}
