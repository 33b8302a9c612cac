package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	Version = "v1.2.3"
	SetBuildInfo("abc123", "2026-01-01", "ci")
	assert.Equal(t, "v1.2.3 (commit: abc123, built: 2026-01-01, by: ci)", GetVersion())
}

func TestIsRelease(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	tests := []struct {
		version string
		want    bool
	}{
		{"v2.6.0", true},
		{"2.10.1", true},
		{"dev", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.want, IsRelease())
		})
	}
}
