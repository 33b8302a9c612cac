package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		file        string
		wantErr     bool
		wantImage   string
		wantHost    string
		wantTimeout time.Duration
		wantDebug   bool
	}{
		{
			name:        "defaults",
			envVars:     map[string]string{"STACKIFY_HOME": "/data"},
			wantImage:   defaultRuntimeImage,
			wantTimeout: defaultStopTimeout,
		},
		{
			name:    "config file",
			envVars: map[string]string{"STACKIFY_HOME": "/data"},
			file: `
docker_host: unix:///run/user/1000/docker.sock
runtime_image: example/runtime:1
stop_timeout: 30s
debug: true
`,
			wantImage:   "example/runtime:1",
			wantHost:    "unix:///run/user/1000/docker.sock",
			wantTimeout: 30 * time.Second,
			wantDebug:   true,
		},
		{
			name: "environment wins over file",
			envVars: map[string]string{
				"STACKIFY_HOME":          "/data",
				"STACKIFY_RUNTIME_IMAGE": "example/runtime:2",
				"STACKIFY_STOP_TIMEOUT":  "1s",
				"DOCKER_HOST":            "tcp://docker:2375",
				"STACKIFY_DEBUG":         "false",
			},
			file:        "runtime_image: example/runtime:1\nstop_timeout: 30s\ndebug: true\n",
			wantImage:   "example/runtime:2",
			wantHost:    "tcp://docker:2375",
			wantTimeout: time.Second,
			wantDebug:   false,
		},
		{
			name:    "invalid timeout",
			envVars: map[string]string{"STACKIFY_HOME": "/data", "STACKIFY_STOP_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "invalid file",
			envVars: map[string]string{"STACKIFY_HOME": "/data"},
			file:    "stop_timeout: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.file != "" {
				require.NoError(t, afero.WriteFile(fs, "/data/config.yaml", []byte(tt.file), 0o600))
			}

			cfg, err := LoadFrom(fs, func(k string) string { return tt.envVars[k] })
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, "/data", cfg.Home)
			assert.Equal(t, "/data/stackify.db", cfg.DBPath)
			assert.Equal(t, "/data/bin", cfg.BinDir)
			assert.Equal(t, tt.wantImage, cfg.RuntimeImage)
			assert.Equal(t, tt.wantHost, cfg.DockerHost)
			assert.Equal(t, tt.wantTimeout, cfg.StopTimeout)
			assert.Equal(t, tt.wantDebug, cfg.Debug)
		})
	}
}
