package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortMapping(t *testing.T) {
	tests := []struct {
		input   string
		want    PortMapping
		wantErr bool
	}{
		{input: "18443:18443", want: PortMapping{HostPort: 18443, ContainerPort: 18443}},
		{input: "8080:80/udp", want: PortMapping{HostPort: 8080, ContainerPort: 80, Protocol: "udp"}},
		{input: "8080", wantErr: true},
		{input: "0:80", wantErr: true},
		{input: "70000:80", wantErr: true},
		{input: "80:80/sctp", wantErr: true},
		{input: "a:b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePortMapping(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortMappingString(t *testing.T) {
	assert.Equal(t, "18443:18443/tcp", PortMapping{HostPort: 18443, ContainerPort: 18443}.String())
	assert.Equal(t, "1:2/udp", PortMapping{HostPort: 1, ContainerPort: 2, Protocol: "udp"}.String())
}

func TestEnvironmentService_Param(t *testing.T) {
	svc := EnvironmentService{Params: []ServiceParam{{Key: "a", Value: "1"}}}
	v, ok := svc.Param("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = svc.Param("b")
	assert.False(t, ok)
}
