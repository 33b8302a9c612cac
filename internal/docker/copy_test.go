package docker

import (
	"archive/tar"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArchive(t *testing.T) {
	files := []File{
		{Path: "/root/.bitcoin/bitcoin.conf", Content: []byte("regtest=1\n")},
		{Path: "/etc/stackify/run.sh", Content: []byte("#!/bin/sh\n"), Mode: 0o755},
		{Path: "/home/stackify/.bitcoin/bitcoin.conf", Content: []byte("regtest=1\n")},
		{Path: "/usr/local/bin/stacks-node", Content: []byte("bin")},
	}

	buf, err := buildArchive(1000, 1000, files)
	require.NoError(t, err)

	tr := tar.NewReader(buf)
	entries := map[string]*tar.Header{}
	contents := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		entries[hdr.Name] = hdr
		if hdr.Typeflag == tar.TypeReg {
			b, err := io.ReadAll(tr)
			require.NoError(t, err)
			contents[hdr.Name] = string(b)
		}
	}

	for _, dir := range []string{"root/.bitcoin/", "etc/stackify/", "home/stackify/", "home/stackify/.bitcoin/", "usr/local/bin/"} {
		require.Contains(t, entries, dir)
		assert.Equal(t, byte(tar.TypeDir), entries[dir].Typeflag)
		assert.Equal(t, 1000, entries[dir].Uid)
	}
	for _, dir := range []string{"root/", "etc/", "home/", "usr/", "usr/local/"} {
		assert.NotContains(t, entries, dir)
	}
	assert.Equal(t, "regtest=1\n", contents["root/.bitcoin/bitcoin.conf"])
	assert.Equal(t, int64(0o644), entries["root/.bitcoin/bitcoin.conf"].Mode)
	assert.Equal(t, int64(0o755), entries["etc/stackify/run.sh"].Mode)
	assert.Equal(t, 1000, entries["etc/stackify/run.sh"].Uid)
}

func TestSystemDir(t *testing.T) {
	tests := []struct {
		dir  string
		want bool
	}{
		{"/", true},
		{"/home", true},
		{"/etc", true},
		{"/usr/local", true},
		{"/var/lib", true},
		{"/home/stackify", false},
		{"/usr/local/bin", false},
		{"/opt/stackify", false},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, systemDir(tt.dir))
		})
	}
}

func TestBuildArchiveRejectsRelativePaths(t *testing.T) {
	_, err := buildArchive(0, 0, []File{{Path: "relative/file"}})
	assert.Error(t, err)
}

func TestFilterArgs(t *testing.T) {
	args := filterArgs(Filter{
		Name:        "stx-alpha",
		Labels:      map[string]string{"local.stackify": "true"},
		RunningOnly: true,
	})
	assert.Equal(t, []string{"^/?stx-alpha$"}, args.Get("name"))
	assert.Equal(t, []string{"local.stackify=true"}, args.Get("label"))
	assert.Equal(t, []string{"running"}, args.Get("status"))
}
