package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
)

// CopyFiles writes files into a container's filesystem in a single archive
// rooted at "/". Parent directories below the system ones are created as
// needed and every entry the archive carries is owned by uid:gid. The container does not need to be running.
func (c *Client) CopyFiles(ctx context.Context, containerID string, uid, gid int, files []File) error {
	if len(files) == 0 {
		return nil
	}
	archive, err := buildArchive(uid, gid, files)
	if err != nil {
		return err
	}
	if err := c.inner.CopyToContainer(ctx, containerID, "/", archive, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copy to container: %w", err)
	}
	return nil
}

// systemDir reports whether dir belongs to the image rather than to the
// service: "/", any top-level directory, or a second-level directory under
// /usr or /var. The archive never carries headers for these, so extraction
// leaves their ownership and mode alone; missing ones are still created.
func systemDir(dir string) bool {
	if dir == "/" || path.Dir(dir) == "/" {
		return true
	}
	parent := path.Dir(dir)
	return path.Dir(parent) == "/" && (parent == "/usr" || parent == "/var")
}

func buildArchive(uid, gid int, files []File) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	now := time.Now()

	dirs := map[string]bool{}
	for _, f := range files {
		if !path.IsAbs(f.Path) {
			return nil, fmt.Errorf("container file path %q is not absolute", f.Path)
		}
		for dir := path.Dir(path.Clean(f.Path)); !systemDir(dir); dir = path.Dir(dir) {
			dirs[dir] = true
		}
	}
	sortedDirs := make([]string, 0, len(dirs))
	for d := range dirs {
		sortedDirs = append(sortedDirs, d)
	}
	sort.Strings(sortedDirs)

	for _, d := range sortedDirs {
		hdr := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     strings.TrimPrefix(d, "/") + "/",
			Mode:     0o755,
			Uid:      uid,
			Gid:      gid,
			ModTime:  now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write archive dir %s: %w", d, err)
		}
	}

	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     strings.TrimPrefix(path.Clean(f.Path), "/"),
			Mode:     mode,
			Size:     int64(len(f.Content)),
			Uid:      uid,
			Gid:      gid,
			ModTime:  now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write archive header %s: %w", f.Path, err)
		}
		if _, err := tw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("write archive file %s: %w", f.Path, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf, nil
}
