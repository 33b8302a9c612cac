package docker

import (
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/client"
)

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return cerrdefs.IsNotFound(err)
}

// IsUnavailable reports whether err means the daemon could not be reached.
func IsUnavailable(err error) bool {
	return client.IsErrConnectionFailed(err) || cerrdefs.IsUnavailable(err)
}
