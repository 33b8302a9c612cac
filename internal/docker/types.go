package docker

import (
	"github.com/docker/go-connections/nat"
)

// State values reported for containers.
const (
	StateCreated = "created"
	StateRunning = "running"
	StateExited  = "exited"
)

// Filter selects runtime resources. Name, when set, must match exactly;
// every label must be present with the given value.
type Filter struct {
	Name        string
	Labels      map[string]string
	RunningOnly bool
}

// Container is the observed state of one container.
type Container struct {
	ID     string
	Name   string
	Image  string
	State  string
	Status string
	Labels map[string]string
}

// Running reports whether the container's state is running.
func (c Container) Running() bool {
	return c.State == StateRunning
}

// Network is the observed state of one network.
type Network struct {
	ID     string
	Name   string
	Labels map[string]string
}

// Mount is a host bind mount.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ContainerSpec holds everything needed to create a container.
type ContainerSpec struct {
	Name     string
	Hostname string
	Image    string
	User     string
	Cmd      []string
	Env      []string
	Labels   map[string]string
	Mounts   []Mount
	Ports    nat.PortMap
	// Network, when set, is the network the container is created on.
	Network string
}

// File is a byte payload destined for an absolute path inside a container.
type File struct {
	Path    string
	Content []byte
	Mode    int64
}
