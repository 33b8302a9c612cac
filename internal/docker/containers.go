package docker

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

func filterArgs(f Filter) filters.Args {
	args := filters.NewArgs()
	if f.Name != "" {
		args.Add("name", "^/?"+regexp.QuoteMeta(f.Name)+"$")
	}
	for k, v := range f.Labels {
		args.Add("label", k+"="+v)
	}
	if f.RunningOnly {
		args.Add("status", StateRunning)
	}
	return args
}

// ListContainers returns all containers, running or not, matching f.
func (c *Client) ListContainers(ctx context.Context, f Filter) ([]Container, error) {
	list, err := c.inner.ContainerList(ctx, container.ListOptions{All: true, Filters: filterArgs(f)})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	out := make([]Container, 0, len(list))
	for _, s := range list {
		name := ""
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		out = append(out, Container{
			ID:     s.ID,
			Name:   name,
			Image:  s.Image,
			State:  string(s.State),
			Status: s.Status,
			Labels: s.Labels,
		})
	}
	return out, nil
}

// CreateContainer creates, but does not start, a container and returns its id.
func (c *Client) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", fmt.Errorf("container name cannot be empty")
	}
	if strings.TrimSpace(spec.Image) == "" {
		return "", fmt.Errorf("image name cannot be empty")
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Hostname:     spec.Hostname,
		User:         spec.User,
		Cmd:          spec.Cmd,
		Env:          spec.Env,
		Labels:       spec.Labels,
		ExposedPorts: nat.PortSet{},
	}
	for p := range spec.Ports {
		cfg.ExposedPorts[p] = struct{}{}
	}

	hostCfg := &container.HostConfig{
		PortBindings: spec.Ports,
	}
	for _, m := range spec.Mounts {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	var netCfg *network.NetworkingConfig
	if spec.Network != "" {
		hostCfg.NetworkMode = container.NetworkMode(spec.Network)
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				spec.Network: {Aliases: []string{spec.Name}},
			},
		}
	}

	resp, err := c.inner.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("container create: %w", err)
	}
	return resp.ID, nil
}

// StartContainer starts a created or stopped container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	if err := c.inner.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("container start: %w", err)
	}
	return nil
}

// StopContainer stops a running container. A zero timeout kills it immediately.
func (c *Client) StopContainer(ctx context.Context, id string, timeoutSeconds int) error {
	if err := c.inner.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeoutSeconds}); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("container stop: %w", err)
	}
	return nil
}

// RemoveContainer removes a container if it exists.
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("container id cannot be empty")
	}
	if err := c.inner.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove container: %w", err)
	}
	return nil
}

// ContainerLogs copies the container's demultiplexed stdout and stderr until
// the stream ends or ctx is cancelled.
func (c *Client) ContainerLogs(ctx context.Context, id string, follow bool, stdout, stderr io.Writer) error {
	reader, err := c.inner.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
	})
	if err != nil {
		return fmt.Errorf("container logs: %w", err)
	}
	defer reader.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, reader); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream container logs: %w", err)
	}
	return nil
}
