package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/client"
)

// Client wraps the Docker SDK client with the narrow, label-filtered surface
// the orchestrator needs.
type Client struct {
	inner *client.Client
}

// New creates a Docker client from the environment, optionally overriding the host.
func New(host string) (*Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	inner, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Client{inner: inner}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.inner == nil {
		return fmt.Errorf("docker client not initialized")
	}
	ping, err := c.inner.Ping(ctx)
	if err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	if ping.APIVersion == "" {
		return fmt.Errorf("docker ping returned empty API version")
	}
	return nil
}

// IsRootless reports whether the daemon runs in rootless mode.
func (c *Client) IsRootless(ctx context.Context) (bool, error) {
	info, err := c.inner.Info(ctx)
	if err != nil {
		return false, fmt.Errorf("docker info: %w", err)
	}
	for _, opt := range info.SecurityOptions {
		if strings.Contains(opt, "name=rootless") {
			return true, nil
		}
	}
	return false, nil
}

// Close releases resources held by the Docker client.
func (c *Client) Close() error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
