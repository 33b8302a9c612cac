package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/network"
)

// ListNetworks returns networks matching f. Name matching is exact.
func (c *Client) ListNetworks(ctx context.Context, f Filter) ([]Network, error) {
	args := filterArgs(Filter{Labels: f.Labels})
	list, err := c.inner.NetworkList(ctx, network.ListOptions{Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	out := make([]Network, 0, len(list))
	for _, n := range list {
		// The daemon's name filter is a substring match.
		if f.Name != "" && n.Name != f.Name {
			continue
		}
		out = append(out, Network{ID: n.ID, Name: n.Name, Labels: n.Labels})
	}
	return out, nil
}

// CreateNetwork creates a bridge network and returns its id.
func (c *Client) CreateNetwork(ctx context.Context, name string, labels map[string]string) (string, error) {
	resp, err := c.inner.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
		Labels: labels,
	})
	if err != nil {
		return "", fmt.Errorf("network create: %w", err)
	}
	return resp.ID, nil
}

// RemoveNetwork removes a network if it exists.
func (c *Client) RemoveNetwork(ctx context.Context, id string) error {
	if err := c.inner.NetworkRemove(ctx, id); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("network remove: %w", err)
	}
	return nil
}

// ConnectNetwork attaches a container to a network under the given aliases.
func (c *Client) ConnectNetwork(ctx context.Context, networkID, containerID string, aliases []string) error {
	if err := c.inner.NetworkConnect(ctx, networkID, containerID, &network.EndpointSettings{Aliases: aliases}); err != nil {
		return fmt.Errorf("network connect: %w", err)
	}
	return nil
}
