package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/domain"
	"github.com/stackify/cli/internal/naming"
)

// State is the observed state of an environment.
type State string

const (
	StateUndiscovered  State = "undiscovered"
	StateNetworkOnly   State = "network-only"
	StateAnchorCreated State = "anchor-created"
	StateAnchorRunning State = "anchor-running"
)

// Status describes what the runtime currently holds for an environment.
type Status struct {
	Environment domain.EnvironmentName
	State       State
	Network     *docker.Network
	Containers  []docker.Container
}

// Status derives the environment state from the runtime.
func (o *Orchestrator) Status(ctx context.Context, name domain.EnvironmentName) (*Status, error) {
	networks, err := o.runtime.ListNetworks(ctx, naming.NetworkFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	if len(networks) > 1 {
		return nil, &AmbiguousResourceError{Kind: KindNetwork, Environment: name.String(), Count: len(networks)}
	}
	containers, err := o.runtime.ListContainers(ctx, naming.EnvironmentFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	status := &Status{Environment: name, State: StateUndiscovered, Containers: containers}
	if len(networks) == 1 {
		status.Network = &networks[0]
		status.State = StateNetworkOnly
	}

	anchorName := naming.EnvironmentContainerName(name)
	var anchors []docker.Container
	for _, c := range containers {
		if c.Name == anchorName && naming.IsAnchor(c.Labels) {
			anchors = append(anchors, c)
		}
	}
	switch {
	case len(anchors) > 1:
		return nil, &AmbiguousResourceError{Kind: KindAnchor, Environment: name.String(), Count: len(anchors)}
	case len(anchors) == 1 && anchors[0].Running():
		status.State = StateAnchorRunning
	case len(anchors) == 1:
		status.State = StateAnchorCreated
	}
	return status, nil
}

// LogsOptions selects which logs to stream.
type LogsOptions struct {
	// Service limits output to one container name.
	Service string
	Follow  bool
}

// Logs streams the output of the environment's containers to w, one
// goroutine per container, each line prefixed with the container name.
func (o *Orchestrator) Logs(ctx context.Context, name domain.EnvironmentName, opts LogsOptions, w io.Writer) error {
	containers, err := o.runtime.ListContainers(ctx, naming.EnvironmentFilter(name))
	if err != nil {
		return fmt.Errorf("list containers: %w", err)
	}
	var selected []docker.Container
	for _, c := range containers {
		if opts.Service == "" || c.Name == opts.Service {
			selected = append(selected, c)
		}
	}
	if len(selected) == 0 {
		if opts.Service != "" {
			return fmt.Errorf("%w: container %s", ErrResourceNotFound, opts.Service)
		}
		return fmt.Errorf("%w: no containers for environment %s", ErrResourceNotFound, name)
	}

	out := &lockedWriter{w: w}
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range selected {
		g.Go(func() error {
			pw := &prefixWriter{prefix: c.Name + " | ", out: out}
			err := o.runtime.ContainerLogs(gctx, c.ID, opts.Follow, pw, pw)
			if ferr := pw.Flush(); err == nil {
				err = ferr
			}
			if err != nil {
				return fmt.Errorf("logs of %s: %w", c.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// prefixWriter emits whole lines only, each with prefix.
type prefixWriter struct {
	prefix string
	out    io.Writer
	buf    []byte
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		line := append([]byte(p.prefix), p.buf[:i+1]...)
		if _, err := p.out.Write(line); err != nil {
			return 0, err
		}
		p.buf = p.buf[i+1:]
	}
}

// Flush writes any trailing partial line.
func (p *prefixWriter) Flush() error {
	if len(p.buf) == 0 {
		return nil
	}
	line := append([]byte(p.prefix), p.buf...)
	p.buf = nil
	_, err := p.out.Write(append(line, '\n'))
	return err
}
