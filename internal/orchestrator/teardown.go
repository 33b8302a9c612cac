package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/domain"
	"github.com/stackify/cli/internal/naming"
)

// Down removes every runtime resource of the environment: service
// containers, then the anchor, then the network. Running containers are
// stopped without a grace period. The configuration is kept.
func (o *Orchestrator) Down(ctx context.Context, name domain.EnvironmentName) (*Result, error) {
	rctx := detach(ctx)
	containers, err := o.runtime.ListContainers(rctx, naming.EnvironmentFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	networks, err := o.runtime.ListNetworks(rctx, naming.NetworkFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	if len(networks) > 1 {
		return nil, &AmbiguousResourceError{Kind: KindNetwork, Environment: name.String(), Count: len(networks)}
	}

	result := &Result{Environment: name}
	if len(containers) == 0 && len(networks) == 0 {
		o.reporter.Success("Nothing to remove", "environment", name)
		result.NothingToDo = true
		return result, nil
	}

	for _, c := range teardownOrder(containers) {
		if err := interrupted(ctx); err != nil {
			return result, err
		}
		kind := containerKind(c)
		if c.Running() {
			o.reporter.Step("Stopping container", "name", c.Name)
			if err := o.runtime.StopContainer(rctx, c.ID, 0); err != nil {
				o.reporter.Fail("Failed to stop container", "name", c.Name, "error", err)
				return result, fmt.Errorf("stop container %s: %w", c.Name, err)
			}
		}
		o.reporter.Step("Removing container", "name", c.Name)
		if err := o.runtime.RemoveContainer(rctx, c.ID); err != nil {
			o.reporter.Fail("Failed to remove container", "name", c.Name, "error", err)
			return result, fmt.Errorf("remove container %s: %w", c.Name, err)
		}
		result.add(kind, c.Name, OutcomeRemoved)
	}

	if err := interrupted(ctx); err != nil {
		return result, err
	}
	if len(networks) == 0 {
		o.reporter.Step("Network already removed", "name", naming.NetworkName(name))
	} else {
		o.reporter.Step("Removing network", "name", networks[0].Name)
		if err := o.runtime.RemoveNetwork(rctx, networks[0].ID); err != nil {
			o.reporter.Fail("Failed to remove network", "name", networks[0].Name, "error", err)
			return result, fmt.Errorf("remove network %s: %w", networks[0].Name, err)
		}
		result.add(KindNetwork, networks[0].Name, OutcomeRemoved)
	}

	o.reporter.Success("Environment is down", "environment", name)
	return result, nil
}

// Stop stops the running containers of the environment, services first,
// and leaves them and the network in place for a later Start.
func (o *Orchestrator) Stop(ctx context.Context, name domain.EnvironmentName) (*Result, error) {
	rctx := detach(ctx)
	running, err := o.runtime.ListContainers(rctx, naming.RunningFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	result := &Result{Environment: name}
	if len(running) == 0 {
		o.reporter.Success("Nothing is running", "environment", name)
		result.NothingToDo = true
		return result, nil
	}

	timeout := int(o.opts.StopTimeout.Seconds())
	for _, c := range teardownOrder(running) {
		if err := interrupted(ctx); err != nil {
			return result, err
		}
		o.reporter.Step("Stopping container", "name", c.Name, "timeout", o.opts.StopTimeout)
		if err := o.runtime.StopContainer(rctx, c.ID, timeout); err != nil {
			o.reporter.Fail("Failed to stop container", "name", c.Name, "error", err)
			return result, fmt.Errorf("stop container %s: %w", c.Name, err)
		}
		result.add(containerKind(c), c.Name, OutcomeStopped)
	}

	o.reporter.Success("Environment stopped", "environment", name)
	return result, nil
}

// Delete takes the environment down and removes its configuration.
func (o *Orchestrator) Delete(ctx context.Context, name domain.EnvironmentName) (*Result, error) {
	result, err := o.Down(ctx, name)
	if err != nil {
		return result, err
	}
	if err := interrupted(ctx); err != nil {
		return result, err
	}
	if err := o.store.DeleteEnvironment(ctx, name); err != nil {
		return result, fmt.Errorf("delete environment %s: %w", name, err)
	}
	o.reporter.Success("Environment deleted", "environment", name)
	return result, nil
}

// teardownOrder puts service containers first and anchors last.
func teardownOrder(containers []docker.Container) []docker.Container {
	ordered := append([]docker.Container(nil), containers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !naming.IsAnchor(ordered[i].Labels) && naming.IsAnchor(ordered[j].Labels)
	})
	return ordered
}

func containerKind(c docker.Container) string {
	if naming.IsAnchor(c.Labels) {
		return KindAnchor
	}
	return KindContainer
}
