package orchestrator

import (
	"context"
	"fmt"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/domain"
	"github.com/stackify/cli/internal/naming"
)

// StartOptions tunes Start.
type StartOptions struct {
	// AllowEmpty starts the network and anchor of an environment without
	// services instead of failing with ErrNoServicesDefined.
	AllowEmpty bool
}

// Start realizes the environment: network, then anchor container, then
// every runnable service in order. Configuration errors and ambiguous or
// already-running state are reported before anything is mutated. Service
// failures are recorded in the result and do not stop later services.
func (o *Orchestrator) Start(ctx context.Context, name domain.EnvironmentName, opts StartOptions) (*Result, error) {
	env, err := o.store.LoadEnvironment(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load environment %s: %w", name, err)
	}
	if len(env.Services) == 0 && !opts.AllowEmpty {
		return nil, ErrNoServicesDefined
	}

	rctx := detach(ctx)
	networks, err := o.runtime.ListNetworks(rctx, naming.NetworkFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	if len(networks) > 1 {
		return nil, &AmbiguousResourceError{Kind: KindNetwork, Environment: name.String(), Count: len(networks)}
	}
	anchors, err := o.runtime.ListContainers(rctx, naming.AnchorFilter(name))
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	if len(anchors) > 1 {
		return nil, &AmbiguousResourceError{Kind: KindAnchor, Environment: name.String(), Count: len(anchors)}
	}
	if len(anchors) == 1 && anchors[0].Running() {
		return nil, ErrAlreadyRunning
	}

	user, err := o.resolveUser(rctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Environment: name}

	if err := interrupted(ctx); err != nil {
		return result, err
	}
	networkID, err := o.assertNetwork(rctx, name, networks, result)
	if err != nil {
		return result, err
	}

	if err := interrupted(ctx); err != nil {
		return result, err
	}
	anchorID, err := o.assertAnchor(rctx, name, anchors, user, result)
	if err != nil {
		return result, err
	}

	if err := interrupted(ctx); err != nil {
		return result, err
	}
	anchorName := naming.EnvironmentContainerName(name)
	o.reporter.Step("Starting anchor container", "name", anchorName)
	if err := o.runtime.StartContainer(rctx, anchorID); err != nil {
		o.reporter.Fail("Failed to start anchor container", "name", anchorName, "error", err)
		return result, fmt.Errorf("start anchor container %s: %w", anchorName, err)
	}
	result.add(KindAnchor, anchorName, OutcomeStarted)

	for _, svc := range env.Services {
		if err := interrupted(ctx); err != nil {
			return result, err
		}
		if !svc.Type.Runnable() {
			o.reporter.Warn("Skipping service, type is not supported yet", "service", svc.Name, "type", svc.Type.CLIName())
			result.skip(KindContainer, svc.Name, fmt.Sprintf("%s services cannot be run yet", svc.Type.CLIName()))
			continue
		}
		outcome, err := o.provision(ctx, env, svc, networkID, user)
		if err != nil {
			o.reporter.Fail("Failed to provision service", "service", svc.Name, "error", err)
			result.fail(KindContainer, svc.Name, err)
			continue
		}
		o.reporter.Success("Service "+string(outcome), "service", svc.Name)
		result.add(KindContainer, svc.Name, outcome)
	}

	o.reporter.Success("Environment started", "environment", name)
	return result, nil
}

func (o *Orchestrator) assertNetwork(ctx context.Context, name domain.EnvironmentName, existing []docker.Network, result *Result) (string, error) {
	networkName := naming.NetworkName(name)
	if len(existing) == 1 {
		o.reporter.Step("Reusing network", "name", existing[0].Name)
		result.add(KindNetwork, existing[0].Name, OutcomeReused)
		return existing[0].ID, nil
	}

	o.reporter.Step("Creating network", "name", networkName)
	id, err := o.runtime.CreateNetwork(ctx, networkName, naming.EnvironmentLabels(name))
	if err != nil {
		o.reporter.Fail("Failed to create network", "name", networkName, "error", err)
		return "", fmt.Errorf("create network %s: %w", networkName, err)
	}
	result.add(KindNetwork, networkName, OutcomeCreated)
	return id, nil
}

func (o *Orchestrator) assertAnchor(ctx context.Context, name domain.EnvironmentName, existing []docker.Container, user runUser, result *Result) (string, error) {
	anchorName := naming.EnvironmentContainerName(name)
	if len(existing) == 1 {
		o.reporter.Step("Reusing anchor container", "name", anchorName, "state", existing[0].State)
		return existing[0].ID, nil
	}

	o.reporter.Step("Creating anchor container", "name", anchorName)
	id, err := o.runtime.CreateContainer(ctx, docker.ContainerSpec{
		Name:     anchorName,
		Hostname: anchorName,
		Image:    o.opts.Image,
		User:     user.String(),
		Cmd:      o.opts.AnchorCmd,
		Labels:   naming.EnvironmentLabels(name),
		Network:  naming.NetworkName(name),
	})
	if err != nil {
		o.reporter.Fail("Failed to create anchor container", "name", anchorName, "error", err)
		return "", fmt.Errorf("create anchor container %s: %w", anchorName, err)
	}
	result.add(KindAnchor, anchorName, OutcomeCreated)
	return id, nil
}
