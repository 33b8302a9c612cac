// Package naming derives deterministic runtime resource names and the label
// sets used to discover those resources again across process restarts.
package naming

import (
	"strconv"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/domain"
)

const resourcePrefix = "stx-"

// Label keys. Values are opaque strings.
const (
	LabelManaged        = "local.stackify"
	LabelEnvironment    = "local.stackify.environment"
	LabelRole           = "local.stackify.role"
	LabelServiceID      = "local.stackify.service.id"
	LabelServiceType    = "local.stackify.service.type"
	LabelServiceVersion = "local.stackify.service.version"
)

// Values of LabelRole.
const (
	RoleEnvironment = "environment"
	RoleService     = "service"
)

// NetworkName returns the environment's network name.
func NetworkName(env domain.EnvironmentName) string {
	return resourcePrefix + env.String()
}

// EnvironmentContainerName returns the anchor container name. It equals the
// network name; networks and containers are separate runtime namespaces.
func EnvironmentContainerName(env domain.EnvironmentName) string {
	return resourcePrefix + env.String()
}

// ServiceContainerName returns the container name of a service instance.
func ServiceContainerName(svc domain.EnvironmentService) string {
	return svc.Name
}

// DefaultLabels builds the label set for a resource. env and svc are optional.
func DefaultLabels(env *domain.EnvironmentName, svc *domain.EnvironmentService) map[string]string {
	labels := map[string]string{LabelManaged: "true"}
	if env != nil {
		labels[LabelEnvironment] = env.String()
		labels[LabelRole] = RoleEnvironment
	}
	if svc != nil {
		labels[LabelRole] = RoleService
		labels[LabelServiceID] = strconv.FormatInt(svc.ID, 10)
		labels[LabelServiceType] = svc.Type.CLIName()
		labels[LabelServiceVersion] = svc.Version.Version
	}
	return labels
}

// EnvironmentLabels labels the network and the anchor container.
func EnvironmentLabels(env domain.EnvironmentName) map[string]string {
	return DefaultLabels(&env, nil)
}

// ServiceLabels labels a service container.
func ServiceLabels(env domain.EnvironmentName, svc domain.EnvironmentService) map[string]string {
	return DefaultLabels(&env, &svc)
}

// ManagedFilter matches everything stackify created.
func ManagedFilter() docker.Filter {
	return docker.Filter{Labels: DefaultLabels(nil, nil)}
}

// EnvironmentFilter matches every resource of env, whatever its role.
func EnvironmentFilter(env domain.EnvironmentName) docker.Filter {
	return docker.Filter{Labels: map[string]string{
		LabelManaged:     "true",
		LabelEnvironment: env.String(),
	}}
}

// RunningFilter matches the running containers of env.
func RunningFilter(env domain.EnvironmentName) docker.Filter {
	f := EnvironmentFilter(env)
	f.RunningOnly = true
	return f
}

// NetworkFilter matches env's network.
func NetworkFilter(env domain.EnvironmentName) docker.Filter {
	return EnvironmentFilter(env)
}

// AnchorFilter matches env's anchor container. Service containers of other
// environments can carry the same name, so the role and environment labels
// are part of the match.
func AnchorFilter(env domain.EnvironmentName) docker.Filter {
	f := EnvironmentFilter(env)
	f.Labels[LabelRole] = RoleEnvironment
	f.Name = EnvironmentContainerName(env)
	return f
}

// ServiceFilter matches svc's container within env.
func ServiceFilter(env domain.EnvironmentName, svc domain.EnvironmentService) docker.Filter {
	f := EnvironmentFilter(env)
	f.Labels[LabelRole] = RoleService
	f.Labels[LabelServiceID] = strconv.FormatInt(svc.ID, 10)
	f.Name = ServiceContainerName(svc)
	return f
}

// IsAnchor reports whether labels belong to an anchor container.
func IsAnchor(labels map[string]string) bool {
	return labels[LabelRole] == RoleEnvironment
}
