package cli

import (
	"errors"
	"fmt"

	"github.com/stackify/cli/internal/docker"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/orchestrator"
	"github.com/stackify/cli/internal/store"
)

// classify maps library errors to CLIErrors carrying a follow-up hint.
// Errors it does not recognise are returned unchanged.
func classify(err error) error {
	var (
		cliErr       *clierrors.CLIError
		ambiguous    *orchestrator.AmbiguousResourceError
		missingParam *store.MissingRequiredParameterError
		constraint   *store.MissingEpochOrVersionConstraintError
	)

	switch {
	case errors.As(err, &cliErr):
		return cliErr

	case errors.Is(err, orchestrator.ErrAlreadyRunning):
		return clierrors.InfoError(err,
			"Nothing was changed. Use 'stackify environment stop' or 'stackify environment down' before starting it again.")
	case errors.Is(err, orchestrator.ErrNoServicesDefined):
		return clierrors.InfoError(err,
			"Add one with 'stackify service add <environment> --type bitcoin-miner --version <version>', or pass --allow-empty.")

	case errors.As(err, &ambiguous):
		return clierrors.ConflictError(err, fmt.Sprintf(
			"Another process may have raced this one. Inspect the resources with\n"+
				"  docker ps -a --filter label=local.stackify.environment=%[1]s\n"+
				"  docker network ls --filter label=local.stackify.environment=%[1]s\n"+
				"and remove the duplicates by hand; stackify will not pick one for you.", ambiguous.Environment))

	case errors.As(err, &missingParam):
		return clierrors.PreconditionError(err, fmt.Sprintf(
			"Set it with 'stackify service set-param %s %s %s <value>'.",
			missingParam.Environment, missingParam.Service, missingParam.Param))
	case errors.As(err, &constraint):
		return clierrors.PreconditionError(err, fmt.Sprintf(
			"Check the timeline with 'stackify environment show %s' and the versions with 'stackify catalog list'.",
			constraint.Environment))

	case errors.Is(err, store.ErrEnvironmentNotFound):
		return clierrors.NotFoundError(err, "Run 'stackify environment list' to see the configured environments.")
	case errors.Is(err, store.ErrServiceNotFound):
		return clierrors.NotFoundError(err, "Run 'stackify environment show <environment>' to see its services.")
	case errors.Is(err, store.ErrVersionNotFound):
		return clierrors.NotFoundError(err, "Run 'stackify catalog list' to see the available versions.")
	case errors.Is(err, store.ErrEpochNotFound):
		return clierrors.NotFoundError(err, "Run 'stackify epoch list' to see the known epochs.")
	case errors.Is(err, orchestrator.ErrResourceNotFound):
		return clierrors.NotFoundError(err, "Run 'stackify environment status <environment>' to see its containers.")

	case errors.Is(err, store.ErrEnvironmentExists), errors.Is(err, store.ErrEpochExists):
		return clierrors.ValidationError(err, "")
	case errors.Is(err, store.ErrUnknownParam), errors.Is(err, store.ErrUnknownFile):
		return clierrors.ValidationError(err, "Run 'stackify catalog list' to see what each service type accepts.")

	case docker.IsUnavailable(err):
		return clierrors.RuntimeErrorWithContext(err,
			"Is the Docker daemon running? Set DOCKER_HOST or docker_host in the config file if it listens elsewhere.")
	}
	return err
}
