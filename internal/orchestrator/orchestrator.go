// Package orchestrator brings environments up and tears them down. It keeps
// no state between invocations: every command re-discovers the runtime
// resources it owns through their labels.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/domain"
)

// Runtime is the container runtime surface the orchestrator drives.
type Runtime interface {
	ListContainers(ctx context.Context, f docker.Filter) ([]docker.Container, error)
	ListNetworks(ctx context.Context, f docker.Filter) ([]docker.Network, error)
	CreateNetwork(ctx context.Context, name string, labels map[string]string) (string, error)
	RemoveNetwork(ctx context.Context, id string) error
	CreateContainer(ctx context.Context, spec docker.ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string, timeoutSeconds int) error
	RemoveContainer(ctx context.Context, id string) error
	ConnectNetwork(ctx context.Context, networkID, containerID string, aliases []string) error
	CopyFiles(ctx context.Context, containerID string, uid, gid int, files []docker.File) error
	ContainerLogs(ctx context.Context, id string, follow bool, stdout, stderr io.Writer) error
	IsRootless(ctx context.Context) (bool, error)
}

// ConfigStore is the configuration the orchestrator reads.
type ConfigStore interface {
	LoadEnvironment(ctx context.Context, name domain.EnvironmentName) (*domain.Environment, error)
	ListServiceTypeFiles(ctx context.Context, t domain.ServiceType) ([]domain.ServiceFile, error)
	ListServiceFileOverrides(ctx context.Context, serviceID int64) ([]domain.ServiceFile, error)
	DeleteEnvironment(ctx context.Context, name domain.EnvironmentName) error
}

// Container paths of the shared mounts.
const (
	BinMountPath        = "/stackify/bin"
	EntrypointMountPath = "/entrypoint.sh"
)

// Options configures an Orchestrator.
type Options struct {
	// Image is the runtime image every container is created from.
	Image string
	// BinDir is the host directory holding service binaries.
	BinDir string
	// AssetsDir holds one "<service-type>/entrypoint.sh" per service type.
	AssetsDir string
	// StopTimeout is the grace period used by Stop.
	StopTimeout time.Duration
	// AnchorCmd keeps the anchor container alive.
	AnchorCmd []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Image:       "stackify/runtime:latest",
		StopTimeout: 10 * time.Second,
		AnchorCmd:   []string{"sleep", "infinity"},
	}
}

// Orchestrator executes lifecycle commands.
type Orchestrator struct {
	runtime  Runtime
	store    ConfigStore
	reporter Reporter
	opts     Options

	// currentUser returns the effective uid and gid of this process.
	currentUser func() (int, int)
}

// New returns an Orchestrator. A nil reporter discards progress events.
func New(runtime Runtime, store ConfigStore, reporter Reporter, opts Options) *Orchestrator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	defaults := DefaultOptions()
	if opts.Image == "" {
		opts.Image = defaults.Image
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaults.StopTimeout
	}
	if len(opts.AnchorCmd) == 0 {
		opts.AnchorCmd = defaults.AnchorCmd
	}
	return &Orchestrator{
		runtime:  runtime,
		store:    store,
		reporter: reporter,
		opts:     opts,
		currentUser: func() (int, int) {
			return os.Geteuid(), os.Getegid()
		},
	}
}

// runUser is the uid:gid containers run as and copied files are owned by.
type runUser struct {
	uid, gid int
}

func (u runUser) String() string {
	return fmt.Sprintf("%d:%d", u.uid, u.gid)
}

// resolveUser returns root for a rootless daemon and the effective ids of
// this process otherwise.
func (o *Orchestrator) resolveUser(ctx context.Context) (runUser, error) {
	rootless, err := o.runtime.IsRootless(ctx)
	if err != nil {
		return runUser{}, fmt.Errorf("query runtime info: %w", err)
	}
	if rootless {
		return runUser{}, nil
	}
	uid, gid := o.currentUser()
	return runUser{uid: uid, gid: gid}, nil
}

// detach keeps runtime calls running to completion after ctx is canceled.
// Callers check ctx.Err() between steps instead.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return nil
}
