package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/afero"

	"github.com/stackify/cli/internal/catalog"
	"github.com/stackify/cli/internal/config"
	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/orchestrator"
	"github.com/stackify/cli/internal/output"
	"github.com/stackify/cli/internal/pterm"
	"github.com/stackify/cli/internal/retry"
	"github.com/stackify/cli/internal/store"
	"github.com/stackify/cli/internal/types"
)

// app holds what commands share. The store and the runtime are opened on
// first use and closed when the root command returns.
type app struct {
	cfg      *config.Config
	fs       afero.Fs
	pm       *pterm.PTermManager
	reporter *pterm.Reporter

	store   *store.Store
	runtime orchestrator.Runtime
	closers []func() error

	connectRuntime func(ctx context.Context, w io.Writer) (orchestrator.Runtime, func() error, error)
	confirm        func(label string) (bool, error)
}

func newApp(cfg *config.Config) *app {
	a := &app{
		cfg:     cfg,
		fs:      afero.NewOsFs(),
		pm:      pterm.NewPTermManager(output.DetectMode()),
		confirm: promptConfirm,
	}
	a.connectRuntime = func(ctx context.Context, w io.Writer) (orchestrator.Runtime, func() error, error) {
		return connectDocker(ctx, w, cfg.DockerHost, a.pm.Mode())
	}
	return a
}

// setOutput routes progress events to w.
func (a *app) setOutput(w io.Writer) {
	logger := a.pm.Logger().WithWriter(w)
	if a.cfg.Debug {
		logger.SetDebug(true)
	}
	a.reporter = pterm.NewReporter(logger)
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Default()
	if err != nil {
		s.Close()
		return nil, err
	}
	if _, err := s.Seed(ctx, c); err != nil {
		s.Close()
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *app) openRuntime(ctx context.Context, w io.Writer) (orchestrator.Runtime, error) {
	if a.runtime != nil {
		return a.runtime, nil
	}
	rt, closeFn, err := a.connectRuntime(ctx, w)
	if err != nil {
		return nil, err
	}
	a.runtime = rt
	if closeFn != nil {
		a.closers = append(a.closers, closeFn)
	}
	return rt, nil
}

func (a *app) orchestrator(ctx context.Context, w io.Writer) (*orchestrator.Orchestrator, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := a.openRuntime(ctx, w)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(rt, s, a.reporter, orchestrator.Options{
		Image:       a.cfg.RuntimeImage,
		BinDir:      a.cfg.BinDir,
		AssetsDir:   a.cfg.AssetsDir,
		StopTimeout: a.cfg.StopTimeout,
	}), nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func connectDocker(ctx context.Context, w io.Writer, host string, mode types.OutputMode) (orchestrator.Runtime, func() error, error) {
	spin := output.NewSpinnerTo(w, "Connecting to Docker", mode)
	spin.Start()
	client, err := docker.New(host)
	if err != nil {
		spin.Fail("Cannot create Docker client")
		return nil, nil, err
	}
	policy := retry.DefaultPolicy()
	policy.Retryable = docker.IsUnavailable
	if err := retry.Do(ctx, policy, "docker ping", client.Ping); err != nil {
		spin.Fail("Cannot reach the Docker daemon")
		client.Close()
		return nil, nil, err
	}
	spin.Stop()
	return client, client.Close, nil
}

func promptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation: %w", err)
	}
	return true, nil
}
