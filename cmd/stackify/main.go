package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/stackify/cli/internal/cli"
	"github.com/stackify/cli/internal/config"
	clierrors "github.com/stackify/cli/internal/errors"
	"github.com/stackify/cli/internal/sentry"
	"github.com/stackify/cli/internal/style"
	"github.com/stackify/cli/internal/version"
)

// Set by ldflags at release time.
var (
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	version.SetBuildInfo(commit, date, builtBy)
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, clierrors.FormatSimple(clierrors.ConfigError(err)))
		return clierrors.ExitCodeConfig
	}

	if err := sentry.Initialize(cfg.SentryDSN, version.Version, version.IsRelease()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error reporting disabled: %v\n", err)
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.RecoverWithSentry(context.Background(), map[string]interface{}{"args": os.Args[1:]})

	if err := cli.Execute(cfg); err != nil {
		printError(err)
		return clierrors.ExitCodeFromError(err)
	}
	return 0
}

func printError(err error) {
	msg := clierrors.FormatSimple(err)
	var cliErr *clierrors.CLIError
	if errors.As(err, &cliErr) && cliErr.Type == clierrors.ErrorTypeInfo {
		fmt.Fprintln(os.Stderr, style.InfoStyle.Render(msg))
		return
	}
	fmt.Fprintln(os.Stderr, style.ErrorStyle.Render(msg))
}
