// cli defines the webstack command tree: plan, apply, destroy, status and
// converge, all operating on one stack declaration file.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/cloudmelt/webstack/internal/ec2"
	"github.com/cloudmelt/webstack/internal/log"
	"github.com/cloudmelt/webstack/internal/o11y"
)

// rootOpts are the persistent flags shared by every verb.
type rootOpts struct {
	configFile string
	stateDir   string
	logLevel   string
	logFile    string
}

// provisioner loads the stack declaration and builds the provisioner all
// verbs run against.
func (o *rootOpts) provisioner(ctx context.Context) (*ec2.Provisioner, error) {
	cfg, err := ec2.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return ec2.New(ctx, cfg, o.stateDir)
}

// Execute runs the webstack CLI.
func Execute(ctx context.Context, version string) error {
	opts := &rootOpts{}
	cleanup := func() {}
	var traceShutdown func(context.Context) error

	root := &cobra.Command{
		Use:           "webstack",
		Short:         "provision a single-instance docker web server on EC2",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx, closer, err := log.Setup(cmd.Context(), opts.logLevel, opts.logFile)
			if err != nil {
				return err
			}
			cleanup = closer

			traceShutdown, err = o11y.SetupTracing(ctx)
			if err != nil {
				clog.FromContext(ctx).Warn("tracing disabled", "error", err)
				traceShutdown = nil
			}

			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if traceShutdown != nil {
				if err := traceShutdown(cmd.Context()); err != nil {
					clog.FromContext(cmd.Context()).Warn("flushing traces", "error", err)
				}
			}
			cleanup()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "webstack.json", "stack declaration file")
	flags.StringVar(&opts.stateDir, "state-dir", defaultStateDir(), "directory for state files and SSH keys")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs as JSON to this file")

	out := root.OutOrStdout()
	root.AddCommand(
		NewCmdPlan(out, opts),
		NewCmdApply(out, opts),
		NewCmdDestroy(out, opts),
		NewCmdStatus(out, opts),
		NewCmdConverge(out, opts),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		clog.FromContext(ctx).Error("command failed", "error", err)
		return err
	}
	return nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".webstack"
	}
	return filepath.Join(home, ".webstack")
}
