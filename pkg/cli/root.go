// Package cli provides the reminda command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/harrisonrobin/reminda/pkg/config"
	"github.com/harrisonrobin/reminda/pkg/taskwarrior"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	backend    string
	logLevel   string
	now        func() time.Time
	start      func(args []string) error
}

// loadApp reads the config and applies flag overrides.
func (o *rootOptions) loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newApp(cfg, cmd.ErrOrStderr()), nil
}

// NewRootCommand creates the reminda command tree. now supplies the run
// timestamp; nil means time.Now.
func NewRootCommand(version string, now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	return newRootCommand(version, &rootOptions{now: now, start: startDetached})
}

func newRootCommand(version string, opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "reminda",
		Short: "Escalate stale reminder lists and notify about urgent tasks",
		Long: `reminda keeps one "review this list" reminder in the general list for
every watched list that grows too large or too old, then sends a single
notification summarising the tasks due today or earlier.

Run it from cron, launchd or a taskwarrior hook.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/reminda/config.yaml)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "reminders backend: taskwarrior, google or file (overrides config)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newRunCommand(opts),
		newEscalateCommand(opts),
		newDigestCommand(opts),
		newHookCommand(opts),
		newAuthCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Escalate watched lists, build the digest and notify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAll(cmd, opts)
		},
	}
}

func runAll(cmd *cobra.Command, opts *rootOptions) (err error) {
	a, err := opts.loadApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.close()) }()

	r, err := a.runner(cmd.Context(), true)
	if err != nil {
		return err
	}
	report, err := r.Run(cmd.Context(), opts.now())
	out := cmd.OutOrStdout()
	for _, o := range report.Escalations {
		fmt.Fprintln(out, o)
	}
	fmt.Fprintf(out, "%d urgent, %d inbox, notified: %t\n", report.Digest.Count, report.Digest.Inbox, report.Notified)
	a.logger.Info("script execution completed")
	return err
}

func newEscalateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "escalate",
		Short: "Only evaluate the watched lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close()) }()

			r, err := a.runner(cmd.Context(), false)
			if err != nil {
				return err
			}
			outcomes, err := r.Escalate(cmd.Context(), opts.now())
			for _, o := range outcomes {
				fmt.Fprintln(cmd.OutOrStdout(), o)
			}
			return err
		},
	}
}

func newDigestCommand(opts *rootOptions) *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print today's urgent tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close()) }()

			r, err := a.runner(cmd.Context(), send)
			if err != nil {
				return err
			}
			now := opts.now()
			d, err := r.Digest(cmd.Context(), now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if n, ok := a.composer().Compose(now, d); ok {
				fmt.Fprintln(out, n)
			} else {
				fmt.Fprintln(out, "Nothing urgent today.")
			}
			if send {
				_, err = r.Notifier.Notify(cmd.Context(), now, d)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&send, "notify", false, "also schedule the notification")
	return cmd
}

func newHookCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Run as a taskwarrior on-add or on-modify hook",
		Long: `Reads the hooked tasks from stdin, echoes the final one back as the hook
protocol requires, and starts "reminda run" in the background.

Install it as ~/.task/hooks/on-modify.reminda:

  #!/bin/sh
  exec reminda hook "$@"`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			twTasks, err := taskwarrior.NewClient().ParseTasks(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("error parsing tasks from stdin: %w", err)
			}
			if len(twTasks) == 0 {
				return nil
			}
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(twTasks[len(twTasks)-1]); err != nil {
				return fmt.Errorf("error encoding task to stdout: %w", err)
			}
			return opts.start(opts.runArgs())
		},
	}
}

// runArgs repeats the persistent flags for a child "run".
func (o *rootOptions) runArgs() []string {
	args := []string{"run"}
	if o.configPath != "" {
		args = append(args, "--config", o.configPath)
	}
	if o.backend != "" {
		args = append(args, "--backend", o.backend)
	}
	if o.logLevel != "" {
		args = append(args, "--log-level", o.logLevel)
	}
	return args
}

// startDetached launches this executable with args without waiting for it.
func startDetached(args []string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not find self: %w", err)
	}
	cmd := exec.Command(self, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start background run: %w", err)
	}
	return cmd.Process.Release()
}

func newAuthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Tasks and Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close()) }()
			authn, err := a.authenticator()
			if err != nil {
				return err
			}
			if err := authn.Reset(); err != nil {
				return err
			}
			if _, _, err := a.googleServices(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", authn.TokenPath())
			return nil
		},
	}
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := opts.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-general NAME",
		Short: "Set the list escalation reminders are created in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			cfg.GeneralList = args[0]
			if err := config.Save(opts.configPath, cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "General list set to: %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func (o *rootOptions) resolvedConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.GetConfigPath()
}

func writeYAML(w io.Writer, cfg *config.Config) error {
	b, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
