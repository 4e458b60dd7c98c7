// Package main is the storefront command-line client. The shell command
// starts an interactive session; login, logout and whoami manage the stored
// session from scripts.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/api"
	"github.com/atinyakov/storefront/internal/client/session"
	"github.com/atinyakov/storefront/internal/client/shell"
	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/logger"
)

var (
	version   string
	buildDate string
)

// cli holds the global flags and the state built from them.
type cli struct {
	configPath string
	baseURL    string
	strategy   string
	startup    string
	driver     string
	debug      bool

	opts *config.Options
	log  *logger.Logger
}

func main() {
	c := &cli{log: logger.New()}
	defer func() { _ = c.log.Log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.storefront/config.yaml)")
	cmd.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "backend API base URL")
	cmd.PersistentFlags().StringVar(&c.strategy, "strategy", "", "authentication strategy: bearer | cookie")
	cmd.PersistentFlags().StringVar(&c.startup, "startup", "", "session startup: trust-local | probe")
	cmd.PersistentFlags().StringVar(&c.driver, "storage", "", "storage driver: memory | file | redis | postgres")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	cmd.AddCommand(c.shellCmd(), c.loginCmd(), c.logoutCmd(), c.whoamiCmd(), c.versionCmd())
	return cmd
}

func (c *cli) initConfig() error {
	opts, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		opts.API.BaseURL = c.baseURL
	}
	if c.strategy != "" {
		opts.Auth.Strategy = c.strategy
	}
	if c.startup != "" {
		opts.Auth.Startup = c.startup
	}
	if c.driver != "" {
		opts.Storage.Driver = c.driver
	}
	if c.debug {
		opts.Logging.Level = "debug"
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := c.log.Init(opts.Logging.Level, opts.Logging.Format); err != nil {
		return err
	}
	c.opts = opts
	return nil
}

// withApp builds the client layer, restores the session and runs fn.
func (c *cli) withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(c.opts, c.log.Log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.log.Log.Debug("close storage", zap.Error(err))
		}
	}()
	a.session.Start(ctx)
	return fn(a)
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				prompt := shell.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				sh := shell.New(prompt, cmd.OutOrStdout(), a.session, a.cart, a.checkout, a.client, c.log.Log.Named("shell"))
				return sh.Run(cmd.Context())
			})
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				email, password, err := shell.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Credentials()
				if err != nil {
					return fmt.Errorf("failed to read credentials: %w", err)
				}
				if err := a.session.SignIn(cmd.Context(), email, password); err != nil {
					return fmt.Errorf("sign-in failed: %s", api.Message(err, err.Error()))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed in as", a.session.Session().User.Email)
				return nil
			})
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				a.session.SignOut(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(a *app) error {
				sess := a.session.Session()
				if sess.Status != session.StatusAuthenticated || sess.User == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sess.User.Email, sess.User.Role)
				return nil
			})
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Storefront client\nVersion: %s\nBuild Date: %s\nGo: %s\n",
				cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"), runtime.Version())
		},
	}
}
