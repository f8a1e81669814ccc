package main

import (
	"fmt"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/identity"
	"github.com/go-i2p/i2ptunnelctl/lib/router"
	"github.com/go-i2p/i2ptunnelctl/lib/tunnel"
	"github.com/go-i2p/i2ptunnelctl/lib/util"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// closerFunc adapts a shutdown function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newRootCmd() *cobra.Command {
	var (
		cfgFile     string
		envFile     string
		metricsAddr string
		a           *app
	)

	root := &cobra.Command{
		Use:           "i2ptunnelctl",
		Short:         "Generate tunnel identities and drive an external I2P router",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = loadApp(cfgFile, envFile, metricsAddr)
			if err != nil {
				return err
			}
			a.handleInterrupts()
			return a.serveMetrics()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.i2ptunnelctl/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file first")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	appFn := func() *app { return a }
	root.AddCommand(
		newKeygenCmd(appFn),
		newRouterCmd(appFn),
		newTunnelCmd(appFn),
		newStatusCmd(appFn),
		newConfigCmd(appFn),
	)
	return root
}

func newKeygenCmd(a func() *app) *cobra.Command {
	var showSecret bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a tunnel identity and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a().engine()
			if err != nil {
				return err
			}
			g := identity.NewGenerator(eng)
			kp, err := g.Generate()
			if err != nil {
				return err
			}
			if err := g.Verify(kp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, kp.Destination())
			if showSecret {
				fmt.Fprintln(out, kp.Secret())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSecret, "show-secret", false, "also print the private key file as I2P base64")
	return cmd
}

func newRouterCmd(a func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "router",
		Short: "Run the router until interrupted, then shut it down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a().engine()
			if err != nil {
				return err
			}
			h, err := router.New(eng)
			if err != nil {
				return err
			}
			util.RegisterCloser(closerFunc(func() error {
				if h.State() == router.StateTerminated {
					return nil
				}
				return h.Shutdown()
			}))

			if err := a().whileStarting(h.Run); err != nil {
				return err
			}
			alive, err := h.IsAlive()
			if err != nil {
				return err
			}
			log.WithFields(logger.Fields{
				"at":    "router",
				"alive": alive,
			}).Info("router up, waiting for interrupt")
			waitForInterrupt()
			return nil
		},
	}
}

func newTunnelCmd(a func() *app) *cobra.Command {
	var (
		host   string
		port   uint16
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:       "tunnel <http|socks|server>",
		Short:     "Start one tunnel and keep it up until interrupted",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"http", "socks", "server"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := tunnel.ParseKind(args[0])
			if err != nil {
				return err
			}
			if port == 0 {
				return oops.Errorf("--port is required")
			}
			eng, err := a().engine()
			if err != nil {
				return err
			}
			stager, err := a().staging()
			if err != nil {
				return err
			}
			ctl := tunnel.NewController(eng, stager, a().cfg.Tunnel)
			t, err := ctl.New(host, port, kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dest, ok := t.Destination(); ok {
				fmt.Fprintln(out, dest)
			}
			if dryRun {
				for _, arg := range t.Args("<staged key file>") {
					fmt.Fprintf(out, "%q\n", arg)
				}
				return nil
			}
			if err := a().whileStarting(t.Start); err != nil {
				return err
			}
			waitForInterrupt()
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "local service host for server tunnels")
	cmd.Flags().Uint16Var(&port, "port", 0, "service port (server) or proxy port (http, socks)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the launcher arguments instead of starting")
	return cmd
}

func newConfigCmd(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a().cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(config.BuildConfigDirPath())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	return cmd
}
