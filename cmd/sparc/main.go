package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nih-sparc/sparc-client-go/pkg/client"
	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/logger"
	"github.com/nih-sparc/sparc-client-go/pkg/observability"
	"github.com/nih-sparc/sparc-client-go/pkg/registry"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings are the global flags after viper has merged SPARC_* variables
type settings struct {
	configFile string
	fromEnv    bool
	dotenvPath string
	logLevel   string
	trace      bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SPARC")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "sparc",
		Short: "SPARC client - load and connect SPARC service integrations",
		Long: `sparc resolves a SPARC client configuration from a file, the environment
or a .env file, discovers the bundled service integrations (Pennsieve,
SciCrunch, o²S²PARC) and loads them with the active profile.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("config", config.DefaultFile, "Configuration file (INI, YAML or JSON)")
	flags.Bool("env", false, "Resolve the configuration from SPARC_* environment variables")
	flags.String("dotenv", config.DefaultDotenvFile, "Dotenv file loaded with --env")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.Bool("trace", false, "Print OpenTelemetry spans to stderr")

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("env", flags.Lookup("env"))
	_ = v.BindPFlag("dotenv", flags.Lookup("dotenv"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("trace", flags.Lookup("trace"))

	load := func() settings {
		return settings{
			configFile: v.GetString("config"),
			fromEnv:    v.GetBool("env"),
			dotenvPath: v.GetString("dotenv"),
			logLevel:   v.GetString("log_level"),
			trace:      v.GetBool("trace"),
		}
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		s := load()
		cfg := logger.DefaultConfig()
		cfg.Level = s.logLevel
		if err := logger.Init(cfg); err != nil {
			return err
		}
		if s.trace {
			tc := observability.DefaultTracingConfig()
			tc.ServiceVersion = version
			return observability.InitTracing(tc)
		}
		return nil
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		return observability.Shutdown(context.Background())
	}

	root.AddCommand(
		versionCommand(),
		modulesCommand(load),
		configCommand(load),
		connectCommand(load),
	)
	return root
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sparc v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func modulesCommand(load func() settings) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the discovered service modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context(), load(), false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range c.Modules() {
				desc := ""
				if info, err := registry.GetServiceInfo(m.Path); err == nil {
					desc = info.Description
				}
				fmt.Fprintf(out, "  - %-10s %-20s %s\n", m.Name, m.Path, desc)
			}
			return nil
		},
	}
}

func configCommand(load func() settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd.Context(), load(), false)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(c.Config().Raw())
		},
	}
}

func connectCommand(load func() settings) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect every service module and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx, load(), false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, m := range c.Modules() {
				if err := registry.Connect(ctx, m.Name, m.Service); err != nil {
					failed++
					fmt.Fprintf(out, "  ✗ %s: %v\n", m.Name, err)
					logger.Error("connect failed", zap.String("module", m.Name), zap.Error(err))
					continue
				}
				fmt.Fprintf(out, "  ✓ %s\n", m.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d modules failed to connect", failed, len(c.Modules()))
			}
			return nil
		},
	}
}

func newClient(ctx context.Context, s settings, connect bool) (*client.Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []client.Option{client.WithConnect(connect)}

	if s.fromEnv {
		return client.FromEnv(ctx, config.EnvOptions{DotenvPath: s.dotenvPath}, opts...)
	}
	return client.FromFile(ctx, s.configFile, opts...)
}
