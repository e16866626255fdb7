package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"studyvault/internal/bootstrap"
	"studyvault/internal/platform/config"
	"studyvault/internal/ui/theme"
)

type rootOptions struct {
	vaultPath  string
	configFile string
	asJSON     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, theme.Err.Render("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "studyvault",
		Short:         "Date-partitioned study session vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.vaultPath, "vault", "", "vault path (defaults to $STUDYVAULT_VAULT_PATH or the current directory)")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (defaults to <vault>/.studyvault/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print machine-readable JSON")

	root.AddCommand(newSessionCmd(opts))
	root.AddCommand(newMetadataCmd(opts))
	root.AddCommand(newCalendarCmd(opts))
	root.AddCommand(newReindexCmd(opts))
	root.AddCommand(newReviewCmd(opts))
	root.AddCommand(newAttachCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	vault := opts.vaultPath
	if vault == "" && os.Getenv(config.EnvPrefix+"_VAULT_PATH") == "" {
		vault = "."
	}
	return config.Load(vault, opts.configFile)
}

// withApp builds the application for one command and closes it afterwards.
func withApp(opts *rootOptions, fn func(app *bootstrap.App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireFlags(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, "--"+pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required", strings.Join(missing, ", "))
	}
	return nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				listen := addr
				if listen == "" {
					listen = app.Config.Server.Addr
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Title.Render("serving"), "http://"+listen)
				return app.Serve(ctx, listen)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration file commands"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file into the vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			vault := opts.vaultPath
			if vault == "" {
				vault = "."
			}
			path := opts.configFile
			if path == "" {
				path = config.FilePath(vault)
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.OK.Render("wrote"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}

	cfgCmd.AddCommand(initCmd, showCmd)
	return cfgCmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
