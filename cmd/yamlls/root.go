package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yakwilikk/go-yamlls"
)

var version = "0.1.0"

// app holds what every subcommand shares.
type app struct {
	v          *viper.Viper
	configFile string
	schemas    []string
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	cmd := &cobra.Command{
		Use:   "yamlls",
		Short: "YAML language server driven by JSON schemas",
		Long: `yamlls provides completion, validation, hover and alias definitions
for YAML documents described by JSON schemas.

Run "yamlls serve" from an editor, or "yamlls validate" in CI.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./yamlls.yaml or ./.yamlls.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("workspace", "", "workspace root for relative schema paths (default: working directory)")
	flags.StringSliceVar(&a.schemas, "schema", nil, "schema applied to every document, repeatable")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("yaml.workspaceRoot", flags.Lookup("workspace"))

	cmd.AddCommand(
		newServeCmd(a),
		newValidateCmd(a),
		newCompleteCmd(a),
		newHoverCmd(a),
	)
	return cmd
}

// setup loads the configuration and returns a configured service. Schema
// load failures are logged; the affected documents get no schema.
func (a *app) setup(ctx context.Context) (*yamlls.Service, *config, *slog.Logger, error) {
	cfg, err := loadConfig(a.v, a.configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, path := range a.schemas {
		s, err := schemaSetting(path)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg.Settings.Schemas = append(cfg.Settings.Schemas, s)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}
	svc := yamlls.New(yamlls.WithLogger(logger))
	if err := svc.Configure(ctx, cfg.Settings); err != nil {
		logger.Warn("configure", "error", err)
	}
	return svc, cfg, logger, nil
}
