package main

import (
	"github.com/spf13/cobra"

	"github.com/mkrupp/mediagate/internal/infra/config"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/infra/probe"
	"github.com/mkrupp/mediagate/internal/svc/admissionsvc"
)

const (
	appName      = "mediagate"
	configPrefix = "MEDIAGATE_CLI"
)

// Config holds the environment defaults of the CLI. Flags override them.
type Config struct {
	config.EnvConfig

	Log       logging.LoggerConfig         `envPrefix:"LOG_"`
	Admission admissionsvc.AdmissionConfig `envPrefix:"ADMISSION_"`
	FFprobe   probe.FFprobeConfig          `envPrefix:"FFPROBE_"`
}

type commandContext struct {
	cfg     Config
	verbose bool
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Check media files against an upload admission policy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.configure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}

func (c *commandContext) configure(cmd *cobra.Command) error {
	if err := config.Parse(cmd.Context(), &c.cfg, configPrefix); err != nil {
		return err //nolint:wrapcheck
	}

	if c.cfg.Log.OutputHandle == nil && c.cfg.Log.Output == "stderr" {
		c.cfg.Log.OutputHandle = cmd.ErrOrStderr()
	}

	if c.verbose {
		c.cfg.Log.Level = "debug"
	}

	logging.Configure(cmd.Context(), c.cfg.Log, appName)

	return nil
}
