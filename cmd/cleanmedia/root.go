package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/cleanmedia/pkg/config"
)

// cli carries state shared by the subcommands.
type cli struct {
	envFiles []string
	cfg      AppConfig
	log      *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "cleanmedia",
		Short: "Clean the filenames of existing media attachments",
		Long: `cleanmedia renames uploaded media files to clean, URL-safe names and
updates the attachment records that point at them.

Drivers are selected with environment variables:
  STORAGE_DRIVER   local | s3
  METADATA_DRIVER  memory | postgres | mongo
  QUEUE_DRIVER     memory | redis`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if len(c.envFiles) > 0 {
				if err := config.LoadEnv(c.envFiles...); err != nil {
					return err
				}
			}
			if err := config.Load(&c.cfg); err != nil {
				return err
			}
			c.log = newLogger(c.cfg)
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "load environment from these files first")

	root.AddCommand(
		newServeCommand(c),
		newScanCommand(c),
		newRunCommand(c),
		newNameCommand(c),
		newImportCommand(c),
	)
	return root
}
