package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Irfan430/wp-bot/internal/config"
)

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Take a one-off backup of the configured data store",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()

			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}

			storage, err := openStorage(cfg.Database)
			if err != nil {
				return err
			}
			defer storage.Close()

			path, err := storage.Backup(cfg.Database.BackupRetain)
			if err != nil {
				return err
			}
			fmt.Printf("backup written to %s\n", path)
			return nil
		},
	}
}
