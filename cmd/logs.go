package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/filehub/pkg/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Access log maintenance",
}

var logsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge old access log rows and rotate log files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		result, err := newLogCleaner(cfg, db).Run(cmd.Context())
		logger.LoggerWrapper().Info("log cleanup finished",
			"rows_deleted", result.RowsDeleted,
			"files_deleted", len(result.FilesDeleted),
			"files_truncated", len(result.FilesTruncated),
		)
		return err
	},
}

func init() {
	logsCmd.AddCommand(logsCleanupCmd)
}
