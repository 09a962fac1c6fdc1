package cmd

import (
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/filehub/pkg/logger"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Database and upload backups",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Dump the database, archive uploads and prune old archives",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}
		svc, err := newBackupService(cfg)
		if err != nil {
			return err
		}

		report, err := svc.Run(cmd.Context())
		if report != nil {
			logger.LoggerWrapper().Info("backup finished",
				"success", report.Success,
				"message", report.Message,
				"removed", report.Removed,
				"duration", report.Duration,
			)
		}
		return err
	},
}

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove archives older than the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}
		svc, err := newBackupService(cfg)
		if err != nil {
			return err
		}

		removed, err := svc.CleanupOld()
		if err != nil {
			return err
		}
		logger.LoggerWrapper().Info("backup cleanup finished", "removed", removed, "retention_days", cfg.Backup.RetentionDays)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archives, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}
		svc, err := newBackupService(cfg)
		if err != nil {
			return err
		}

		archives, err := svc.List()
		if err != nil {
			return err
		}
		for _, a := range archives {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
				a.ModTime.Format("2006-01-02 15:04:05"), a.Kind, humanize.IBytes(uint64(a.Size)), a.Name)
		}
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupCleanupCmd)
	backupCmd.AddCommand(backupListCmd)
}

