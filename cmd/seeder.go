package cmd

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	authPostgres "github.com/frahmantamala/filehub/internal/auth/postgres"
	"github.com/frahmantamala/filehub/pkg/logger"
)

var (
	seedAdminUsername string
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed roles, permissions and the first administrator",
	Long:  `Create the built-in permissions and roles and make sure an administrator account holds the admin role.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		password := seedAdminPassword
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}

		result, err := authPostgres.Seed(context.Background(), db, authPostgres.SeedAdmin{
			Username:   seedAdminUsername,
			Email:      seedAdminEmail,
			Password:   password,
			BCryptCost: cfg.Security.BCryptCost,
		})
		if err != nil {
			log.Fatalf("failed to seed: %v", err)
		}

		logger.LoggerWrapper().Info("seed finished",
			"permissions", result.Permissions,
			"roles", result.Roles,
			"admin_created", result.AdminCreated,
			"admin", seedAdminUsername,
		)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminUsername, "admin-username", "admin", "administrator username")
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@filehub.local", "administrator email")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "administrator password, falls back to ADMIN_PASSWORD")
}
