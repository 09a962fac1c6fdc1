package internal

import (
	"os"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func validConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{Source: "file::memory:"},
		Security: SecurityConfig{SessionSecret: strings.Repeat("s", 32)},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = ginkgo.Describe("Config", func() {
	ginkgo.Describe("ApplyDefaults", func() {
		ginkgo.It("fills the documented defaults", func() {
			// Given
			cfg := &Config{}

			// When
			cfg.ApplyDefaults()

			// Then
			gomega.Expect(cfg.Server.Port).To(gomega.Equal(5000))
			gomega.Expect(cfg.Database.Driver).To(gomega.Equal(DatabaseDriverPostgres))
			gomega.Expect(cfg.Security.SessionDuration).To(gomega.Equal(24 * time.Hour))
			gomega.Expect(cfg.Security.RememberDuration).To(gomega.Equal(7 * 24 * time.Hour))
			gomega.Expect(cfg.Storage.MaxUploadSize).To(gomega.Equal(DefaultMaxUploadSize))
			gomega.Expect(cfg.Backup.RetentionDays).To(gomega.Equal(30))
			gomega.Expect(cfg.LogCleanup.RetentionDays).To(gomega.Equal(90))
			gomega.Expect(cfg.LogCleanup.KeepLines).To(gomega.Equal(1000))
		})

		ginkgo.It("keeps values that are already set", func() {
			cfg := &Config{Server: ServerConfig{Port: 8080}, Backup: BackupConfig{RetentionDays: 7}}

			cfg.ApplyDefaults()

			gomega.Expect(cfg.Server.Port).To(gomega.Equal(8080))
			gomega.Expect(cfg.Backup.RetentionDays).To(gomega.Equal(7))
		})
	})

	ginkgo.Describe("Validate", func() {
		ginkgo.It("accepts a defaulted config", func() {
			gomega.Expect(validConfig().Validate()).To(gomega.Succeed())
		})

		ginkgo.It("rejects a short session secret", func() {
			cfg := validConfig()
			cfg.Security.SessionSecret = "short"

			err := cfg.Validate()

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("session secret"))
		})

		ginkgo.It("rejects an unknown database driver", func() {
			cfg := validConfig()
			cfg.Database.Driver = "mysql"

			gomega.Expect(cfg.Validate()).To(gomega.MatchError(gomega.ContainSubstring("unsupported driver")))
		})

		ginkgo.It("requires a bucket for s3 storage", func() {
			cfg := validConfig()
			cfg.Storage.Driver = StorageDriverS3

			gomega.Expect(cfg.Validate()).To(gomega.MatchError(gomega.ContainSubstring("s3.bucket")))
		})

		ginkgo.It("collects every failing section", func() {
			cfg := validConfig()
			cfg.Database.Source = ""
			cfg.Security.BCryptCost = 4

			err := cfg.Validate()

			gomega.Expect(err.Error()).To(gomega.ContainSubstring("database config"))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("security config"))
		})
	})

	ginkgo.Describe("Origins", func() {
		ginkgo.It("splits and trims the origin list", func() {
			s := ServerConfig{AllowedOrigins: "http://a.test, http://b.test ,"}

			gomega.Expect(s.Origins()).To(gomega.Equal([]string{"http://a.test", "http://b.test"}))
		})

		ginkgo.It("returns nil when unset", func() {
			gomega.Expect((&ServerConfig{}).Origins()).To(gomega.BeNil())
		})
	})

	ginkgo.Describe("SMTPConfig", func() {
		ginkgo.It("is enabled only when fully configured", func() {
			cfg := SMTPConfig{Host: "smtp.test", Port: 587, User: "u", Password: "p", Recipient: "ops@test"}
			gomega.Expect(cfg.Enabled()).To(gomega.BeTrue())

			cfg.Recipient = ""
			gomega.Expect(cfg.Enabled()).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("LoadConfigFromEnv", func() {
		ginkgo.AfterEach(func() {
			os.Unsetenv("PORT")
			os.Unsetenv("LOG_DIRS")
			os.Unsetenv("BACKUP_OFFSITE")
		})

		ginkgo.It("reads overrides from the environment", func() {
			os.Setenv("PORT", "9090")
			os.Setenv("LOG_DIRS", "/a, /b")
			os.Setenv("BACKUP_OFFSITE", "true")

			cfg := LoadConfigFromEnv()

			gomega.Expect(cfg.Server.Port).To(gomega.Equal(9090))
			gomega.Expect(cfg.LogCleanup.Dirs).To(gomega.Equal([]string{"/a", "/b"}))
			gomega.Expect(cfg.Backup.Offsite).To(gomega.BeTrue())
		})
	})
})
