package cmd

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/accesslog"
	accesslogPostgres "github.com/frahmantamala/filehub/internal/accesslog/postgres"
	"github.com/frahmantamala/filehub/internal/backup"
	"github.com/frahmantamala/filehub/internal/core/datamodel"
	"github.com/frahmantamala/filehub/internal/logcleanup"
	"github.com/frahmantamala/filehub/internal/storage"
)

// initDB opens the gorm pool for the configured driver.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DatabaseDriverSQLite:
		dialector = sqlite.Open(cfg.Source)
	default:
		dialector = postgres.Open(cfg.Source)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if cfg.Driver == internal.DatabaseDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(datamodel.Models()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return db, nil
}

// sqlxDB shares the gorm pool with sqlx for hand written aggregates.
func sqlxDB(db *gorm.DB, driver string) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	name := "pgx"
	if driver == internal.DatabaseDriverSQLite {
		name = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, name), nil
}

func s3Options(cfg internal.S3Config, prefix string) storage.S3Options {
	return storage.S3Options{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UsePathStyle:    cfg.UsePathStyle,
		Prefix:          prefix,
	}
}

func newBlobStorage(cfg internal.StorageConfig) (storage.Storage, error) {
	if cfg.Driver == internal.StorageDriverS3 {
		s3, err := storage.NewS3Storage(s3Options(cfg.S3, ""))
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func newBackupService(cfg *internal.Config) (*backup.Service, error) {
	var offsite backup.OffsiteUploader
	if cfg.Backup.Offsite {
		s3, err := storage.NewS3Storage(s3Options(cfg.Storage.S3, ""))
		if err != nil {
			return nil, fmt.Errorf("offsite storage: %w", err)
		}
		offsite = s3
	}

	var notifier backup.Notifier
	if n := backup.NewSMTPNotifier(cfg.SMTP); n != nil {
		notifier = n
	}

	return backup.NewService(backup.Config{
		Dir:            cfg.Backup.Dir,
		RetentionDays:  cfg.Backup.RetentionDays,
		DumpCommand:    cfg.Backup.DumpCommand,
		DatabaseDSN:    cfg.Database.Source,
		DatabaseDriver: cfg.Database.Driver,
		UploadDir:      cfg.Storage.UploadDir,
		OffsitePrefix:  cfg.Backup.OffsitePrefix,
	}, offsite, notifier), nil
}

func newLogCleaner(cfg *internal.Config, db *gorm.DB) *logcleanup.Cleaner {
	logs := accesslog.NewService(accesslogPostgres.NewRepository(db))
	return logcleanup.NewCleaner(logcleanup.Config{
		RetentionDays: cfg.LogCleanup.RetentionDays,
		Dirs:          cfg.LogCleanup.Dirs,
		MaxFileSize:   cfg.LogCleanup.MaxFileSize,
		KeepLines:     cfg.LogCleanup.KeepLines,
	}, logs)
}
