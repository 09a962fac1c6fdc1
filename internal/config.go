package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Backup        BackupConfig        `mapstructure:"backup"`
	LogCleanup    LogCleanupConfig    `mapstructure:"log_cleanup"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type SecurityConfig struct {
	SessionSecret    string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionDuration  time.Duration `mapstructure:"session_duration"`
	RememberDuration time.Duration `mapstructure:"remember_duration"`
	BCryptCost       int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	CookieName       string        `mapstructure:"cookie_name"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
}

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// DefaultMaxUploadSize is 250MB.
const DefaultMaxUploadSize int64 = 262144000

type StorageConfig struct {
	Driver        string   `mapstructure:"driver" validate:"oneof=local s3"`
	UploadDir     string   `mapstructure:"upload_dir"`
	MaxUploadSize int64    `mapstructure:"max_upload_size"`
	S3            S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type BackupConfig struct {
	Dir           string `mapstructure:"dir"`
	RetentionDays int    `mapstructure:"retention_days"`
	DumpCommand   string `mapstructure:"dump_command"`
	Offsite       bool   `mapstructure:"offsite"`
	OffsitePrefix string `mapstructure:"offsite_prefix"`
}

type LogCleanupConfig struct {
	RetentionDays int      `mapstructure:"retention_days"`
	Dirs          []string `mapstructure:"dirs"`
	MaxFileSize   int64    `mapstructure:"max_file_size"`
	KeepLines     int      `mapstructure:"keep_lines"`
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Recipient string `mapstructure:"recipient"`
}

// Enabled reports whether every field needed to send mail is set.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port > 0 && c.User != "" && c.Password != "" && c.Recipient != ""
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- DEFAULTS -----------------

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.OpenAPIPath == "" {
		c.Server.OpenAPIPath = "./api/openapi.yml"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DatabaseDriverPostgres
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Security.SessionDuration == 0 {
		c.Security.SessionDuration = 24 * time.Hour
	}
	if c.Security.RememberDuration == 0 {
		c.Security.RememberDuration = 7 * 24 * time.Hour
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = "filehub_session"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverLocal
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "/app/uploads"
	}
	if c.Storage.MaxUploadSize == 0 {
		c.Storage.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "auto"
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = "/backups"
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 30
	}
	if c.Backup.DumpCommand == "" {
		c.Backup.DumpCommand = "pg_dump"
	}
	if c.Backup.OffsitePrefix == "" {
		c.Backup.OffsitePrefix = "backups"
	}
	if c.LogCleanup.RetentionDays == 0 {
		c.LogCleanup.RetentionDays = 90
	}
	if len(c.LogCleanup.Dirs) == 0 {
		c.LogCleanup.Dirs = []string{"/app/logs", "/var/log/nginx"}
	}
	if c.LogCleanup.MaxFileSize == 0 {
		c.LogCleanup.MaxFileSize = 100 * 1024 * 1024
	}
	if c.LogCleanup.KeepLines == 0 {
		c.LogCleanup.KeepLines = 1000
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// LoadConfigFromEnv builds the configuration purely from environment variables.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 5000),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", ""),
			OpenAPIPath:       getEnv("OPENAPI_PATH", "./api/openapi.yml"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 120*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DATABASE_DRIVER", DatabaseDriverPostgres),
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     getEnvAsBool("DATABASE_AUTO_MIGRATE", false),
		},
		Security: SecurityConfig{
			SessionSecret:    getEnv("SECRET_KEY", ""),
			SessionDuration:  getEnvAsDuration("SESSION_DURATION", 24*time.Hour),
			RememberDuration: getEnvAsDuration("REMEMBER_DURATION", 7*24*time.Hour),
			BCryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			CookieName:       getEnv("SESSION_COOKIE_NAME", "filehub_session"),
			CookieSecure:     getEnvAsBool("SESSION_COOKIE_SECURE", true),
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", StorageDriverLocal),
			UploadDir:     getEnv("UPLOAD_FOLDER", "/app/uploads"),
			MaxUploadSize: int64(getEnvAsInt("MAX_CONTENT_LENGTH", int(DefaultMaxUploadSize))),
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "auto"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				UsePathStyle:    getEnvAsBool("S3_USE_PATH_STYLE", true),
			},
		},
		Backup: BackupConfig{
			Dir:           getEnv("BACKUP_DIR", "/backups"),
			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
			DumpCommand:   getEnv("BACKUP_DUMP_COMMAND", "pg_dump"),
			Offsite:       getEnvAsBool("BACKUP_OFFSITE", false),
			OffsitePrefix: getEnv("BACKUP_OFFSITE_PREFIX", "backups"),
		},
		LogCleanup: LogCleanupConfig{
			RetentionDays: getEnvAsInt("LOG_RETENTION_DAYS", 90),
			Dirs:          getEnvAsList("LOG_DIRS", []string{"/app/logs", "/var/log/nginx"}),
			MaxFileSize:   int64(getEnvAsInt("LOG_MAX_FILE_SIZE", 100*1024*1024)),
			KeepLines:     getEnvAsInt("LOG_KEEP_LINES", 1000),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_SERVER", ""),
			Port:      getEnvAsInt("SMTP_PORT", 0),
			User:      getEnv("SMTP_USER", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			Recipient: getEnv("BACKUP_EMAIL", ""),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Backup.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("backup config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins returns the trimmed allowed origin list.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver != DatabaseDriverPostgres && c.Driver != DatabaseDriverSQLite {
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.SessionDuration <= 0 || c.RememberDuration <= 0 {
		return errors.New("session durations must be positive")
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case StorageDriverLocal:
		if c.UploadDir == "" {
			return errors.New("upload_dir is required for local storage")
		}
	case StorageDriverS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("max_upload_size must be positive")
	}
	return nil
}

func (c *BackupConfig) Validate() error {
	if c.RetentionDays < 1 {
		return errors.New("retention_days must be at least 1")
	}
	return nil
}
