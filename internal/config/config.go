// Package config loads server settings from built-in defaults, an optional
// TOML file, a .env file and the process environment, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Mail drivers.
const (
	MailResend = "resend"
	MailLog    = "log"
)

type Config struct {
	HTTPAddr    string   // JOURNAL_HTTP_ADDR (default ":3000")
	GRPCAddr    string   // JOURNAL_GRPC_ADDR (optional, empty = no gRPC health endpoint)
	Store       string   // JOURNAL_STORE (default "file")
	DataDir     string   // JOURNAL_DATA_DIR (default ".")
	DatabaseURL string   // JOURNAL_DATABASE_URL (required when Store is postgres)
	UploadsDir  string   // JOURNAL_UPLOADS_DIR (default "uploads")
	Secret      string   // JOURNAL_SECRET (optional, empty = random per process)
	CORSOrigins []string // JOURNAL_CORS_ORIGINS (default "*")
	NATSURL     string   // JOURNAL_NATS_URL (optional, empty = no events)

	MailDriver      string // JOURNAL_MAIL_DRIVER (default "resend")
	ResendAPIKey    string // RESEND_API_KEY
	ResendFromEmail string // RESEND_FROM_EMAIL

	SignupRate  float64 // JOURNAL_SIGNUP_RATE, requests per second per client (default 1)
	SignupBurst int     // JOURNAL_SIGNUP_BURST (default 5)

	// Sync settings
	SyncInterval    time.Duration // JOURNAL_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket    string        // JOURNAL_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint  string        // JOURNAL_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region    string        // JOURNAL_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key       string        // JOURNAL_SYNC_S3_KEY (default "devjournal/backup.jsonl")
	SyncS3AccessKey string        // JOURNAL_SYNC_S3_ACCESS_KEY (static credentials when set)
	SyncS3SecretKey string        // JOURNAL_SYNC_S3_SECRET_KEY
	SyncGitRepo     string        // JOURNAL_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile     string        // JOURNAL_SYNC_GIT_FILE (default "devjournal.jsonl")
	SyncGitBranch   string        // JOURNAL_SYNC_GIT_BRANCH (default "main")
}

// fileConfig mirrors Config for the TOML file. Durations are strings.
type fileConfig struct {
	HTTPAddr    string   `toml:"http_addr"`
	GRPCAddr    string   `toml:"grpc_addr"`
	Store       string   `toml:"store"`
	DataDir     string   `toml:"data_dir"`
	DatabaseURL string   `toml:"database_url"`
	UploadsDir  string   `toml:"uploads_dir"`
	Secret      string   `toml:"secret"`
	CORSOrigins []string `toml:"cors_origins"`
	NATSURL     string   `toml:"nats_url"`

	Mail struct {
		Driver    string `toml:"driver"`
		APIKey    string `toml:"resend_api_key"`
		FromEmail string `toml:"resend_from_email"`
	} `toml:"mail"`

	Signup struct {
		Rate  float64 `toml:"rate"`
		Burst int     `toml:"burst"`
	} `toml:"signup"`

	Sync struct {
		Interval    string `toml:"interval"`
		S3Bucket    string `toml:"s3_bucket"`
		S3Endpoint  string `toml:"s3_endpoint"`
		S3Region    string `toml:"s3_region"`
		S3Key       string `toml:"s3_key"`
		S3AccessKey string `toml:"s3_access_key"`
		S3SecretKey string `toml:"s3_secret_key"`
		GitRepo     string `toml:"git_repo"`
		GitFile     string `toml:"git_file"`
		GitBranch   string `toml:"git_branch"`
	} `toml:"sync"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		HTTPAddr:      ":3000",
		Store:         StoreFile,
		DataDir:       ".",
		UploadsDir:    "uploads",
		CORSOrigins:   []string{"*"},
		MailDriver:    MailResend,
		SignupRate:    1,
		SignupBurst:   5,
		SyncS3Region:  "us-east-1",
		SyncS3Key:     "devjournal/backup.jsonl",
		SyncGitFile:   "devjournal.jsonl",
		SyncGitBranch: "main",
	}
}

// Load builds the configuration. A .env file in the working directory is
// read if present; it never overrides variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Defaults()
	if path := os.Getenv("JOURNAL_CONFIG"); path != "" {
		if err := c.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyFile(path string) error {
	var f fileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	setString(&c.HTTPAddr, f.HTTPAddr)
	setString(&c.GRPCAddr, f.GRPCAddr)
	setString(&c.Store, f.Store)
	setString(&c.DataDir, f.DataDir)
	setString(&c.DatabaseURL, f.DatabaseURL)
	setString(&c.UploadsDir, f.UploadsDir)
	setString(&c.Secret, f.Secret)
	if len(f.CORSOrigins) > 0 {
		c.CORSOrigins = f.CORSOrigins
	}
	setString(&c.NATSURL, f.NATSURL)
	setString(&c.MailDriver, f.Mail.Driver)
	setString(&c.ResendAPIKey, f.Mail.APIKey)
	setString(&c.ResendFromEmail, f.Mail.FromEmail)
	if f.Signup.Rate > 0 {
		c.SignupRate = f.Signup.Rate
	}
	if f.Signup.Burst > 0 {
		c.SignupBurst = f.Signup.Burst
	}
	if f.Sync.Interval != "" {
		d, err := time.ParseDuration(f.Sync.Interval)
		if err != nil {
			return fmt.Errorf("config file %s: sync.interval: %w", path, err)
		}
		c.SyncInterval = d
	}
	setString(&c.SyncS3Bucket, f.Sync.S3Bucket)
	setString(&c.SyncS3Endpoint, f.Sync.S3Endpoint)
	setString(&c.SyncS3Region, f.Sync.S3Region)
	setString(&c.SyncS3Key, f.Sync.S3Key)
	setString(&c.SyncS3AccessKey, f.Sync.S3AccessKey)
	setString(&c.SyncS3SecretKey, f.Sync.S3SecretKey)
	setString(&c.SyncGitRepo, f.Sync.GitRepo)
	setString(&c.SyncGitFile, f.Sync.GitFile)
	setString(&c.SyncGitBranch, f.Sync.GitBranch)
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTPAddr = envOrDefault("JOURNAL_HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = envOrDefault("JOURNAL_GRPC_ADDR", c.GRPCAddr)
	c.Store = envOrDefault("JOURNAL_STORE", c.Store)
	c.DataDir = envOrDefault("JOURNAL_DATA_DIR", c.DataDir)
	c.DatabaseURL = envOrDefault("JOURNAL_DATABASE_URL", c.DatabaseURL)
	c.UploadsDir = envOrDefault("JOURNAL_UPLOADS_DIR", c.UploadsDir)
	c.Secret = envOrDefault("JOURNAL_SECRET", c.Secret)
	if v := os.Getenv("JOURNAL_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	c.NATSURL = envOrDefault("JOURNAL_NATS_URL", c.NATSURL)
	c.MailDriver = envOrDefault("JOURNAL_MAIL_DRIVER", c.MailDriver)
	c.ResendAPIKey = envOrDefault("RESEND_API_KEY", c.ResendAPIKey)
	c.ResendFromEmail = envOrDefault("RESEND_FROM_EMAIL", c.ResendFromEmail)

	if v := os.Getenv("JOURNAL_SIGNUP_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("JOURNAL_SIGNUP_RATE: %w", err)
		}
		c.SignupRate = r
	}
	if v := os.Getenv("JOURNAL_SIGNUP_BURST"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JOURNAL_SIGNUP_BURST: %w", err)
		}
		c.SignupBurst = b
	}
	if v := os.Getenv("JOURNAL_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JOURNAL_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	c.SyncS3Bucket = envOrDefault("JOURNAL_SYNC_S3_BUCKET", c.SyncS3Bucket)
	c.SyncS3Endpoint = envOrDefault("JOURNAL_SYNC_S3_ENDPOINT", c.SyncS3Endpoint)
	c.SyncS3Region = envOrDefault("JOURNAL_SYNC_S3_REGION", c.SyncS3Region)
	c.SyncS3Key = envOrDefault("JOURNAL_SYNC_S3_KEY", c.SyncS3Key)
	c.SyncS3AccessKey = envOrDefault("JOURNAL_SYNC_S3_ACCESS_KEY", c.SyncS3AccessKey)
	c.SyncS3SecretKey = envOrDefault("JOURNAL_SYNC_S3_SECRET_KEY", c.SyncS3SecretKey)
	c.SyncGitRepo = envOrDefault("JOURNAL_SYNC_GIT_REPO", c.SyncGitRepo)
	c.SyncGitFile = envOrDefault("JOURNAL_SYNC_GIT_FILE", c.SyncGitFile)
	c.SyncGitBranch = envOrDefault("JOURNAL_SYNC_GIT_BRANCH", c.SyncGitBranch)
	return nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("JOURNAL_DATABASE_URL is required when JOURNAL_STORE=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("JOURNAL_STORE: unknown store %q", c.Store)
	}
	switch c.MailDriver {
	case MailResend, MailLog:
	default:
		return fmt.Errorf("JOURNAL_MAIL_DRIVER: unknown driver %q", c.MailDriver)
	}
	if c.SignupRate <= 0 || c.SignupBurst <= 0 {
		return fmt.Errorf("signup rate and burst must be positive")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("JOURNAL_SYNC_INTERVAL must not be negative")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
