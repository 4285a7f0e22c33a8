package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnvVars = []string{
	"JOURNAL_CONFIG", "JOURNAL_HTTP_ADDR", "JOURNAL_GRPC_ADDR", "JOURNAL_STORE",
	"JOURNAL_DATA_DIR", "JOURNAL_DATABASE_URL", "JOURNAL_UPLOADS_DIR", "JOURNAL_SECRET",
	"JOURNAL_CORS_ORIGINS", "JOURNAL_NATS_URL", "JOURNAL_MAIL_DRIVER",
	"RESEND_API_KEY", "RESEND_FROM_EMAIL", "JOURNAL_SIGNUP_RATE", "JOURNAL_SIGNUP_BURST",
	"JOURNAL_SYNC_INTERVAL", "JOURNAL_SYNC_S3_BUCKET", "JOURNAL_SYNC_S3_ENDPOINT",
	"JOURNAL_SYNC_S3_REGION", "JOURNAL_SYNC_S3_KEY", "JOURNAL_SYNC_S3_ACCESS_KEY",
	"JOURNAL_SYNC_S3_SECRET_KEY", "JOURNAL_SYNC_GIT_REPO", "JOURNAL_SYNC_GIT_FILE",
	"JOURNAL_SYNC_GIT_BRANCH",
}

// clearAllEnv unsets every variable Load reads and moves into an empty
// directory so no stray .env file is picked up.
func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, "", c.GRPCAddr)
	assert.Equal(t, StoreFile, c.Store)
	assert.Equal(t, ".", c.DataDir)
	assert.Equal(t, "uploads", c.UploadsDir)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.Equal(t, MailResend, c.MailDriver)
	assert.Equal(t, 1.0, c.SignupRate)
	assert.Equal(t, 5, c.SignupBurst)
	assert.Zero(t, c.SyncInterval)
	assert.Equal(t, "us-east-1", c.SyncS3Region)
	assert.Equal(t, "main", c.SyncGitBranch)
}

func TestLoad_Env(t *testing.T) {
	for _, tc := range []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "CustomAddresses",
			env: map[string]string{
				"JOURNAL_HTTP_ADDR": ":8080",
				"JOURNAL_GRPC_ADDR": ":9090",
				"JOURNAL_NATS_URL":  "nats://localhost:4222",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ":8080", c.HTTPAddr)
				assert.Equal(t, ":9090", c.GRPCAddr)
				assert.Equal(t, "nats://localhost:4222", c.NATSURL)
			},
		},
		{
			name:    "PostgresWithoutURL",
			env:     map[string]string{"JOURNAL_STORE": "postgres"},
			wantErr: true,
		},
		{
			name: "PostgresWithURL",
			env: map[string]string{
				"JOURNAL_STORE":        "postgres",
				"JOURNAL_DATABASE_URL": "postgres://localhost/journal",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, StorePostgres, c.Store)
			},
		},
		{
			name:    "UnknownStore",
			env:     map[string]string{"JOURNAL_STORE": "redis"},
			wantErr: true,
		},
		{
			name:    "UnknownMailDriver",
			env:     map[string]string{"JOURNAL_MAIL_DRIVER": "smtp"},
			wantErr: true,
		},
		{
			name: "CORSList",
			env:  map[string]string{"JOURNAL_CORS_ORIGINS": "http://localhost:5173, https://journal.dev ,"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"http://localhost:5173", "https://journal.dev"}, c.CORSOrigins)
			},
		},
		{
			name: "SignupLimits",
			env:  map[string]string{"JOURNAL_SIGNUP_RATE": "0.5", "JOURNAL_SIGNUP_BURST": "2"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 0.5, c.SignupRate)
				assert.Equal(t, 2, c.SignupBurst)
			},
		},
		{
			name:    "BadSignupBurst",
			env:     map[string]string{"JOURNAL_SIGNUP_BURST": "many"},
			wantErr: true,
		},
		{
			name: "SyncSettings",
			env: map[string]string{
				"JOURNAL_SYNC_INTERVAL":      "5m",
				"JOURNAL_SYNC_S3_BUCKET":     "backups",
				"JOURNAL_SYNC_S3_ACCESS_KEY": "AKID",
				"JOURNAL_SYNC_S3_SECRET_KEY": "SECRET",
				"JOURNAL_SYNC_GIT_REPO":      "/srv/backup",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 5*time.Minute, c.SyncInterval)
				assert.Equal(t, "backups", c.SyncS3Bucket)
				assert.Equal(t, "AKID", c.SyncS3AccessKey)
				assert.Equal(t, "SECRET", c.SyncS3SecretKey)
				assert.Equal(t, "/srv/backup", c.SyncGitRepo)
				assert.Equal(t, "devjournal.jsonl", c.SyncGitFile)
			},
		},
		{
			name:    "InvalidSyncInterval",
			env:     map[string]string{"JOURNAL_SYNC_INTERVAL": "notaduration"},
			wantErr: true,
		},
		{
			name:    "NegativeSyncInterval",
			env:     map[string]string{"JOURNAL_SYNC_INTERVAL": "-1m"},
			wantErr: true,
		},
		{
			name: "ResendCredentials",
			env:  map[string]string{"RESEND_API_KEY": "re_123", "RESEND_FROM_EMAIL": "hi@journal.dev"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "re_123", c.ResendAPIKey)
				assert.Equal(t, "hi@journal.dev", c.ResendFromEmail)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			c, err := Load()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearAllEnv(t)

	path := filepath.Join(t.TempDir(), "journal.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr = ":4000"
store = "memory"
cors_origins = ["http://localhost:5173"]

[mail]
driver = "log"

[sync]
interval = "10m"
s3_bucket = "from-file"
`), 0o644))

	t.Setenv("JOURNAL_CONFIG", path)
	t.Setenv("JOURNAL_HTTP_ADDR", ":5000")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5000", c.HTTPAddr, "env overrides file")
	assert.Equal(t, StoreMemory, c.Store)
	assert.Equal(t, []string{"http://localhost:5173"}, c.CORSOrigins)
	assert.Equal(t, MailLog, c.MailDriver)
	assert.Equal(t, 10*time.Minute, c.SyncInterval)
	assert.Equal(t, "from-file", c.SyncS3Bucket)
	assert.Equal(t, "us-east-1", c.SyncS3Region, "unset file keys keep defaults")
}

func TestLoad_BadFile(t *testing.T) {
	clearAllEnv(t)

	path := filepath.Join(t.TempDir(), "journal.toml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr = "), 0o644))
	t.Setenv("JOURNAL_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	clearAllEnv(t)

	dotenv := "RESEND_API_KEY=re_from_dotenv\nJOURNAL_HTTP_ADDR=:7000\n"
	require.NoError(t, os.WriteFile(".env", []byte(dotenv), 0o600))

	t.Setenv("JOURNAL_HTTP_ADDR", ":7100")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "re_from_dotenv", c.ResendAPIKey)
	assert.Equal(t, ":7100", c.HTTPAddr, "real env wins over .env")
}
