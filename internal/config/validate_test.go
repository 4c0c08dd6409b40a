package config

import (
	"testing"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadValid(t *testing.T, yaml string) *models.MaintenanceConfig {
	t.Helper()
	cfg, err := NewParser().LoadReader(yaml)
	require.NoError(t, err)
	return cfg
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid list type", "options:\n  list_type: files\n", "Options.ListType must be one of: mysql backup"},
		{"invalid catalog", "options:\n  catalog: odbc\n", "Options.Catalog must be one of: client driver"},
		{"negative retention", "options:\n  retention: -1\n", "Options.RetentionDays must be greater than or equal to 0"},
		{"invalid mail recipient", "options:\n  mail_to: not-an-address\n", "Options.MailTo must be a valid email address"},
		{"invalid extension", "options:\n  archive_extension: tar.gz\n", "Options.ArchiveExtension must be alphanumeric"},
		{"mail port out of range", "mail:\n  port: 70000\n", "Mail.Port must be less than or equal to 65535"},
		{"empty host", "connection:\n  host: \"\"\n", "Credentials.Host is required"},
		{"telegram without token", "telegram:\n  chat_id: \"42\"\n", "Telegram.BotToken is required"},
		{"metrics without dir", "metrics:\n  enabled: true\n", "Metrics.TextfileDir is required"},
		{"schedule with list action", "schedule:\n  - action: list\n    spec: \"@daily\"\n", "Schedule[0].Action must be one of"},
		{"invalid cron spec", "schedule:\n  - action: backup\n    spec: \"every night\"\n", "invalid cron spec"},
		{"unsupported date directive", "options:\n  date_format: \"%A\"\n", "options.date_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(loadValid(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidateFor_Credentials(t *testing.T) {
	noPassword := "connection:\n  user: admin\n"
	withPassword := "connection:\n  user: admin\n  password: secret\n"

	tests := []struct {
		name    string
		yaml    string
		action  string
		wantErr bool
	}{
		{"backup without password", noPassword, models.ActionBackup, true},
		{"restore without password", noPassword, models.ActionRestore, true},
		{"optimize without password", noPassword, models.ActionOptimize, true},
		{"list mysql without password", noPassword, models.ActionList, true},
		{"list backup without password", noPassword + "options:\n  list_type: backup\n", models.ActionList, false},
		{"cleanup without password", noPassword, models.ActionCleanup, false},
		{"validate without password", noPassword, "validate", false},
		{"backup with password", withPassword, models.ActionBackup, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFor(loadValid(t, tt.yaml), tt.action)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), `please provide at least a password for MySQL user "admin"`)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFor_Schedule(t *testing.T) {
	err := ValidateFor(loadValid(t, ""), "schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one entry")

	cleanupOnly := "schedule:\n  - action: cleanup\n    spec: \"@daily\"\n"
	assert.NoError(t, ValidateFor(loadValid(t, cleanupOnly), "schedule"))

	withBackup := "schedule:\n  - action: backup\n    spec: \"@daily\"\n"
	assert.Error(t, ValidateFor(loadValid(t, withBackup), "schedule"))
}

func TestDescribe_RedactsSecrets(t *testing.T) {
	cfg := loadValid(t, `
connection:
  user: admin
  password: topsecret
options:
  databases: [shop, wiki]
  mail_to: dba@example.com
mail:
  username: mailer
  password: mailsecret
telegram:
  bot_token: "123456:ABC"
  chat_id: "42"
metrics:
  textfile_dir: /var/lib/node_exporter
schedule:
  - action: backup
    spec: "0 2 * * *"
`)

	out := Describe(cfg)

	assert.Contains(t, out, "user: admin")
	assert.Contains(t, out, "password: ********")
	assert.Contains(t, out, "databases: shop,wiki")
	assert.Contains(t, out, "username: mailer")
	assert.Contains(t, out, "chat_id: 42")
	assert.Contains(t, out, "textfile_dir: /var/lib/node_exporter")
	assert.Contains(t, out, "backup: 0 2 * * *")
	assert.Contains(t, out, "tool_timeout: unbounded")
	assert.NotContains(t, out, "topsecret")
	assert.NotContains(t, out, "mailsecret")
	assert.NotContains(t, out, "123456:ABC")
}

func TestDescribe_NoPassword(t *testing.T) {
	out := Describe(loadValid(t, ""))

	assert.Contains(t, out, "password: <no password>")
	assert.Contains(t, out, "databases: all")
	assert.NotContains(t, out, "Mail:")
	assert.NotContains(t, out, "Telegram:")
}
