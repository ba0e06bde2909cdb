package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{EnvFile: missingEnvFile(t), LookupEnv: envMap(nil)})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "HS256", cfg.Security.Algorithm)
	assert.Equal(t, 30, cfg.Security.AccessTokenExpireMinutes)
	assert.Equal(t, 3600, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Tasks.BrokerURL)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.True(t, cfg.Mail.StartTLS)
	assert.Empty(t, cfg.Mail.SendGridAPIKey)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
app:
  name: From YAML
database:
  url: postgres://yaml/db
log:
  level: DEBUG
unknown_section:
  whatever: 1
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"DATABASE_URL=postgres://dotenv/db\nCACHE_TTL=60\nSOME_UNKNOWN_KEY=ignored\n",
	), 0o600))

	cfg, err := Load(LoadOptions{
		ConfigPath: yamlPath,
		EnvFile:    envPath,
		LookupEnv:  envMap(map[string]string{"CACHE_TTL": "120", "APP_VERSION": "9.9.9"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "From YAML", cfg.App.Name)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "postgres://dotenv/db", cfg.Database.URL, "dotenv overrides the YAML file")
	assert.Equal(t, 120, cfg.Cache.TTL, "process env overrides dotenv")
	assert.Equal(t, "9.9.9", cfg.App.Version)
}

func TestLoad_InvalidNumber(t *testing.T) {
	_, err := Load(LoadOptions{
		EnvFile:   missingEnvFile(t),
		LookupEnv: envMap(map[string]string{"MAIL_PORT": "not-a-port"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_PORT")
}

func TestLoad_ProductionRequiresMailKey(t *testing.T) {
	_, err := Load(LoadOptions{
		EnvFile:   missingEnvFile(t),
		LookupEnv: envMap(map[string]string{"ENVIRONMENT": "production"}),
	})
	assert.ErrorIs(t, err, ErrMailKeyRequired)

	cfg, err := Load(LoadOptions{
		EnvFile: missingEnvFile(t),
		LookupEnv: envMap(map[string]string{
			"ENVIRONMENT":      "production",
			"SENDGRID_API_KEY": "SG.abcdefghijklmnop",
		}),
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_DevelopmentWithoutMailKey(t *testing.T) {
	cfg, err := Load(LoadOptions{
		EnvFile:   missingEnvFile(t),
		LookupEnv: envMap(map[string]string{"ENVIRONMENT": "development"}),
	})
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
		EnvFile:    missingEnvFile(t),
		LookupEnv:  envMap(nil),
	})
	assert.Error(t, err)
}

func TestMaskedMailKey(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "", cfg.MaskedMailKey())

	cfg.Mail.SendGridAPIKey = "short"
	assert.Equal(t, "***", cfg.MaskedMailKey())

	cfg.Mail.SendGridAPIKey = "SG.1234567890-very-secret"
	assert.Equal(t, "SG.1234567...", cfg.MaskedMailKey())
	assert.NotContains(t, cfg.MaskedMailKey(), "secret")
}
