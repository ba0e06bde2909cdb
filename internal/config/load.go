package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// LoadOptions controls where settings are read from. Zero values mean:
// CONFIG_PATH from the environment for the YAML file, ".env" for the dotenv
// file and os.LookupEnv for the process environment.
type LoadOptions struct {
	ConfigPath string
	EnvFile    string
	LookupEnv  func(key string) (string, bool)
}

// binding maps one recognized key onto a Config field.
type binding struct {
	key string
	set func(cfg *Config, value string) error
}

var bindings = []binding{
	{"DATABASE_URL", str(func(c *Config) *string { return &c.Database.URL })},
	{"POSTGRES_DB", str(func(c *Config) *string { return &c.Database.PostgresDB })},
	{"POSTGRES_USER", str(func(c *Config) *string { return &c.Database.PostgresUser })},
	{"POSTGRES_PASSWORD", str(func(c *Config) *string { return &c.Database.PostgresPassword })},

	{"SECRET_KEY", str(func(c *Config) *string { return &c.Security.SecretKey })},
	{"ALGORITHM", str(func(c *Config) *string { return &c.Security.Algorithm })},
	{"ACCESS_TOKEN_EXPIRE_MINUTES", integer(func(c *Config) *int { return &c.Security.AccessTokenExpireMinutes })},

	{"REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"CACHE_TTL", integer(func(c *Config) *int { return &c.Cache.TTL })},

	{"CELERY_BROKER_URL", str(func(c *Config) *string { return &c.Tasks.BrokerURL })},
	{"CELERY_RESULT_BACKEND", str(func(c *Config) *string { return &c.Tasks.ResultBackend })},

	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},

	{"SENDGRID_API_KEY", str(func(c *Config) *string { return &c.Mail.SendGridAPIKey })},
	{"MAIL_FROM", str(func(c *Config) *string { return &c.Mail.From })},
	{"MAIL_FROM_NAME", str(func(c *Config) *string { return &c.Mail.FromName })},
	{"MAIL_USERNAME", str(func(c *Config) *string { return &c.Mail.Username })},
	{"MAIL_PASSWORD", str(func(c *Config) *string { return &c.Mail.Password })},
	{"MAIL_PORT", integer(func(c *Config) *int { return &c.Mail.Port })},
	{"MAIL_SERVER", str(func(c *Config) *string { return &c.Mail.Server })},
	{"MAIL_STARTTLS", boolean(func(c *Config) *bool { return &c.Mail.StartTLS })},
	{"MAIL_SSL_TLS", boolean(func(c *Config) *bool { return &c.Mail.SSLTLS })},
	{"USE_CREDENTIALS", boolean(func(c *Config) *bool { return &c.Mail.UseCredentials })},

	{"APP_NAME", str(func(c *Config) *string { return &c.App.Name })},
	{"APP_VERSION", str(func(c *Config) *string { return &c.App.Version })},
	{"ENVIRONMENT", str(func(c *Config) *string { return &c.App.Environment })},
}

// Load builds the settings: defaults, then the YAML file, then the dotenv
// file, then the process environment. Keys that are not recognized are ignored.
func Load(opts LoadOptions) (*Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath, _ = lookup("CONFIG_PATH")
	}
	if configPath != "" {
		if err := loadYAML(cfg, configPath); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	fileValues, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		fileValues = map[string]string{}
	}

	for _, b := range bindings {
		value, ok := lookup(b.key)
		if !ok {
			value, ok = fileValues[b.key]
		}
		if !ok {
			continue
		}
		if err := b.set(cfg, value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", b.key, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}
