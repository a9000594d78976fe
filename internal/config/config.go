package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2330
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBName     = "newsletter"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSMTPPort   = 465
	defaultInterval   = 100 // ms between transport calls
	defaultWorkers    = 1   // sequential unless raised
	defaultErrSample  = 10
	defaultPostalLine = ""
)

// Load reads, defaults and validates the YAML config file.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	applyDefaults(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Mail.Enable && cfg.Mail.ResendKey == "" && strings.TrimSpace(cfg.Mail.Host) == "" {
		return nil, fmt.Errorf("mail.enable is set but neither mail.host nor mail.resend_key is configured in %q", path)
	}
	if cfg.Newsletter.SendIntervalMS < 0 {
		return nil, fmt.Errorf("invalid newsletter.send_interval_ms %d in %q, expected >= 0", cfg.Newsletter.SendIntervalMS, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			Name:    defaultDBName,
			Charset: defaultDBCharset,
			Loc:     defaultDBLoc,
		},
		Mail: MailConfig{
			Port: defaultSMTPPort,
		},
		Newsletter: NewsletterConfig{
			SendIntervalMS: defaultInterval,
			SendWorkers:    defaultWorkers,
			ErrorSample:    defaultErrSample,
			PostalAddress:  defaultPostalLine,
		},
	}
}

// applyDefaults restores zero-valued fields that strict decoding may have
// cleared when a section is present but partially filled.
func applyDefaults(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = defaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = defaultDBUser
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = defaultDBName
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = defaultDBCharset
	}
	if cfg.Database.Loc == "" {
		cfg.Database.Loc = defaultDBLoc
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = defaultSMTPPort
	}
	if cfg.Newsletter.SendWorkers < 1 {
		cfg.Newsletter.SendWorkers = defaultWorkers
	}
	if cfg.Newsletter.ErrorSample < 1 {
		cfg.Newsletter.ErrorSample = defaultErrSample
	}
	cfg.Newsletter.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Newsletter.BaseURL), "/")
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
