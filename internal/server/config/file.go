package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/flagx"
	"github.com/dmitrijs2005/bookkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration, shared by JSON and
// YAML files. Durations accept "15m" strings or integer nanoseconds. Only
// fields present in the file override the current values.
type FileConfig struct {
	Env                          string          `json:"env" yaml:"env"`
	LogLevel                     string          `json:"log_level" yaml:"log_level"`
	HTTPAddr                     string          `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN                  string          `json:"database_dsn" yaml:"database_dsn"`
	PublicBaseURL                string          `json:"public_base_url" yaml:"public_base_url"`
	AccessTokenSecret            string          `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret           string          `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	ActionTokenSecret            string          `json:"action_token_secret" yaml:"action_token_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	ActionTokenValidityDuration  *timex.Duration `json:"action_token_validity_duration" yaml:"action_token_validity_duration"`
	BcryptCost                   int             `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	SecureCookies                *bool           `json:"secure_cookies" yaml:"secure_cookies"`
	SMTP                         struct {
		Host     string `json:"host" yaml:"host"`
		Port     int    `json:"port" yaml:"port"`
		User     string `json:"user" yaml:"user"`
		Password string `json:"password" yaml:"password"`
		From     string `json:"from" yaml:"from"`
	} `json:"smtp" yaml:"smtp"`
}

// parseFile overlays the file named by -c/-config, if any. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.Env, fc.Env)
	setString(&config.LogLevel, fc.LogLevel)
	setString(&config.HTTPAddr, fc.HTTPAddr)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.PublicBaseURL, fc.PublicBaseURL)
	setString(&config.AccessTokenSecret, fc.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, fc.RefreshTokenSecret)
	setString(&config.ActionTokenSecret, fc.ActionTokenSecret)
	if fc.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.ActionTokenValidityDuration != nil {
		config.ActionTokenValidityDuration = fc.ActionTokenValidityDuration.Duration
	}
	if fc.BcryptCost != 0 {
		config.BcryptCost = fc.BcryptCost
	}
	if fc.SecureCookies != nil {
		config.SecureCookies = *fc.SecureCookies
	}
	setString(&config.SMTPHost, fc.SMTP.Host)
	if fc.SMTP.Port != 0 {
		config.SMTPPort = fc.SMTP.Port
	}
	setString(&config.SMTPUser, fc.SMTP.User)
	setString(&config.SMTPPassword, fc.SMTP.Password)
	setString(&config.MailFrom, fc.SMTP.From)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
