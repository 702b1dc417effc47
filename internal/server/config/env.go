package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv exports the variables of path into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// parseEnv overlays values found through lookup.
//
// Variables: APP_ENV, LOG_LEVEL, HTTP_ADDR, DATABASE_DSN, PUBLIC_BASE_URL,
// ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET, ACTION_TOKEN_SECRET,
// ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL, ACTION_TOKEN_TTL (Go durations),
// BCRYPT_COST, SECURE_COOKIES, SMTP_HOST, SMTP_PORT, SMTP_USER,
// SMTP_PASSWORD, MAIL_FROM.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &config.Env)
	str("LOG_LEVEL", &config.LogLevel)
	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("PUBLIC_BASE_URL", &config.PublicBaseURL)
	str("ACCESS_TOKEN_SECRET", &config.AccessTokenSecret)
	str("REFRESH_TOKEN_SECRET", &config.RefreshTokenSecret)
	str("ACTION_TOKEN_SECRET", &config.ActionTokenSecret)
	str("SMTP_HOST", &config.SMTPHost)
	str("SMTP_USER", &config.SMTPUser)
	str("SMTP_PASSWORD", &config.SMTPPassword)
	str("MAIL_FROM", &config.MailFrom)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration},
		{"REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration},
		{"ACTION_TOKEN_TTL", &config.ActionTokenValidityDuration},
	}
	for _, d := range durations {
		if v, ok := lookup(d.key); ok && v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"BCRYPT_COST", &config.BcryptCost},
		{"SMTP_PORT", &config.SMTPPort},
	}
	for _, i := range ints {
		if v, ok := lookup(i.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.key, err)
			}
			*i.dst = n
		}
	}

	if v, ok := lookup("SECURE_COOKIES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIES: %w", err)
		}
		config.SecureCookies = b
	}
	return nil
}
