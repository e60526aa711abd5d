package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/privnotes/notes/internal/flagx"
	"github.com/privnotes/notes/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "15m" style strings or integer nanoseconds, and absent keys leave
// the current value alone.
type JsonConfig struct {
	HTTPAddr      string          `json:"http_addr"`
	BaseURL       string          `json:"base_url"`
	DatabaseDSN   string          `json:"database_dsn"`
	SecretKey     string          `json:"secret_key"`
	SessionTTL    *timex.Duration `json:"session_ttl"`
	SecureCookies *bool           `json:"secure_cookies"`

	VerifyTokenTTL *timex.Duration `json:"verify_token_ttl"`
	ResetTokenTTL  *timex.Duration `json:"reset_token_ttl"`
	UndoTokenTTL   *timex.Duration `json:"undo_token_ttl"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	MailQueueName string          `json:"mail_queue_name"`
	SQSEndpoint   string          `json:"sqs_endpoint"`
	MailFrom      string          `json:"mail_from"`
	MailTimeout   *timex.Duration `json:"mail_timeout"`

	RedisAddr string          `json:"redis_addr"`
	CacheTTL  *timex.Duration `json:"cache_ttl"`

	RateLimitPerMinute *int   `json:"rate_limit_per_minute"`
	LogLevel           string `json:"log_level"`
}

// parseJson overlays values from the JSON file given with -c/-config onto
// config. Without the flag nothing happens; an unreadable or malformed file
// panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTTL, c.SessionTTL)
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}

	setDuration(&config.VerifyTokenTTL, c.VerifyTokenTTL)
	setDuration(&config.ResetTokenTTL, c.ResetTokenTTL)
	setDuration(&config.UndoTokenTTL, c.UndoTokenTTL)

	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.MailQueueName, c.MailQueueName)
	setString(&config.SQSEndpoint, c.SQSEndpoint)
	setString(&config.MailFrom, c.MailFrom)
	setDuration(&config.MailTimeout, c.MailTimeout)

	setString(&config.RedisAddr, c.RedisAddr)
	setDuration(&config.CacheTTL, c.CacheTTL)

	if c.RateLimitPerMinute != nil {
		config.RateLimitPerMinute = *c.RateLimitPerMinute
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
