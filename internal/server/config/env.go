package config

import (
	"strconv"
	"time"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// parseEnv overlays NOTES_* environment variables. Malformed numeric, bool
// or duration values are ignored.
func parseEnv(config *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("NOTES_HTTP_ADDR", &config.HTTPAddr)
	str("NOTES_BASE_URL", &config.BaseURL)
	str("NOTES_DATABASE_DSN", &config.DatabaseDSN)
	str("NOTES_SECRET_KEY", &config.SecretKey)
	dur("NOTES_SESSION_TTL", &config.SessionTTL)
	if v, ok := lookup("NOTES_SECURE_COOKIES"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.SecureCookies = b
		}
	}

	dur("NOTES_VERIFY_TOKEN_TTL", &config.VerifyTokenTTL)
	dur("NOTES_RESET_TOKEN_TTL", &config.ResetTokenTTL)
	dur("NOTES_UNDO_TOKEN_TTL", &config.UndoTokenTTL)

	str("NOTES_S3_ACCESS_KEY", &config.S3AccessKey)
	str("NOTES_S3_SECRET_KEY", &config.S3SecretKey)
	str("NOTES_S3_BUCKET", &config.S3Bucket)
	str("NOTES_S3_REGION", &config.S3Region)
	str("NOTES_S3_ENDPOINT", &config.S3BaseEndpoint)

	str("NOTES_MAIL_QUEUE", &config.MailQueueName)
	str("NOTES_SQS_ENDPOINT", &config.SQSEndpoint)
	str("NOTES_MAIL_FROM", &config.MailFrom)
	dur("NOTES_MAIL_TIMEOUT", &config.MailTimeout)

	str("NOTES_REDIS_ADDR", &config.RedisAddr)
	dur("NOTES_CACHE_TTL", &config.CacheTTL)

	if v, ok := lookup("NOTES_RATE_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.RateLimitPerMinute = n
		}
	}
	str("NOTES_LOG_LEVEL", &config.LogLevel)
}
