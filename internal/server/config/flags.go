package config

import (
	"flag"

	"github.com/privnotes/notes/internal/flagx"
)

// serverFlags lists the short flags owned by parseFlags.
var serverFlags = []string{"-a", "-u", "-d", "-s", "-b", "-g", "-e", "-q", "-r", "-l", "-k"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3000")
//	-u string   public base URL used in emailed links
//	-d string   PostgreSQL DSN
//	-s string   session signing secret
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-q string   outbound mail SQS queue name
//	-r string   redis address
//	-l string   log level
//	-k int      credential endpoint requests per minute per client
//
// Arguments are filtered first with flagx.FilterArgs so -c and unknown
// flags do not break parsing.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.MailQueueName, "q", config.MailQueueName, "mail queue name")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.RateLimitPerMinute, "k", config.RateLimitPerMinute, "rate limit per minute")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		panic(err)
	}
}
