package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/invkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8000")
//	-grpc string       gRPC bind address; empty disables
//	-d string          PostgreSQL DSN
//	-pepper string     password pepper
//	-sessions string   session backend: memory or redis
//	-redis string      Redis URL
//	-sweep string      cron spec of the expired-session sweep
//	-login-attempts int  failed logins before lockout (0 disables)
//	-lockout int       lockout window, minutes
//	-s3-user, -s3-password, -s3-bucket, -s3-region, -s3-endpoint string
//	-uploads string    local image directory
//	-static string     front-end directory
//	-secure-cookies    mark the session cookie Secure
//	-log-level string  debug, info, warn or error
//
// Only the flags defined here are picked out of os.Args, so -c/-config and
// flags of other components do not collide.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.PasswordPepper, "pepper", config.PasswordPepper, "password pepper")
	fs.StringVar(&config.SessionBackend, "sessions", config.SessionBackend, "session backend (memory|redis)")
	fs.StringVar(&config.RedisURL, "redis", config.RedisURL, "redis URL")
	fs.StringVar(&config.SessionSweepSchedule, "sweep", config.SessionSweepSchedule, "expired session sweep schedule (cron)")
	fs.IntVar(&config.LoginMaxAttempts, "login-attempts", config.LoginMaxAttempts, "failed logins before lockout")

	lockout := fs.Int("lockout", int(config.LoginLockoutDuration.Minutes()), "login lockout window (in minutes)")

	fs.StringVar(&config.S3RootUser, "s3-user", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "s3-password", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.UploadDir, "uploads", config.UploadDir, "local upload directory")
	fs.StringVar(&config.StaticDir, "static", config.StaticDir, "static front-end directory")
	fs.BoolVar(&config.SecureCookies, "secure-cookies", config.SecureCookies, "mark the session cookie Secure")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "lockout" {
			config.LoginLockoutDuration = time.Duration(*lockout) * time.Minute
		}
	})
}
