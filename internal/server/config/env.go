package config

import (
	"fmt"
	"os"
	"strconv"
)

var lookupEnv = os.LookupEnv

// parseEnv applies the variables the deployment platform sets:
// DATABASE_URL, PORT, PASSWORD_PEPPER, REDIS_URL and SECURE_COOKIES.
// A SECURE_COOKIES value that is not a boolean panics.
func parseEnv(config *Config) {
	if v, ok := lookupEnv("DATABASE_URL"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookupEnv("PORT"); ok && v != "" {
		config.EndpointAddrHTTP = ":" + v
	}
	if v, ok := lookupEnv("PASSWORD_PEPPER"); ok && v != "" {
		config.PasswordPepper = v
	}
	if v, ok := lookupEnv("REDIS_URL"); ok && v != "" {
		config.RedisURL = v
		config.SessionBackend = SessionBackendRedis
	}
	if v, ok := lookupEnv("SECURE_COOKIES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("SECURE_COOKIES: %w", err))
		}
		config.SecureCookies = b
	}
}
