package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "nothing set keeps defaults",
			env:  map[string]string{},
			check: func(t *testing.T, c *Config) {
				var want Config
				want.LoadDefaults()
				assert.Equal(t, want, *c)
			},
		},
		{
			name: "platform variables",
			env:  map[string]string{"DATABASE_URL": "postgres://db", "PORT": "8080", "PASSWORD_PEPPER": "pp"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "postgres://db", c.DatabaseDSN)
				assert.Equal(t, ":8080", c.EndpointAddrHTTP)
				assert.Equal(t, "pp", c.PasswordPepper)
				assert.Equal(t, SessionBackendMemory, c.SessionBackend)
			},
		},
		{
			name: "redis url switches backend",
			env:  map[string]string{"REDIS_URL": "redis://cache:6379/1"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "redis://cache:6379/1", c.RedisURL)
				assert.Equal(t, SessionBackendRedis, c.SessionBackend)
			},
		},
		{
			name: "secure cookies",
			env:  map[string]string{"SECURE_COOKIES": "true"},
			check: func(t *testing.T, c *Config) {
				assert.True(t, c.SecureCookies)
			},
		},
		{
			name: "empty values are ignored",
			env:  map[string]string{"DATABASE_URL": "", "PORT": ""},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ":8000", c.EndpointAddrHTTP)
				assert.Contains(t, c.DatabaseDSN, "inventario")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := lookupEnv
			lookupEnv = func(k string) (string, bool) { v, ok := tt.env[k]; return v, ok }
			t.Cleanup(func() { lookupEnv = orig })

			c := &Config{}
			c.LoadDefaults()
			parseEnv(c)
			tt.check(t, c)
		})
	}
}

func TestParseEnv_BadSecureCookiesPanics(t *testing.T) {
	orig := lookupEnv
	lookupEnv = func(k string) (string, bool) {
		if k == "SECURE_COOKIES" {
			return "sometimes", true
		}
		return "", false
	}
	t.Cleanup(func() { lookupEnv = orig })

	c := &Config{}
	assert.Panics(t, func() { parseEnv(c) })
}
