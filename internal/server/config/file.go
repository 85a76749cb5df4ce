package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/invkeeper/internal/flagx"
	"github.com/dmitrijs2005/invkeeper/internal/timex"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// "15m" style strings or integer nanoseconds. Absent keys leave the current
// value untouched.
type FileConfig struct {
	EndpointAddrHTTP     string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC     string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN          string         `json:"database_dsn" yaml:"database_dsn"`
	PasswordPepper       string         `json:"password_pepper" yaml:"password_pepper"`
	SessionBackend       string         `json:"session_backend" yaml:"session_backend"`
	RedisURL             string         `json:"redis_url" yaml:"redis_url"`
	SessionSweepSchedule *string        `json:"session_sweep_schedule" yaml:"session_sweep_schedule"`
	LoginMaxAttempts     *int           `json:"login_max_attempts" yaml:"login_max_attempts"`
	LoginLockoutDuration timex.Duration `json:"login_lockout_duration" yaml:"login_lockout_duration"`
	S3RootUser           string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region             string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	UploadDir            string         `json:"upload_dir" yaml:"upload_dir"`
	StaticDir            string         `json:"static_dir" yaml:"static_dir"`
	SecureCookies        *bool          `json:"secure_cookies" yaml:"secure_cookies"`
	LogLevel             string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config, if any, and overlays it on
// config. An unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFromArgs()
	if path == "" {
		return
	}

	fc, err := readFile(path)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func readFile(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, fc)
	default:
		err = json.Unmarshal(b, fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.PasswordPepper, fc.PasswordPepper)
	setString(&config.SessionBackend, fc.SessionBackend)
	setString(&config.RedisURL, fc.RedisURL)
	if fc.SessionSweepSchedule != nil {
		config.SessionSweepSchedule = *fc.SessionSweepSchedule
	}
	if fc.LoginMaxAttempts != nil {
		config.LoginMaxAttempts = *fc.LoginMaxAttempts
	}
	if fc.LoginLockoutDuration.Duration != 0 {
		config.LoginLockoutDuration = fc.LoginLockoutDuration.Duration
	}
	setString(&config.S3RootUser, fc.S3RootUser)
	setString(&config.S3RootPassword, fc.S3RootPassword)
	setString(&config.S3Bucket, fc.S3Bucket)
	setString(&config.S3Region, fc.S3Region)
	setString(&config.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&config.UploadDir, fc.UploadDir)
	setString(&config.StaticDir, fc.StaticDir)
	if fc.SecureCookies != nil {
		config.SecureCookies = *fc.SecureCookies
	}
	setString(&config.LogLevel, fc.LogLevel)
}
