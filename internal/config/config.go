// Package config resolves the tool's configuration: defaults, then the
// optional YAML config file, then environment variables. Flags override all
// three at the command layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvGithubToken = "CRT_GITHUB_TOKEN"
	EnvStorePath   = "CRT_STORE_PATH"
	EnvWorkRepo    = "CRT_WORK_REPO"
	EnvS3Bucket    = "CRT_S3_BUCKET"
	EnvS3Endpoint  = "CRT_S3_ENDPOINT"
	EnvS3Prefix    = "CRT_S3_PREFIX"
	EnvS3AccessKey = "CRT_S3_ACCESS_KEY"
	EnvS3SecretKey = "CRT_S3_SECRET_KEY"
)

// Config holds the resolved configuration
type Config struct {
	// StorePath is the content store root.
	StorePath string `yaml:"store_path"`
	// WorkRepo is the git repository branches are materialized in.
	WorkRepo string `yaml:"work_repo"`
	// GithubToken authenticates against the GitHub REST API.
	GithubToken string `yaml:"github_token"`

	S3 S3 `yaml:"s3"`
}

// S3 configures the optional store mirror. AccessKey and SecretKey are for
// non-AWS endpoints like Ceph RGW; left empty, the SDK's default credential
// chain applies.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"` // empty means stock AWS endpoints
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "crt", "config.yaml")
}

// DefaultStorePath returns the store root used when none is configured
func DefaultStorePath() string {
	return filepath.Join(xdg.DataHome, "crt", "db")
}

// Load resolves the configuration from the default file location,
// the environment, and built-in defaults
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom is Load with an explicit config file path. A missing file is not
// an error; a malformed one is.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults + environment only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStorePath()
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvGithubToken); v != "" {
		c.GithubToken = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv(EnvWorkRepo); v != "" {
		c.WorkRepo = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.S3.Bucket = v
	}
	if v := os.Getenv(EnvS3Endpoint); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv(EnvS3Prefix); v != "" {
		c.S3.Prefix = v
	}
	if v := os.Getenv(EnvS3AccessKey); v != "" {
		c.S3.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		c.S3.SecretKey = v
	}
}

// MirrorConfigured reports whether the S3 mirror can be used
func (c *Config) MirrorConfigured() bool {
	return c.S3.Bucket != ""
}
