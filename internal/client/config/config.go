package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/sealtalk/internal/cryptox"
)

// Config holds runtime settings for the SealTalk CLI.
type Config struct {
	DataDir     string
	LocalDBPath string
	ProfileDSN  string

	Curve              string
	LogLevel           string
	DecryptConcurrency int
	HistoryLimit       int
	IdentitySecret     string
	RequestTimeout     time.Duration

	S3AccessKey       string
	S3SecretKey       string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	PresignExpiry     time.Duration
	MaxAttachmentSize int64
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.Curve = cryptox.CurveP256
	c.LogLevel = "info"
	c.DecryptConcurrency = 4
	c.HistoryLimit = 200
	c.IdentitySecret = "secretKey"
	c.RequestTimeout = 10 * time.Second
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "sealtalk"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.PresignExpiry = 15 * time.Minute
	c.MaxAttachmentSize = 10 << 20
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.Curve {
	case cryptox.CurveP256, cryptox.CurveX25519:
	default:
		return fmt.Errorf("unsupported curve %q", c.Curve)
	}
	if c.DecryptConcurrency < 1 {
		return fmt.Errorf("decrypt concurrency must be positive, got %d", c.DecryptConcurrency)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.IdentitySecret == "" {
		return fmt.Errorf("identity secret is empty")
	}
	return nil
}

// ResolveLocalDBPath returns LocalDBPath, or local.db inside dataDir when it
// is not set.
func (c *Config) ResolveLocalDBPath(dataDir string) string {
	if c.LocalDBPath != "" {
		return c.LocalDBPath
	}
	return filepath.Join(dataDir, "local.db")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
