package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sealtalk/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. Only the flags listed
// below are looked at; see the package doc for their meaning.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-f", "-d", "-p", "-k", "-l", "-j", "-n", "-s", "-t", "-u", "-w", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "f", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "local database path")
	fs.StringVar(&cfg.ProfileDSN, "p", cfg.ProfileDSN, "profile store DSN")
	fs.StringVar(&cfg.Curve, "k", cfg.Curve, "key agreement curve (p256, x25519)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.IntVar(&cfg.DecryptConcurrency, "j", cfg.DecryptConcurrency, "history decryption concurrency")
	fs.IntVar(&cfg.HistoryLimit, "n", cfg.HistoryLimit, "history page size")
	fs.StringVar(&cfg.IdentitySecret, "s", cfg.IdentitySecret, "identity token secret")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "w", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
