// Package config loads runtime configuration for the SealTalk CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-f string   data directory (default: <user config dir>/sealtalk)
//	-d string   local SQLite database path (default: <data dir>/local.db)
//	-p string   PostgreSQL DSN of the profile and message store; empty runs
//	            against in-memory collaborators
//	-k string   key agreement curve: p256 or x25519
//	-l string   log level: debug, info, warn, error
//	-j int      history decryption concurrency
//	-n int      history page size
//	-s string   HMAC secret of identity tokens
//	-t int      request timeout (seconds)
//	-u string   S3 access key
//	-w string   S3 secret key
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds. Absent fields keep their earlier value.
//
//	{
//	  "data_dir": "/var/lib/sealtalk",
//	  "profile_dsn": "postgres://...",
//	  "curve": "p256",
//	  "log_level": "info",
//	  "decrypt_concurrency": 4,
//	  "history_limit": 200,
//	  "request_timeout": "10s",
//	  "presign_expiry": "15m",
//	  "max_attachment_size": 10485760,
//	  "s3_bucket": "sealtalk"
//	}
package config
