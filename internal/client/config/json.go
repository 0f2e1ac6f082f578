package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sealtalk/internal/flagx"
	"github.com/dmitrijs2005/sealtalk/internal/timex"
)

// JsonConfig is a DTO used only for JSON unmarshalling. Pointer fields tell
// an absent value from a zero one.
type JsonConfig struct {
	DataDir            *string         `json:"data_dir"`
	LocalDBPath        *string         `json:"local_db_path"`
	ProfileDSN         *string         `json:"profile_dsn"`
	Curve              *string         `json:"curve"`
	LogLevel           *string         `json:"log_level"`
	DecryptConcurrency *int            `json:"decrypt_concurrency"`
	HistoryLimit       *int            `json:"history_limit"`
	IdentitySecret     *string         `json:"identity_secret"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	S3AccessKey        *string         `json:"s3_access_key"`
	S3SecretKey        *string         `json:"s3_secret_key"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	PresignExpiry      *timex.Duration `json:"presign_expiry"`
	MaxAttachmentSize  *int64          `json:"max_attachment_size"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays cfg with the file given by -c/-config. It panics on read
// or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set(&cfg.DataDir, jc.DataDir)
	set(&cfg.LocalDBPath, jc.LocalDBPath)
	set(&cfg.ProfileDSN, jc.ProfileDSN)
	set(&cfg.Curve, jc.Curve)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.DecryptConcurrency, jc.DecryptConcurrency)
	set(&cfg.HistoryLimit, jc.HistoryLimit)
	set(&cfg.IdentitySecret, jc.IdentitySecret)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.S3Bucket, jc.S3Bucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.MaxAttachmentSize, jc.MaxAttachmentSize)

	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PresignExpiry != nil {
		cfg.PresignExpiry = jc.PresignExpiry.Duration
	}
}
