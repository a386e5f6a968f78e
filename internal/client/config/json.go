package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophsession/internal/flagx"
	"github.com/dmitrijs2005/gophsession/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Pointer fields distinguish "absent" from "empty" so a partial file only
// overrides what it names.
type JsonConfig struct {
	BackendURL      *string         `json:"backend_url"`
	AnonKey         *string         `json:"anon_key"`
	DataDir         *string         `json:"data_dir"`
	BlobBackend     *string         `json:"blob_backend"`
	KeychainBackend *string         `json:"keychain_backend"`
	RedisAddr       *string         `json:"redis_addr"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3Endpoint      *string         `json:"s3_endpoint"`
	S3AccessKey     *string         `json:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key"`
	Directory       *string         `json:"directory"`
	DatabaseDSN     *string         `json:"database_dsn"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	RefreshMargin   *timex.Duration `json:"refresh_margin"`
	LogFormat       *string         `json:"log_format"`
	StorageMetrics  *bool           `json:"storage_metrics"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays Config with values loaded from a JSON file named by the
// -c or -config flag. Without either flag it does nothing. It panics on read
// or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
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

	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.AnonKey, jc.AnonKey)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.BlobBackend, jc.BlobBackend)
	setString(&cfg.KeychainBackend, jc.KeychainBackend)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.Directory, jc.Directory)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshMargin != nil {
		cfg.RefreshMargin = jc.RefreshMargin.Duration
	}
	if jc.StorageMetrics != nil {
		cfg.StorageMetrics = *jc.StorageMetrics
	}
}
