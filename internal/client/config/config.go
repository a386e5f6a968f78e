package config

import "time"

// Blob store backends.
const (
	BlobBackendBolt  = "bbolt"
	BlobBackendRedis = "redis"
	BlobBackendS3    = "s3"
)

// Keychain backends.
const (
	KeychainSQLite = "sqlite"
	KeychainMemory = "memory"
)

// Username directory backends.
const (
	DirectoryREST     = "rest"
	DirectoryPostgres = "postgres"
)

// Config holds runtime settings for the gophsession CLI.
//
// Fields:
//   - BackendURL / AnonKey: identity backend base URL and its public API key.
//   - DataDir: directory holding the keychain database and bbolt file.
//   - BlobBackend: where ciphertext lives (bbolt, redis, s3).
//   - KeychainBackend: where per-value keys live (sqlite, memory).
//   - RequestTimeout: upper bound for every identity backend call.
//   - RefreshMargin: refresh the session when it expires within this window.
type Config struct {
	BackendURL      string
	AnonKey         string
	DataDir         string
	BlobBackend     string
	KeychainBackend string

	RedisAddr   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	Directory   string
	DatabaseDSN string

	RequestTimeout time.Duration
	RefreshMargin  time.Duration

	LogFormat      string
	StorageMetrics bool
}

// LoadDefaults populates c with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:54321"
	c.AnonKey = ""
	c.DataDir = ".gophsession"
	c.BlobBackend = BlobBackendBolt
	c.KeychainBackend = KeychainSQLite
	c.RedisAddr = "127.0.0.1:6379"
	c.S3Bucket = "sessions"
	c.S3Region = "us-east-1"
	c.S3Endpoint = "http://127.0.0.1:9000/"
	c.Directory = DirectoryREST
	c.RequestTimeout = 15 * time.Second
	c.RefreshMargin = 60 * time.Second
	c.LogFormat = "text"
	c.StorageMetrics = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
