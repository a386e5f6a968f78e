package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophsession/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   identity backend base URL
//	-k string   identity backend anon key
//	-d string   data directory
//	-b string   blob backend (bbolt, redis, s3)
//	-s string   keychain backend (sqlite, memory)
//	-t int      request timeout (in seconds)
//	-v          log storage metrics
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-d", "-b", "-s", "-t", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "u", cfg.BackendURL, "identity backend URL")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "identity backend anon key")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.BlobBackend, "b", cfg.BlobBackend, "blob backend: bbolt, redis or s3")
	fs.StringVar(&cfg.KeychainBackend, "s", cfg.KeychainBackend, "keychain backend: sqlite or memory")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.BoolVar(&cfg.StorageMetrics, "v", cfg.StorageMetrics, "log storage metrics")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
