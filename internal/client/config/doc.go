// Package config loads runtime configuration for the gophsession CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "15s" or
// integer nanoseconds:
//
//	{
//	  "backend_url": "https://project.supabase.co",
//	  "anon_key": "public-anon-key",
//	  "blob_backend": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "request_timeout": "15s"
//	}
//
// This package does not read environment variables directly.
package config
