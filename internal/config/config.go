// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// TLSCert, TLSKey and TLSCA point to the server certificate, its key and
	// the CA used to verify operator client certificates.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
	TLSCA   string `json:"tls_ca"`

	// CleanupInterval is how often soft-deleted accounts are purged.
	CleanupInterval Duration `json:"cleanup_interval"`
	// Retention is how long soft-deleted accounts are kept before purging.
	Retention Duration `json:"retention"`
}

// Duration is a time.Duration that reads "1h30m" style strings from JSON.
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a duration string such as "720h".
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the options used when nothing overrides them.
func Default() *Options {
	return &Options{
		Port:            "localhost:8443",
		Config:          "config.json",
		LogLevel:        "info",
		TLSCert:         "certs/server.crt",
		TLSKey:          "certs/server.key",
		TLSCA:           "certs/ca.crt",
		CleanupInterval: Duration{time.Hour},
		Retention:       Duration{30 * 24 * time.Hour},
	}
}

// Register binds command-line flags to o on fs.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
	fs.StringVar(&o.LogLevel, "l", o.LogLevel, "log level")
	fs.StringVar(&o.TLSCert, "tls-cert", o.TLSCert, "server TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", o.TLSKey, "server TLS key")
	fs.StringVar(&o.TLSCA, "tls-ca", o.TLSCA, "CA certificate for client verification")
	fs.Var(&o.CleanupInterval, "cleanup-interval", "interval between purges of deleted accounts")
	fs.Var(&o.Retention, "retention", "how long deleted accounts are kept")
}

// Load parses args into the options, then applies the config file and
// environment variables. The config file only fills values whose flags were
// not given; environment variables override everything.
func Load(args []string, getenv func(string) string) (*Options, error) {
	opts := Default()
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	opts.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			data, err := os.ReadFile(opts.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			fileOpts := *opts
			if err := json.Unmarshal(data, &fileOpts); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
			set := map[string]bool{}
			fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
			mergeUnset(opts, &fileOpts, set)
		}
	}

	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Port = serverAddress
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		opts.DatabaseDSN = dsn
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		opts.LogLevel = level
	}

	return opts, nil
}

// Parse loads the options from the process arguments and environment.
// It exits the process on invalid input, as flag.Parse does.
func Parse() *Options {
	opts, err := Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

func mergeUnset(dst, src *Options, set map[string]bool) {
	if !set["a"] {
		dst.Port = src.Port
	}
	if !set["d"] {
		dst.DatabaseDSN = src.DatabaseDSN
	}
	if !set["l"] {
		dst.LogLevel = src.LogLevel
	}
	if !set["tls-cert"] {
		dst.TLSCert = src.TLSCert
	}
	if !set["tls-key"] {
		dst.TLSKey = src.TLSKey
	}
	if !set["tls-ca"] {
		dst.TLSCA = src.TLSCA
	}
	if !set["cleanup-interval"] {
		dst.CleanupInterval = src.CleanupInterval
	}
	if !set["retention"] {
		dst.Retention = src.Retention
	}
}
