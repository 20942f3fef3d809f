// Package config loads and validates ludex configuration.
//
// Configuration lives in a single TOML file. Default() supplies repository
// defaults, Load() layers the file on top, and Validate() rejects unusable
// combinations before anything touches the database. The LUDEX_DATA_DIR
// environment variable overrides the data directory root, which keeps tests
// isolated from a real installation.
package config
