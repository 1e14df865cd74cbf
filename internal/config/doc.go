// Package config loads, normalizes, and validates hardsub's TOML
// configuration.
package config
