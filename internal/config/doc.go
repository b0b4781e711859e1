// Package config provides centralized configuration management for the
// claims comparison dashboard.
//
// Configuration is loaded from environment variables (CLAIMSCOPE_ prefix)
// layered over an optional YAML file, then validated. Filesystem paths
// resolve relative to the executable directory so the server can run
// from any working directory.
package config
