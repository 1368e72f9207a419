// Package config loads service configuration from an optional YAML file
// with environment-variable overrides (GUILDSTATS_* keys). Environment
// always wins over the file, and defaults cover everything except the
// gateway token.
package config
