// Package config handles configuration loading for caskd.
//
// Configuration is a single YAML file. Values in the form ${VAR_NAME} are
// expanded from the environment before parsing, so secrets like
// auth.cli_secret can be kept out of the file:
//
//	auth:
//	  session_secret: "${CASK_SESSION_SECRET}"
//	  cli_secret: "${CLI_SECRET}"
//
// Load applies defaults, parses duration strings, and validates required
// fields. The resulting Config is read-only for the life of the process.
package config
