// Package file provides the TOML-backed implementation of the configuration
// port. Configuration lives in one file under the wikivault config directory.
package file
