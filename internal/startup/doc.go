// Package startup loads configuration from environment variables,
// prepares the cache directories, and logs the startup banner.
package startup
