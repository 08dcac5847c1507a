// FILE: lixenwraith/cascade/env.go
package cascade

import (
	"os"
	"strings"
)

// Environment variables consulted when a Registry is built.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvOverlay    = "CONFIG_OVERLAY"
	EnvTier       = "TIER"
	EnvHostname   = "CONFIG_HOSTNAME"
)

// DefaultTier is used when TIER is unset.
const DefaultTier = "production"

// EnvTierName returns the deployment tier from the environment.
func EnvTierName() string {
	if tier := os.Getenv(EnvTier); tier != "" {
		return tier
	}
	return DefaultTier
}

// EnvHostName returns CONFIG_HOSTNAME, falling back to the OS hostname.
func EnvHostName() string {
	if host := os.Getenv(EnvHostname); host != "" {
		return host
	}
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// EnvOverlayName returns the ambient overlay from CONFIG_OVERLAY.
func EnvOverlayName() string {
	return os.Getenv(EnvOverlay)
}

// EnvLoadPaths returns the load paths listed in CONFIG_PATH, or nil.
func EnvLoadPaths() []string {
	return SplitLoadPaths(os.Getenv(EnvConfigPath))
}

// shortHostname returns host up to the first dot.
func shortHostname(host string) string {
	short, _, _ := strings.Cut(host, ".")
	return short
}
