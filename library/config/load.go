// Package config loads settings and exposes the search API defaults.
package config

import (
	"path/filepath"
	"strings"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/nicosearch/library/log"
)

// Configuration keys.
const (
	KeyNicoIssuer    = "settings.nico.issuer"
	KeyNicoReason    = "settings.nico.reason"
	KeyNicoTimeoutMS = "settings.nico.timeout_ms"
	KeyNicoBaseURL   = "settings.nico.base_url"

	KeyWebListen = "settings.web.listen"

	// KeyWebAllowedDomains lists the domains whose pages may call the gateway.
	KeyWebAllowedDomains = "settings.web.allowed_domains"

	// Gateway rate limits. Throttling is off unless KeyWebThrottleTotalPerSec is positive.
	KeyWebThrottleTotalPerSec  = "settings.web.throttle.total_per_sec"
	KeyWebThrottleTotalBurst   = "settings.web.throttle.total_burst"
	KeyWebThrottleClientPerSec = "settings.web.throttle.client_per_sec"
	KeyWebThrottleClientBurst  = "settings.web.throttle.client_burst"

	KeyMCPEnabled = "settings.mcp.enabled"
)

// LoadFromFile loads the configuration file at cfgPath into the shared config.
// An empty path leaves the shared config untouched.
func LoadFromFile(cfgPath string) {
	if strings.TrimSpace(cfgPath) == "" {
		log.Logger.Debug("no configuration file given")
		return
	}

	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
}

// NicoSettings are the search API parameters resolved from flags and configuration.
type NicoSettings struct {
	Issuer  string
	Reason  string
	Timeout int
	BaseURL string
}

// LoadNicoSettings reads the search API settings from the shared config.
// Command line flags take precedence over the configuration file.
func LoadNicoSettings() NicoSettings {
	return NicoSettings{
		Issuer:  firstString("issuer", KeyNicoIssuer),
		Reason:  firstString("reason", KeyNicoReason),
		Timeout: firstInt("timeout", KeyNicoTimeoutMS),
		BaseURL: firstString("base-url", KeyNicoBaseURL),
	}
}

func firstString(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(gconfig.Shared.GetString(key)); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(keys ...string) int {
	for _, key := range keys {
		if v := gconfig.Shared.GetInt(key); v > 0 {
			return v
		}
	}
	return 0
}
