package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CacheConfig defines settings for the response cache middleware used on
// the public menu listing.  When Enabled is false or no Redis client is
// configured, caching is disabled.  MaxBodyBytes bounds what gets stored.
type CacheConfig struct {
	Enabled      bool          `envconfig:"CACHE_ENABLED" default:"true"`
	TTL          time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	Prefix       string        `envconfig:"CACHE_PREFIX" default:"cache"`
	MaxBodyBytes int           `envconfig:"CACHE_MAX_BODY_BYTES" default:"1048576"`
	// Methods is a comma separated list, e.g. "GET,HEAD".
	Methods []string `envconfig:"CACHE_METHODS" default:"GET"`
}

// LoadCacheConfig reads CACHE_* variables.  Methods are upper-cased.
func LoadCacheConfig() (CacheConfig, error) {
	var cc CacheConfig
	if err := envconfig.Process("", &cc); err != nil {
		return CacheConfig{}, err
	}
	for i, m := range cc.Methods {
		cc.Methods[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	if cc.TTL <= 0 {
		cc.TTL = 30 * time.Second
	}
	return cc, nil
}

// Caches reports whether responses to method should be cached.
func (cc CacheConfig) Caches(method string) bool {
	for _, m := range cc.Methods {
		if m == strings.ToUpper(method) {
			return true
		}
	}
	return false
}
