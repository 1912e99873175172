package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CacheConfig defines settings for the response cache middleware, which
// only wraps the report endpoint.  When Enabled is false or no Redis
// client is available, caching is disabled.  KeyStrategy chooses which
// parts of the request contribute to the key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func setCacheDefaults(v *viper.Viper) {
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_methods", "GET")
	v.SetDefault("cache_ttl", "30s")
	v.SetDefault("cache_key_strategy", "route_query")
	v.SetDefault("cache_prefix", "cache")
	v.SetDefault("cache_max_body_bytes", 1048576)
}

func loadCache(v *viper.Viper) CacheConfig {
	ttl := v.GetDuration("cache_ttl")
	if ttl <= 0 {
		ttl = time.Second
	}
	return CacheConfig{
		Enabled:      v.GetBool("cache_enabled"),
		Methods:      parseMethods(v.GetString("cache_methods")),
		TTL:          ttl,
		KeyStrategy:  v.GetString("cache_key_strategy"),
		Prefix:       v.GetString("cache_prefix"),
		MaxBodyBytes: v.GetInt("cache_max_body_bytes"),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
