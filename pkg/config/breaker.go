package config

import "time"

// BreakerConfig tunes the circuit breaker (C1) for one endpoint. Zero
// values fall through to pkg/breaker's own defaults (fail_max=5,
// reset_timeout=60s) — config only needs to carry overrides.
type BreakerConfig struct {
	FailMax      uint32        `yaml:"fail_max,omitempty"`
	ResetTimeout time.Duration `yaml:"reset_timeout,omitempty"`
}

// CacheConfig tunes the HTTP cache TTL (C2) for one endpoint.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl,omitempty"`
}
