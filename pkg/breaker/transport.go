package breaker

import (
	"net"
	"net/http"
	"time"
)

// PoolConfig sizes the pooled transport under the breaker.
type PoolConfig struct {
	DialTimeout     time.Duration
	ResponseTimeout time.Duration
	MaxConnsPerHost int
}

// DefaultPoolConfig returns connection pool defaults for the search cluster.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		DialTimeout:     5 * time.Second,
		ResponseTimeout: 10 * time.Second,
		MaxConnsPerHost: 100,
	}
}

// NewPooledTransport returns an *http.Transport with keep-alive pooling and
// bounded dial and response-header timeouts.
func NewPooledTransport(cfg PoolConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.ResponseTimeout,
		ExpectContinueTimeout: time.Second,
	}
}
