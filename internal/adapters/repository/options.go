package repository

import "github.com/okian/skatepark/pkg/metrics"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithTopCacheSize sets how many leading entries each snapshot caches.
func WithTopCacheSize(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.topCacheSize = n
		}
	}
}

// WithMetrics sets the metrics manager updates are reported to.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *TreapStore) {
		if m != nil {
			s.metrics = m
		}
	}
}
