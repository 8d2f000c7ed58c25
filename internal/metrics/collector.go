package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Snapshot is a point-in-time copy of the collector's counters.
// It never contains secret values or key names.
type Snapshot struct {
	Resolutions    int64            `json:"resolutions"`
	CacheHits      int64            `json:"cache_hits"`
	CacheMisses    int64            `json:"cache_misses"`
	NotFound       int64            `json:"not_found"`
	OriginUsage    map[string]int64 `json:"origin_usage"`
	ProviderErrors map[string]int64 `json:"provider_errors"`
	AvgLatency     time.Duration    `json:"avg_latency_ns"`
	HitRatio       float64          `json:"hit_ratio"`
}

// Collector counts cache and resolution events.
//
// Counters are kept in memory for Snapshot and, when a Registerer is supplied,
// mirrored into Prometheus instruments.
type Collector struct {
	mu sync.Locker

	resolutions    int64
	cacheHits      int64
	cacheMisses    int64
	notFound       int64
	originUsage    map[string]int64
	providerErrors map[string]int64
	totalLatency   time.Duration

	prom *instruments
}

type instruments struct {
	resolutions    *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	notFound       prometheus.Counter
	providerErrors *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	depth          *prometheus.HistogramVec
}

// Option configures a Collector.
type Option func(*Collector)

// WithLocker shares l with the collector's owner. l must not be held when
// calling the collector.
func WithLocker(l sync.Locker) Option {
	return func(c *Collector) {
		c.mu = l
	}
}

// WithRegisterer mirrors counters into Prometheus instruments registered on reg.
// A nil reg disables Prometheus.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Collector) {
		if reg != nil {
			c.prom = newInstruments(reg)
		}
	}
}

// New creates a collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		mu:             &sync.Mutex{},
		originUsage:    make(map[string]int64),
		providerErrors: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newInstruments(reg prometheus.Registerer) *instruments {
	factory := promauto.With(reg)
	return &instruments{
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unisecret_resolutions_total",
				Help: "Total number of successful secret resolutions",
			},
			[]string{"origin"},
		),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "unisecret_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "unisecret_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		notFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "unisecret_not_found_total",
			Help: "Total number of resolutions no provider could answer",
		}),
		providerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unisecret_provider_errors_total",
				Help: "Total number of provider transport failures",
			},
			[]string{"provider"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unisecret_resolution_duration_seconds",
				Help:    "Duration of secret resolutions in seconds",
				Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"origin"},
		),
		depth: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unisecret_resolution_depth",
				Help:    "1-based index of the provider that answered (0 for cache)",
				Buckets: []float64{0, 1, 2, 3, 4},
			},
			[]string{"origin"},
		),
	}
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.cacheHits.Inc()
	}
}

// RecordCacheMiss counts a cache miss.
func (c *Collector) RecordCacheMiss() {
	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.cacheMisses.Inc()
	}
}

// RecordResolution counts a successful resolution from origin at depth.
// depth is 0 for cache hits, otherwise the 1-based provider index.
func (c *Collector) RecordResolution(origin string, depth int, latency time.Duration) {
	c.mu.Lock()
	c.resolutions++
	c.originUsage[origin]++
	c.totalLatency += latency
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.resolutions.WithLabelValues(origin).Inc()
		c.prom.duration.WithLabelValues(origin).Observe(latency.Seconds())
		c.prom.depth.WithLabelValues(origin).Observe(float64(depth))
	}
}

// RecordProviderError counts a transport failure in the named provider.
func (c *Collector) RecordProviderError(providerName string) {
	c.mu.Lock()
	c.providerErrors[providerName]++
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.providerErrors.WithLabelValues(providerName).Inc()
	}
}

// RecordNotFound counts a resolution that exhausted every provider.
func (c *Collector) RecordNotFound() {
	c.mu.Lock()
	c.notFound++
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.notFound.Inc()
	}
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Resolutions:    c.resolutions,
		CacheHits:      c.cacheHits,
		CacheMisses:    c.cacheMisses,
		NotFound:       c.notFound,
		OriginUsage:    make(map[string]int64, len(c.originUsage)),
		ProviderErrors: make(map[string]int64, len(c.providerErrors)),
	}
	for k, v := range c.originUsage {
		s.OriginUsage[k] = v
	}
	for k, v := range c.providerErrors {
		s.ProviderErrors[k] = v
	}
	if c.resolutions > 0 {
		s.AvgLatency = c.totalLatency / time.Duration(c.resolutions)
	}
	if lookups := c.cacheHits + c.cacheMisses; lookups > 0 {
		s.HitRatio = float64(c.cacheHits) / float64(lookups)
	}
	return s
}
