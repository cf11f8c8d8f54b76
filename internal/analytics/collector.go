package analytics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ignite/founder-insights/internal/insights"
)

// Collector polls the analytics collaborators on an interval so the redis
// cache stays warm and the dashboard has a recent snapshot even while the
// database is briefly unreachable. It never computes engine output; it only
// refreshes raw inputs.
type Collector struct {
	provider *Provider
	interval time.Duration

	mu        sync.RWMutex
	lastFetch time.Time
	lastOK    bool
}

// NewCollector creates a collector over the provider.
func NewCollector(provider *Provider, interval time.Duration) *Collector {
	return &Collector{provider: provider, interval: interval}
}

// Start begins the polling loop and blocks until the context is cancelled.
// Run it in a goroutine.
func (c *Collector) Start(ctx context.Context) {
	log.Println("Starting founder analytics collector...")

	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping founder analytics collector...")
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// refresh warms every collaborator payload for the default selections.
func (c *Collector) refresh(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ok := true
	for _, period := range []insights.Period{insights.Period7d, insights.Period30d} {
		if res := c.provider.StepCounts(fetchCtx, period, insights.TrackAll); res.Value == nil {
			ok = false
		}
	}
	if res := c.provider.ConfidenceSignals(fetchCtx); res.Value == nil {
		ok = false
	}
	if res := c.provider.BaselineMetrics(fetchCtx, insights.TrackAll); res.Value == nil {
		ok = false
	}
	if res := c.provider.EngagementSignals(fetchCtx); res.Value == nil {
		ok = false
	}
	if res := c.provider.RiskSignals(fetchCtx); res.Value == nil {
		ok = false
	}

	c.mu.Lock()
	c.lastFetch = time.Now()
	c.lastOK = ok
	c.mu.Unlock()
}

// GetLastFetchTime returns when the collector last completed a refresh pass.
func (c *Collector) GetLastFetchTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch
}

// Healthy reports whether the last refresh pass fetched every payload.
func (c *Collector) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastOK
}
