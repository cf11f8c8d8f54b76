package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ignite/founder-insights/internal/analytics"
	"github.com/ignite/founder-insights/internal/config"
	"github.com/ignite/founder-insights/internal/insights"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	provider  *analytics.Provider
	collector *analytics.Collector

	confidenceCfg insights.ConfidenceConfig
	blockerCfg    insights.BlockerConfig
	simulatorCfg  insights.SimulatorConfig

	startTime time.Time
}

// NewHandlers creates a new Handlers instance. The engine constants come from
// configuration so product can tune weights without a rebuild.
func NewHandlers(provider *analytics.Provider, insightsCfg config.InsightsConfig) *Handlers {
	return &Handlers{
		provider:      provider,
		confidenceCfg: insightsCfg.ConfidenceConfig(),
		blockerCfg:    insightsCfg.BlockerConfig(),
		simulatorCfg:  insightsCfg.SimulatorConfig(),
		startTime:     time.Now(),
	}
}

// SetCollector sets the background snapshot collector
func (h *Handlers) SetCollector(c *analytics.Collector) {
	h.collector = c
}

// HealthCheck returns service liveness plus database, cache and collector
// status. A degraded dependency does not fail the check; the endpoints serve
// safe defaults without it.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"timestamp":      time.Now(),
	}

	if h.provider != nil {
		if err := h.provider.PingStore(r.Context()); err != nil {
			status["database"] = "error: " + err.Error()
		} else {
			status["database"] = "ok"
		}
		if err := h.provider.PingCache(r.Context()); err != nil {
			status["cache"] = "disabled"
		} else {
			status["cache"] = "ok"
		}
	}

	if h.collector != nil {
		status["collector"] = map[string]interface{}{
			"last_fetch": h.collector.GetLastFetchTime(),
			"healthy":    h.collector.Healthy(),
		}
	}

	respondJSON(w, http.StatusOK, status)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
