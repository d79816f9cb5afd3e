package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector publishes the runtime counters over a prometheus
// endpoint.
type Collector struct {
	counters *Counters
	registry *prometheus.Registry
	server   *http.Server
}

// NewCollector registers gauges for every counter on a private
// prometheus registry.
func NewCollector(counters *Counters) (*Collector, error) {
	registry := prometheus.NewRegistry()
	c := &Collector{
		counters: counters,
		registry: registry,
	}

	gauges := []struct {
		name string
		help string
		fn   func() float64
	}{
		{"hivefs_fs_objects", "Live filesystem objects resident in PFS indexes.",
			func() float64 { return float64(counters.FSObjects()) }},
		{"hivefs_meta_objects", "Live metadata objects allocated by media stores.",
			func() float64 { return float64(counters.MetaObjects()) }},
		{"hivefs_io_units", "Resident cached I/O units across all devices.",
			func() float64 { return float64(counters.IOUnits()) }},
		{"hivefs_io_unit_limit", "Soft cap on resident cached I/O units.",
			func() float64 { return float64(counters.IOUnitLimit()) }},
	}
	for _, g := range gauges {
		gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, g.fn)
		if err := registry.Register(gauge); err != nil {
			return nil, fmt.Errorf("registering %s: %w", g.name, err)
		}
	}
	return c, nil
}

// Registry exposes the underlying prometheus registry so hosting
// environments can merge it into their own.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Start serves /metrics on the given port until Stop.
func (c *Collector) Start(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	c.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the metrics endpoint down.
func (c *Collector) Stop(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
