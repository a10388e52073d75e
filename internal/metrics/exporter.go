package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/availability/internal/report"
)

const (
	TotalRequestsName   = "total_requests_count"
	FirstDomainPercName = "available_perc_first_domain"
)

type Exporter struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	totalRequests prometheus.Counter
	firstDomain   prometheus.Gauge
}

// NewExporter registers the availability series plus the standard Go and
// process collectors on a private registry.
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		totalRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: TotalRequestsName,
			Help: "Total number of requests",
		}),
		firstDomain: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: FirstDomainPercName,
			Help: "Availability percentage of the first domain",
		}),
	}
	e.registry.MustRegister(
		e.totalRequests,
		e.firstDomain,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return e
}

// Report adds the cycle's probes to the counter and moves the gauge to the
// first domain's current percentage.
func (e *Exporter) Report(_ context.Context, c report.Cycle) error {
	if c.Probed > 0 {
		e.totalRequests.Add(float64(c.Probed))
	}
	if first, ok := c.Snapshot.First(); ok {
		e.firstDomain.Set(first.Percent)
		e.logger.Debug("metrics_updated",
			zap.String("first_domain", first.Domain),
			zap.Float64("availability_percent", first.Percent),
			zap.Int("probed", c.Probed),
		)
	}
	return nil
}

// Registry is exposed for tests and for callers that add their own collectors.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}
