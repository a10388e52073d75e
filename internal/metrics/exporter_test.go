package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hamed0406/availability/internal/availability"
	"github.com/hamed0406/availability/internal/metrics"
	"github.com/hamed0406/availability/internal/probe"
	"github.com/hamed0406/availability/internal/report"
)

func gather(e *metrics.Exporter) map[string]float64 {
	families, err := e.Registry().Gather()
	Expect(err).NotTo(HaveOccurred())
	out := map[string]float64{}
	for _, f := range families {
		switch f.GetName() {
		case metrics.TotalRequestsName:
			out[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
		case metrics.FirstDomainPercName:
			out[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return out
}

var _ = Describe("Exporter", func() {
	var (
		e   *metrics.Exporter
		agg *availability.Aggregator
	)

	BeforeEach(func() {
		e = metrics.NewExporter(nil)
		agg = availability.New()
	})

	It("should start at zero", func() {
		got := gather(e)
		Expect(got[metrics.TotalRequestsName]).To(BeZero())
		Expect(got[metrics.FirstDomainPercName]).To(BeZero())
	})

	It("should count probes across cycles", func() {
		agg.Update("a.test", probe.StatusUp)
		agg.Update("b.test", probe.StatusDown)
		Expect(e.Report(context.Background(), report.Cycle{Probed: 2, Snapshot: agg.Snapshot()})).To(Succeed())

		agg.Update("a.test", probe.StatusUp)
		agg.Update("b.test", probe.StatusUp)
		Expect(e.Report(context.Background(), report.Cycle{Probed: 2, Snapshot: agg.Snapshot()})).To(Succeed())

		Expect(gather(e)[metrics.TotalRequestsName]).To(Equal(4.0))
	})

	It("should export only the first-sighted domain's percentage", func() {
		agg.Update("first.test", probe.StatusUp)
		agg.Update("first.test", probe.StatusDown)
		agg.Update("second.test", probe.StatusUp)
		Expect(e.Report(context.Background(), report.Cycle{Probed: 3, Snapshot: agg.Snapshot()})).To(Succeed())

		Expect(gather(e)[metrics.FirstDomainPercName]).To(Equal(50.0))
	})

	It("should leave the gauge alone when no domain is known", func() {
		Expect(e.Report(context.Background(), report.Cycle{})).To(Succeed())
		Expect(gather(e)[metrics.FirstDomainPercName]).To(BeZero())
	})

	It("should serve the text format", func() {
		agg.Update("first.test", probe.StatusUp)
		Expect(e.Report(context.Background(), report.Cycle{Probed: 1, Snapshot: agg.Snapshot()})).To(Succeed())

		srv := httptest.NewServer(e.Handler())
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("total_requests_count 1"))
		Expect(string(body)).To(ContainSubstring("available_perc_first_domain 100"))
		Expect(string(body)).To(ContainSubstring("go_goroutines"))
	})

	It("should register exactly one series per name", func() {
		n, err := testutil.GatherAndCount(e.Registry(), metrics.TotalRequestsName, metrics.FirstDomainPercName)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})
})
