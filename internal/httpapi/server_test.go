package httpapi_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hamed0406/availability/internal/availability"
	"github.com/hamed0406/availability/internal/httpapi"
	"github.com/hamed0406/availability/internal/metrics"
	"github.com/hamed0406/availability/internal/probe"
	"github.com/hamed0406/availability/internal/report"
)

var _ = Describe("Server", func() {
	var (
		agg    *availability.Aggregator
		exp    *metrics.Exporter
		router http.Handler
	)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Origin", "http://dashboard.local")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	BeforeEach(func() {
		agg = availability.New()
		exp = metrics.NewExporter(nil)
		router = httpapi.NewServer(nil, agg, exp.Handler()).Router()
	})

	Describe("GET /", func() {
		It("should return the banner with CORS allowed", func() {
			rr := do(http.MethodGet, "/")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(Equal(httpapi.Banner))
			Expect(rr.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("GET /healthz", func() {
		It("should answer ok", func() {
			rr := do(http.MethodGet, "/healthz")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(Equal("ok"))
		})
	})

	Describe("GET /metrics", func() {
		It("should expose the availability series", func() {
			agg.Update("first.test", probe.StatusUp)
			agg.Update("first.test", probe.StatusDown)
			Expect(exp.Report(context.Background(), report.Cycle{Probed: 2, Snapshot: agg.Snapshot()})).To(Succeed())

			rr := do(http.MethodGet, "/metrics")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(ContainSubstring("total_requests_count 2"))
			Expect(rr.Body.String()).To(ContainSubstring("available_perc_first_domain 50"))
		})
	})

	Describe("GET /api/availability", func() {
		It("should return an empty list before any probe", func() {
			rr := do(http.MethodGet, "/api/availability")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(strings.TrimSpace(rr.Body.String())).To(Equal(`{"domains":[],"total_probes":0}`))
		})

		It("should list domains in first-sighting order", func() {
			agg.Update("b.test", probe.StatusUp)
			agg.Update("a.test", probe.StatusDown)
			agg.Update("b.test", probe.StatusDown)

			rr := do(http.MethodGet, "/api/availability")
			Expect(rr.Code).To(Equal(http.StatusOK))

			var snap availability.Snapshot
			Expect(json.Unmarshal(rr.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.TotalProbes).To(Equal(uint64(3)))
			Expect(snap.Domains).To(HaveLen(2))
			Expect(snap.Domains[0].Domain).To(Equal("b.test"))
			Expect(snap.Domains[0].Percent).To(Equal(50.0))
			Expect(snap.Domains[1].Domain).To(Equal("a.test"))
			Expect(snap.Domains[1].Percent).To(BeZero())
		})

		It("should look up a single domain", func() {
			agg.Update("a.test", probe.StatusUp)

			rr := do(http.MethodGet, "/api/availability/a.test")
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(ContainSubstring(`"availability_percent":100`))

			rr = do(http.MethodGet, "/api/availability/missing.test")
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("ListenAndServe", func() {
		It("should stop when the context is cancelled", func() {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			addr := l.Addr().String()
			Expect(l.Close()).To(Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- httpapi.NewServer(nil, agg, nil).ListenAndServe(ctx, addr) }()

			Eventually(func() error {
				resp, err := http.Get("http://" + addr + "/healthz")
				if err == nil {
					resp.Body.Close()
				}
				return err
			}, 2*time.Second, 20*time.Millisecond).Should(Succeed())

			cancel()
			Eventually(done, 2*time.Second).Should(Receive(BeNil()))
		})
	})
})
