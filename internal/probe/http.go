package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/availability/internal/endpoint"
)

// DefaultTimeout bounds a single probe so one hung endpoint cannot stall a
// cycle indefinitely.
const DefaultTimeout = 10 * time.Second

// HTTPProber issues one HTTP request per Probe call. It keeps no state
// between calls besides the client's connection pool.
type HTTPProber struct {
	Client *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProber{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPProber) Probe(ctx context.Context, d endpoint.Descriptor) Outcome {
	var body io.Reader
	if len(d.Body) > 0 {
		body = bytes.NewReader(d.Body)
	}
	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, body)
	if err != nil {
		return TransportFailure(err, 0)
	}
	for k, v := range d.Headers {
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		return TransportFailure(err, sinceMS(start))
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := sinceMS(start)
	if err != nil {
		return TransportFailure(fmt.Errorf("read body: %w", err), latency)
	}
	return Success(resp.StatusCode, latency)
}

func sinceMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
