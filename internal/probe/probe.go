package probe

import (
	"context"

	"github.com/hamed0406/availability/internal/endpoint"
)

// Classification policy. These are fixed and not configurable per endpoint.
const (
	MinHealthyStatus   = 200
	MaxHealthyStatus   = 299
	LatencyThresholdMS = 500.0
)

// Kind tags an Outcome.
type Kind int

const (
	// KindSuccess means a response was received; StatusCode and LatencyMS are set.
	KindSuccess Kind = iota
	// KindTransportFailure means no response: refused, timeout, DNS, TLS or a
	// malformed or truncated response. StatusCode is 0.
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTransportFailure:
		return "transport_failure"
	}
	return "unknown"
}

// Outcome is the result of a single probe.
//
// LatencyMS is wall clock time in milliseconds from just before the request
// was sent until the response body was read or the request failed.
type Outcome struct {
	Kind       Kind
	StatusCode int
	LatencyMS  float64
	Err        error
}

// Success builds the outcome of a probe that received a response.
func Success(statusCode int, latencyMS float64) Outcome {
	return Outcome{Kind: KindSuccess, StatusCode: statusCode, LatencyMS: latencyMS}
}

// TransportFailure builds the outcome of a probe that received no response.
func TransportFailure(err error, latencyMS float64) Outcome {
	return Outcome{Kind: KindTransportFailure, LatencyMS: latencyMS, Err: err}
}

// Status is the classification of an Outcome.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Classify is UP iff the probe got a 2xx response in under 500ms.
func Classify(o Outcome) Status {
	if o.Kind != KindSuccess {
		return StatusDown
	}
	if o.StatusCode < MinHealthyStatus || o.StatusCode > MaxHealthyStatus {
		return StatusDown
	}
	// written as !(a < b) so a NaN latency is DOWN
	if !(o.LatencyMS < LatencyThresholdMS) {
		return StatusDown
	}
	return StatusUp
}

// Prober performs exactly one request for a descriptor. Implementations must
// report transport problems through the Outcome, never by panicking.
type Prober interface {
	Probe(ctx context.Context, d endpoint.Descriptor) Outcome
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, d endpoint.Descriptor) Outcome

func (f ProberFunc) Probe(ctx context.Context, d endpoint.Descriptor) Outcome { return f(ctx, d) }
