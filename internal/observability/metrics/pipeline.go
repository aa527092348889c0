package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

const namespace = "triage"

// pipelineCollectors count pipeline outcomes. Both the API and the worker
// embed them so synchronous and queued runs land in the same series.
type pipelineCollectors struct {
	service string

	claimsRouted     *prometheus.CounterVec
	pipelineFailures *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
}

func newPipelineCollectors(service string) *pipelineCollectors {
	return &pipelineCollectors{
		service: service,
		claimsRouted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "claims_routed_total",
				Help:      "Total persisted claims by routing queue.",
			},
			[]string{"service", "queue"},
		),
		pipelineFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "failures_total",
				Help:      "Total failed pipeline runs by failure reason.",
			},
			[]string{"service", "reason"},
		),
		pipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "duration_seconds",
				Help:      "Pipeline run duration in seconds, extraction included.",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
			},
			[]string{"service", "outcome"},
		),
	}
}

func (c *pipelineCollectors) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.claimsRouted, c.pipelineFailures, c.pipelineDuration}
}

func (c *pipelineCollectors) ClaimRouted(queue domain.Queue, duration time.Duration) {
	c.claimsRouted.WithLabelValues(c.service, string(queue)).Inc()
	c.pipelineDuration.WithLabelValues(c.service, "success").Observe(duration.Seconds())
}

func (c *pipelineCollectors) PipelineFailed(reason domain.FailureReason, duration time.Duration) {
	if reason == "" {
		reason = domain.ReasonInternal
	}
	c.pipelineFailures.WithLabelValues(c.service, string(reason)).Inc()
	c.pipelineDuration.WithLabelValues(c.service, "error").Observe(duration.Seconds())
}
