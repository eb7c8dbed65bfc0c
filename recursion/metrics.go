// SPDX-License-Identifier: MIT

package recursion

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/katalvlaran/sdp/recursion")

var (
	statesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdp_states_generated_total",
		Help: "States created in a period space, by driver",
	}, []string{"driver"})

	statesReused = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdp_states_reused_total",
		Help: "Successor resolutions that hit an existing state, by driver",
	}, []string{"driver"})

	statesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdp_states_evaluated_total",
		Help: "States whose optimal action was computed, by driver",
	}, []string{"driver"})

	periodDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sdp_period_duration_seconds",
		Help:    "Time to process one period of a backward sweep",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	}, []string{"driver"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdp_runs_total",
		Help: "Completed runs by driver and result",
	}, []string{"driver", "result"})
)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span, counts the run and ends the span.
func endSpan(span trace.Span, driver string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	runsTotal.WithLabelValues(driver, result).Inc()
	span.End()
}
