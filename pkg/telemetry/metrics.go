// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/varlog/pkg/errors"
)

// DispatchMetrics tracks operation invocations and failures.
type DispatchMetrics struct {
	// invocationCounter tracks total invocations by operation
	invocationCounter metric.Int64Counter

	// failureCounter tracks failed invocations by operation and error code
	failureCounter metric.Int64Counter

	// insightCounter tracks recorded insights
	insightCounter metric.Int64Counter
}

// NewDispatchMetrics creates a dispatch metrics tracker with OTEL meters.
func NewDispatchMetrics() (*DispatchMetrics, error) {
	meter := otel.Meter("varlog/dispatcher")

	invocationCounter, err := meter.Int64Counter(
		"varlog.operations.total",
		metric.WithDescription("Total operation invocations by operation name"),
	)
	if err != nil {
		return nil, err
	}

	failureCounter, err := meter.Int64Counter(
		"varlog.operations.failed",
		metric.WithDescription("Failed invocations by operation name and error code"),
	)
	if err != nil {
		return nil, err
	}

	insightCounter, err := meter.Int64Counter(
		"varlog.insights.total",
		metric.WithDescription("Insights recorded into the memo"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		invocationCounter: invocationCounter,
		failureCounter:    failureCounter,
		insightCounter:    insightCounter,
	}, nil
}

// RecordInvocation counts one invocation of the named operation.
func (dm *DispatchMetrics) RecordInvocation(ctx context.Context, operation string) {
	if dm == nil {
		return
	}
	dm.invocationCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("operation", operation)),
	)
}

// RecordFailure counts one failed invocation with its error code.
func (dm *DispatchMetrics) RecordFailure(ctx context.Context, operation string, err error) {
	if dm == nil || err == nil {
		return
	}
	code := errors.CodeInternal
	if ve := errors.AsVarlogError(err); ve != nil {
		code = ve.Code
	}
	dm.failureCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("error.code", string(code)),
		),
	)
}

// RecordInsight counts one recorded insight.
func (dm *DispatchMetrics) RecordInsight(ctx context.Context) {
	if dm == nil {
		return
	}
	dm.insightCounter.Add(ctx, 1)
}
