package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/johngerving/3D-Building-Map-sub000/internal/engine"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the pipeline instruments. The global provider is a no-op
// unless an SDK has been installed.
type Metrics struct {
	floorsBuilt   metric.Int64Counter
	floorFailures metric.Int64Counter
	buildDuration metric.Float64Histogram
	staleDiscards metric.Int64Counter
}

// NewMetrics creates the pipeline instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	m := meter()
	var (
		mt  Metrics
		err error
	)

	mt.floorsBuilt, err = m.Int64Counter(
		"floorpipeline.floors.built",
		metric.WithDescription("Floors assembled successfully"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating floors built counter: %w", err)
	}

	mt.floorFailures, err = m.Int64Counter(
		"floorpipeline.floors.failed",
		metric.WithDescription("Floors that failed to fetch, parse or build"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating floor failures counter: %w", err)
	}

	mt.buildDuration, err = m.Float64Histogram(
		"floorpipeline.floor.duration",
		metric.WithDescription("Time to fetch, parse and assemble one floor"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating build duration histogram: %w", err)
	}

	mt.staleDiscards, err = m.Int64Counter(
		"floorpipeline.loads.stale",
		metric.WithDescription("Completed loads discarded because a newer load started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale discards counter: %w", err)
	}

	return &mt, nil
}

func (m *Metrics) floorDone(ctx context.Context, floorID string, start time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("floor", floorID))
	m.buildDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		m.floorFailures.Add(ctx, 1, attrs)
		return
	}
	m.floorsBuilt.Add(ctx, 1, attrs)
}

func (m *Metrics) staleDiscard(ctx context.Context) {
	if m == nil {
		return
	}
	m.staleDiscards.Add(ctx, 1)
}
