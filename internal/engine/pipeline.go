package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
)

// ErrDuplicateFloor is returned when a floor id appears more than once.
var ErrDuplicateFloor = errors.New("duplicate floor id")

// FloorError identifies the floor whose load failed.
type FloorError struct {
	FloorID string
	Err     error
}

func (e *FloorError) Error() string {
	return fmt.Sprintf("floor %s: %v", e.FloorID, e.Err)
}

func (e *FloorError) Unwrap() error { return e.Err }

// Fetcher resolves a floor's svgSource to the SVG document bytes.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, source string) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	return f(ctx, source)
}

// StaticFetcher serves SVG markup from memory, keyed by source.
type StaticFetcher map[string]string

func (s StaticFetcher) Fetch(_ context.Context, source string) (io.ReadCloser, error) {
	svg, ok := s[source]
	if !ok {
		return nil, fmt.Errorf("svg source %q not found", source)
	}
	return io.NopCloser(strings.NewReader(svg)), nil
}

// Pipeline builds positioned floor groups from floor specs.
type Pipeline struct {
	fetcher     Fetcher
	builder     *Builder
	logger      *slog.Logger
	metrics     *Metrics
	concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for parse warnings and progress.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithConcurrency limits the number of floors loaded at once. Zero or less
// loads every floor concurrently.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// NewPipeline creates a pipeline that fetches SVGs through f.
func NewPipeline(f Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.builder = NewBuilder(p.logger)
	return p
}

// LoadFloors fetches, parses and assembles every floor concurrently. The
// result is index-aligned with floors. If any floor fails the whole load
// fails with a *FloorError naming it, remaining loads are cancelled and no
// groups are returned.
func (p *Pipeline) LoadFloors(ctx context.Context, floors []document.FloorSpec) ([]*FloorGroup, error) {
	seen := make(map[string]bool, len(floors))
	for _, f := range floors {
		if seen[f.ID] {
			return nil, &FloorError{FloorID: f.ID, Err: ErrDuplicateFloor}
		}
		seen[f.ID] = true
	}

	stack := NewStack(floors)
	groups := make([]*FloorGroup, len(floors))

	eg, egCtx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		eg.SetLimit(p.concurrency)
	}
	for i, spec := range floors {
		eg.Go(func() error {
			g, err := p.LoadFloor(egCtx, spec, stack.Height(i))
			if err != nil {
				return err
			}
			groups[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info("floors loaded", "count", len(groups))
	return groups, nil
}

// LoadFloor fetches and parses one floor and assembles it at stackY.
func (p *Pipeline) LoadFloor(ctx context.Context, spec document.FloorSpec, stackY float64) (g *FloorGroup, err error) {
	start := time.Now()
	defer func() {
		p.metrics.floorDone(ctx, spec.ID, start, err)
		if err != nil {
			err = &FloorError{FloorID: spec.ID, Err: err}
		}
	}()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	rc, err := p.fetcher.Fetch(ctx, spec.SVGSource)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", spec.SVGSource, err)
	}
	defer rc.Close()

	doc, err := svgdoc.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", spec.SVGSource, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.BuildFloor(doc, spec, stackY, AssembleOptions{}), nil
}

// BuildFloor runs classification, building, merging and assembly on an
// already parsed document. It never fails; authoring problems are returned
// as warnings on the group.
func (p *Pipeline) BuildFloor(doc *svgdoc.Document, spec document.FloorSpec, stackY float64, opts AssembleOptions) *FloorGroup {
	classified, warnings := ClassifyDocument(doc, p.logger.With("floor", spec.ID))
	batches := p.builder.Build(classified, spec)
	merged := MergeBatches(batches)

	g := Assemble(merged, spec, stackY, opts)
	g.Warnings = warnings

	p.logger.Debug("floor assembled",
		"floor", spec.ID,
		"layers", len(classified.Order),
		"meshes", len(g.Meshes),
		"warnings", len(warnings),
	)
	return g
}
