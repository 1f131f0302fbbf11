package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recyclens/rag-service/internal/jurisdiction"
	"github.com/recyclens/rag-service/internal/materials"
	"github.com/recyclens/rag-service/internal/metrics"
	"github.com/recyclens/rag-service/internal/observability"
)

// RetrieverSource supplies the retriever for a lookup and identifies the index
// build behind it. *Engine implements it.
type RetrieverSource interface {
	Retriever(ctx context.Context) (Retriever, error)
	Fingerprint() string
}

// Request is one regulations lookup. Context is free text from the caller; it
// is logged but does not change the query.
type Request struct {
	Material  string
	Location  string
	Condition string
	Context   string
}

// Outcome is the result of a lookup. Regulations and Sources always come from
// the same result set.
type Outcome struct {
	Regulations  string
	Sources      []string
	Jurisdiction string
	Terms        []string
	Attempts     []Attempt
	CacheHit     bool
}

// Empty reports whether the lookup found nothing.
func (o *Outcome) Empty() bool {
	return o == nil || (o.Regulations == "" && len(o.Sources) == 0)
}

// Service answers regulations lookups.
type Service struct {
	logger   *observability.Logger
	source   RetrieverSource
	selector *Selector
	cache    *OutcomeCache
	metrics  *metrics.Metrics
}

// NewService creates a service. outcomes may be nil to disable caching.
func NewService(logger *observability.Logger, source RetrieverSource, outcomes *OutcomeCache, m *metrics.Metrics) *Service {
	return &Service{
		logger:   logger,
		source:   source,
		selector: NewSelector(logger, m),
		cache:    outcomes,
		metrics:  m,
	}
}

// Lookup runs the full lookup and reports failures as errors: ErrIndexNotFound,
// ErrMissingCredential or ErrLoadFailure. Per-term retrieval failures are not
// errors; they appear on Outcome.Attempts.
func (s *Service) Lookup(ctx context.Context, req Request) (out *Outcome, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveQuery(outcomeLabel(out, err), time.Since(start))
	}()

	r, err := s.source.Retriever(ctx)
	if err != nil {
		return nil, err
	}

	fingerprint := s.source.Fingerprint()
	if cached, ok := s.cache.Get(ctx, fingerprint, req); ok {
		return cached, nil
	}

	target := Target{Location: req.Location, Condition: req.Condition}
	jurisdictionTag := ""
	if j, ok := jurisdiction.Resolve(req.Location); ok {
		target.Jurisdiction = &j
		jurisdictionTag = string(j.Tag)
	}

	terms := materials.Expand(req.Material)
	sel := s.selector.Select(ctx, r, terms, target)

	out = &Outcome{
		Regulations:  sel.Best.Text,
		Sources:      sel.Best.Sources,
		Jurisdiction: jurisdictionTag,
		Terms:        terms,
		Attempts:     sel.Attempts,
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}

	s.logger.WithContext(ctx).Info().
		Str("material", req.Material).
		Str("location", req.Location).
		Str("jurisdiction", jurisdictionTag).
		Strs("terms", terms).
		Int("attempts", len(sel.Attempts)).
		Str("winning_term", sel.Best.Term).
		Int("text_len", len(out.Regulations)).
		Int("sources", len(out.Sources)).
		Int("context_len", len(req.Context)).
		Dur("elapsed", time.Since(start)).
		Msg("Regulations lookup finished")

	// An interrupted or partly failed selection is returned but never cached.
	switch {
	case ctx.Err() != nil:
		s.logger.WithContext(ctx).Debug().Err(ctx.Err()).Msg("Lookup interrupted, outcome not cached")
	case sel.Degraded():
		s.logger.WithContext(ctx).Debug().Msg("Lookup had retrieval failures, outcome not cached")
	default:
		s.cache.Put(ctx, fingerprint, req, out)
	}
	return out, nil
}

// Query is the fail-open entry point: it never returns an error. Any failure,
// including a missing index, is logged and yields empty text and no sources.
func (s *Service) Query(ctx context.Context, material, location, condition, extra string) (regulations string, sources []string) {
	logger := s.logger.WithContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().
				Str("material", material).
				Str("location", location).
				Str("panic", fmt.Sprint(rec)).
				Msg("Regulations lookup panicked")
			regulations, sources = "", []string{}
		}
	}()

	out, err := s.Lookup(ctx, Request{
		Material:  material,
		Location:  location,
		Condition: condition,
		Context:   extra,
	})
	if err != nil {
		var evt *observability.LogEvent
		if errors.Is(err, ErrIndexNotFound) {
			evt = logger.Warn()
		} else {
			evt = logger.Error()
		}
		evt.Err(err).
			Str("material", material).
			Str("location", location).
			Msg("Regulations lookup failed, returning empty result")
		return "", []string{}
	}

	return out.Regulations, out.Sources
}

func outcomeLabel(out *Outcome, err error) string {
	switch {
	case errors.Is(err, ErrIndexNotFound):
		return metrics.OutcomeNoIndex
	case err != nil, out == nil:
		return metrics.OutcomeError
	case out.CacheHit:
		return metrics.OutcomeCacheHit
	case out.Empty():
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeFound
	}
}
