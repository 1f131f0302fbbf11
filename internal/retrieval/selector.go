package retrieval

import (
	"context"
	"fmt"

	"github.com/recyclens/rag-service/internal/jurisdiction"
	"github.com/recyclens/rag-service/internal/metrics"
	"github.com/recyclens/rag-service/internal/observability"
)

// Target is the place and condition a selection runs for.
type Target struct {
	Jurisdiction *jurisdiction.Jurisdiction
	Location     string
	Condition    string
}

// Attempt records what happened for one term.
type Attempt struct {
	Term        string
	Query       string
	Nodes       int
	TextLen     int
	SourceCount int
	Replaced    bool  // became the running best
	Err         error // wraps ErrRetrievalFailure
}

// Selection is the winning result set plus the path taken to it.
type Selection struct {
	Best     ResultSet
	Attempts []Attempt
}

// Degraded reports whether any term failed to retrieve, so Best may be
// worse than a healthy run would produce.
func (s Selection) Degraded() bool {
	for _, a := range s.Attempts {
		if a.Err != nil {
			return true
		}
	}
	return false
}

// Selector queries terms in order and keeps the best result set.
type Selector struct {
	logger  *observability.Logger
	metrics *metrics.Metrics
}

// NewSelector creates a selector.
func NewSelector(logger *observability.Logger, m *metrics.Metrics) *Selector {
	return &Selector{logger: logger, metrics: m}
}

// Select retrieves for each term in order. It stops as soon as the best set
// has both text and a source. A failed retrieval is logged and recorded on its
// Attempt, and the next term is tried. If nothing is found the returned Best
// is empty.
func (s *Selector) Select(ctx context.Context, r Retriever, terms []string, target Target) Selection {
	sel := Selection{Best: ResultSet{Sources: []string{}}}

	for _, term := range terms {
		if ctx.Err() != nil {
			s.logger.Warn().Err(ctx.Err()).Str("term", term).Msg("Selection cancelled")
			break
		}

		query := BuildQuery(term, target.Jurisdiction, target.Location, target.Condition)
		attempt := Attempt{Term: term, Query: query}

		nodes, err := r.Retrieve(ctx, query)
		if err != nil {
			attempt.Err = fmt.Errorf("%w for %q: %w", ErrRetrievalFailure, query, err)
			sel.Attempts = append(sel.Attempts, attempt)
			s.metrics.ObserveTerm("error")
			s.logger.Warn().
				Err(err).
				Str("term", term).
				Str("query", query).
				Msg("Retrieval failed for term, trying next")
			continue
		}

		attempt.Nodes = len(nodes)
		if len(nodes) == 0 {
			sel.Attempts = append(sel.Attempts, attempt)
			s.metrics.ObserveTerm("empty")
			s.logger.Debug().Str("term", term).Str("query", query).Msg("No nodes for term")
			continue
		}
		s.metrics.ObserveTerm("hit")

		text, sources := collect(nodes)
		candidate := ResultSet{Term: term, Query: query, Text: text, Sources: sources}
		attempt.TextLen = len(text)
		attempt.SourceCount = len(sources)

		if candidate.beats(sel.Best) {
			sel.Best = candidate
			attempt.Replaced = true
		}
		sel.Attempts = append(sel.Attempts, attempt)

		s.logger.Debug().
			Str("term", term).
			Str("query", query).
			Int("nodes", len(nodes)).
			Int("text_len", len(text)).
			Int("sources", len(sources)).
			Bool("replaced", attempt.Replaced).
			Msg("Term retrieved")

		if sel.Best.Complete() {
			break
		}
	}

	s.metrics.ObserveTermsAttempted(len(sel.Attempts))
	return sel
}
