package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/recyclens/rag-service/internal/cache"
	"github.com/recyclens/rag-service/internal/metrics"
	"github.com/recyclens/rag-service/internal/observability"
)

const outcomeKeyPrefix = "outcome"

// OutcomeCache stores non-empty lookup outcomes keyed by index build and
// request. A nil *OutcomeCache never hits. Cache failures are logged and
// treated as misses.
type OutcomeCache struct {
	client  cache.Client
	ttl     time.Duration
	logger  *observability.Logger
	metrics *metrics.Metrics
}

type cachedOutcome struct {
	Regulations  string    `json:"regulations"`
	Sources      []string  `json:"sources"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	Terms        []string  `json:"terms"`
	CachedAt     time.Time `json:"cached_at"`
}

// NewOutcomeCache wraps client. A non-positive ttl defaults to 30 minutes.
func NewOutcomeCache(client cache.Client, ttl time.Duration, logger *observability.Logger, m *metrics.Metrics) *OutcomeCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &OutcomeCache{client: client, ttl: ttl, logger: logger, metrics: m}
}

// Key returns the cache key for req against the index build fingerprint.
// Context is not part of the key because it does not influence retrieval.
func (c *OutcomeCache) Key(fingerprint string, req Request) string {
	h := sha256.New()
	for _, part := range []string{req.Material, req.Location, req.Condition} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cache.Key(outcomeKeyPrefix, fingerprint, hex.EncodeToString(h.Sum(nil)))
}

// Get returns a cached outcome for req, if present.
func (c *OutcomeCache) Get(ctx context.Context, fingerprint string, req Request) (*Outcome, bool) {
	if c == nil || fingerprint == "" {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.Key(fingerprint, req))
	if errors.Is(err, cache.ErrCacheMiss) {
		c.metrics.ObserveCache("miss")
		return nil, false
	}
	if err != nil {
		c.metrics.ObserveCache("error")
		c.logger.Warn().Err(err).Msg("Outcome cache read failed")
		return nil, false
	}

	var co cachedOutcome
	if err := json.Unmarshal(data, &co); err != nil {
		c.metrics.ObserveCache("error")
		c.logger.Warn().Err(err).Msg("Discarding unreadable cached outcome")
		return nil, false
	}

	c.metrics.ObserveCache("hit")
	sources := co.Sources
	if sources == nil {
		sources = []string{}
	}
	return &Outcome{
		Regulations:  co.Regulations,
		Sources:      sources,
		Jurisdiction: co.Jurisdiction,
		Terms:        co.Terms,
		CacheHit:     true,
	}, true
}

// Put stores out unless it is empty.
func (c *OutcomeCache) Put(ctx context.Context, fingerprint string, req Request, out *Outcome) {
	if c == nil || fingerprint == "" || out == nil || out.Regulations == "" {
		return
	}

	data, err := json.Marshal(cachedOutcome{
		Regulations:  out.Regulations,
		Sources:      out.Sources,
		Jurisdiction: out.Jurisdiction,
		Terms:        out.Terms,
		CachedAt:     time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Outcome cache encode failed")
		return
	}

	if err := c.client.Set(ctx, c.Key(fingerprint, req), data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("Outcome cache write failed")
	}
}

// Invalidate drops every cached outcome.
func (c *OutcomeCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.DeleteByPrefix(ctx, outcomeKeyPrefix+":")
}
