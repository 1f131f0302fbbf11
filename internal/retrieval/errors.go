// Package retrieval finds the recycling regulations for a material in a
// jurisdiction by querying the vector index with expanded material terms and
// keeping the best result set.
package retrieval

import "errors"

var (
	// ErrIndexNotFound means no index directory exists at the configured path.
	// Callers treat it as "no regulation data available".
	ErrIndexNotFound = errors.New("regulations index not found")

	// ErrMissingCredential means the embedding provider API key is not set.
	ErrMissingCredential = errors.New("embedding API key not set")

	// ErrLoadFailure means the index directory exists but could not be loaded.
	ErrLoadFailure = errors.New("regulations index failed to load")

	// ErrRetrievalFailure wraps a failed retrieval for a single term.
	ErrRetrievalFailure = errors.New("retrieval failed")
)
