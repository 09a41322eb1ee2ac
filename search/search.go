// Package search holds the retrieval strategies and the registry that
// resolves them by name.
package search

import (
	"context"
	"sort"
	"sync"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/model"
)

// Request describes one search over a single library.
type Request struct {
	LibraryID model.LibraryID
	Query     string
	K         int
}

// Strategy ranks the chunks of a library against a query.
type Strategy interface {
	// Name is the identifier clients select the strategy by.
	Name() string
	// Search returns at most req.K chunks ordered by descending score;
	// equal scores order by ascending chunk id.
	Search(ctx context.Context, req Request) ([]model.ScoredChunk, error)
}

// Registry is a name-keyed set of strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds or replaces a strategy under its name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get resolves a strategy by name. Unknown names are a validation error so
// the API layer reports them as a client mistake, not a server fault.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, core.NewValidationError("strategy", "unknown search strategy: "+name)
	}
	return s, nil
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateRequest(req Request) error {
	if req.K <= 0 {
		return core.NewValidationError("k", "must be positive")
	}
	return nil
}

// rank sorts scored chunks by descending score with ascending chunk id as the
// tie break, then truncates to k.
func rank(scored []model.ScoredChunk, k int) []model.ScoredChunk {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
