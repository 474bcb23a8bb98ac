package schema

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of the registry. Requests capture one at
// entry and never observe later registrations.
type Snapshot struct {
	associations []Association
	schemas      map[string]*Loaded
	failures     map[string]error
}

// Schema returns the loaded schema for uri, if it has been resolved.
func (s *Snapshot) Schema(uri string) (*Loaded, bool) {
	l, ok := s.schemas[uri]
	return l, ok
}

// Failure returns the error recorded for uri, if loading failed.
func (s *Snapshot) Failure(uri string) error {
	return s.failures[uri]
}

// Associations returns every registered association.
func (s *Snapshot) Associations() []Association {
	return append([]Association(nil), s.associations...)
}

// Priority returns the highest priority any association gives uri.
func (s *Snapshot) Priority(uri string) int {
	p := 0
	for _, a := range s.associations {
		if a.URI == uri && a.Priority > p {
			p = a.Priority
		}
	}
	return p
}

// URIsFor lists the schema URIs associated with a document, highest
// priority first. A modeline in text replaces every association.
func (s *Snapshot) URIsFor(docURI, text string) []string {
	if ref, ok := Modeline(text); ok {
		return []string{ResolveModeline(docURI, ref)}
	}
	type ranked struct {
		uri      string
		priority int
	}
	var matched []ranked
	seen := make(map[string]int)
	for _, a := range s.associations {
		if !a.Matches(docURI) {
			continue
		}
		if j, ok := seen[a.URI]; ok {
			if a.Priority > matched[j].priority {
				matched[j].priority = a.Priority
			}
			continue
		}
		seen[a.URI] = len(matched)
		matched = append(matched, ranked{uri: a.URI, priority: a.Priority})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].priority > matched[j].priority
	})
	out := make([]string, len(matched))
	for i, m := range matched {
		out[i] = m.uri
	}
	return out
}

func (s *Snapshot) clone() *Snapshot {
	next := &Snapshot{
		associations: append([]Association(nil), s.associations...),
		schemas:      make(map[string]*Loaded, len(s.schemas)),
		failures:     make(map[string]error, len(s.failures)),
	}
	for k, v := range s.schemas {
		next.schemas[k] = v
	}
	for k, v := range s.failures {
		next.failures[k] = v
	}
	return next
}

// Registry owns the schema graphs. Readers use Snapshot; writers publish
// a modified copy with an atomic swap, so the last write wins.
type Registry struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu   sync.Mutex // serializes writers
	snap atomic.Pointer[Snapshot]
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(fetcher Fetcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Registry{fetcher: fetcher, logger: logger}
	r.snap.Store(&Snapshot{schemas: map[string]*Loaded{}, failures: map[string]error{}})
	return r
}

// Snapshot returns the current immutable view.
func (r *Registry) Snapshot() *Snapshot { return r.snap.Load() }

func (r *Registry) update(fn func(next *Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.snap.Load().clone()
	fn(next)
	r.snap.Store(next)
}

// Priority returns the highest priority registered for uri.
func (r *Registry) Priority(uri string) int { return r.Snapshot().Priority(uri) }

// Associate registers an association.
func (r *Registry) Associate(a Association) {
	r.update(func(next *Snapshot) {
		next.associations = append(next.associations, a)
	})
}

// Clear drops every association and loaded schema.
func (r *Registry) Clear() {
	r.update(func(next *Snapshot) {
		next.associations = nil
		next.schemas = map[string]*Loaded{}
		next.failures = map[string]error{}
	})
}

// Resolve returns the schema at uri, loading and caching it on first use.
// A failed load is cached too and logged once; Reset retries it.
func (r *Registry) Resolve(ctx context.Context, uri string) (*Loaded, error) {
	snap := r.Snapshot()
	if l, ok := snap.schemas[uri]; ok {
		return l, nil
	}
	if err, ok := snap.failures[uri]; ok {
		return nil, err
	}

	loaded, err := r.load(ctx, uri)
	if err != nil {
		r.logger.Warn("schema load failed", "uri", uri, "error", err)
		r.update(func(next *Snapshot) { next.failures[uri] = err })
		return nil, err
	}
	r.publish(uri, loaded)
	return loaded, nil
}

func (r *Registry) load(ctx context.Context, uri string) (*Loaded, error) {
	if r.fetcher == nil {
		return nil, ErrNotFound
	}
	data, err := r.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return Load(ctx, uri, data, r.fetcher)
}

func (r *Registry) publish(uri string, loaded *Loaded) {
	for _, err := range loaded.Errors {
		r.logger.Warn("schema reference unresolved", "uri", uri, "error", err)
	}
	r.update(func(next *Snapshot) {
		next.schemas[uri] = loaded
		delete(next.failures, uri)
	})
}

// Add registers schema content under id, replacing any earlier graph.
func (r *Registry) Add(ctx context.Context, id string, data []byte) (*Loaded, error) {
	loaded, err := Load(ctx, id, data, r.fetcher)
	if err != nil {
		return nil, err
	}
	r.publish(id, loaded)
	return loaded, nil
}

// Delete removes the schema registered under id and its associations.
func (r *Registry) Delete(id string) {
	r.update(func(next *Snapshot) {
		delete(next.schemas, id)
		delete(next.failures, id)
		kept := next.associations[:0]
		for _, a := range next.associations {
			if a.URI != id {
				kept = append(kept, a)
			}
		}
		next.associations = kept
	})
}

// Reset forgets the cached graph for uri so the next Resolve refetches it.
func (r *Registry) Reset(uri string) {
	r.update(func(next *Snapshot) {
		delete(next.schemas, uri)
		delete(next.failures, uri)
	})
}
