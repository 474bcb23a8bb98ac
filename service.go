// Package yamlls provides language intelligence for YAML documents
// described by JSON schemas: completion, validation, hover and alias
// definitions.
package yamlls

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// maxConcurrentFetches bounds the schema loads Configure runs at once.
const maxConcurrentFetches = 4

// Service answers language requests for open documents. It is safe for
// concurrent use; requests on different documents never interfere.
type Service struct {
	logger   *slog.Logger
	provider *schema.Provider
	registry *schema.Registry
	docs     *documentStore

	settings atomic.Pointer[Settings]

	configMu sync.Mutex
	inline   []string // ids registered inline by the last Configure
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithProvider replaces the schema provider.
func WithProvider(p *schema.Provider) Option {
	return func(s *Service) { s.provider = p }
}

// New creates a Service with DefaultSettings and no schemas.
func New(opts ...Option) *Service {
	s := &Service{docs: newDocumentStore()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.provider == nil {
		s.provider = schema.NewProvider()
	}
	s.registry = schema.NewRegistry(s.provider, s.logger)
	defaults := DefaultSettings()
	s.settings.Store(&defaults)
	return s
}

// Settings returns the settings in effect.
func (s *Service) Settings() Settings { return *s.settings.Load() }

// Registry exposes the schema registry.
func (s *Service) Registry() *schema.Registry { return s.registry }

// Configure replaces the settings and every configured schema. Schemas
// are fetched concurrently; the settings apply even when some of them
// fail, and the first failure is returned.
func (s *Service) Configure(ctx context.Context, settings Settings) error {
	if err := settings.Check(); err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	s.registry.Clear()
	for _, id := range s.inline {
		s.provider.DeleteInline(id)
	}
	s.inline = nil

	var uris []string
	seen := make(map[string]bool)
	register := func(a schema.Association) {
		s.registry.Associate(a)
		if !seen[a.URI] {
			seen[a.URI] = true
			uris = append(uris, a.URI)
		}
	}

	for _, sc := range settings.Schemas {
		id := schema.CheckSchemaURI(settings.WorkspaceRoot, sc.URI)
		if sc.Inline != "" {
			s.provider.SetInline(id, []byte(sc.Inline))
			s.inline = append(s.inline, id)
		}
		priority := sc.Priority
		if priority == 0 {
			priority = schema.PrioritySettings
		}
		register(schema.Association{URI: id, Name: sc.Name, FileMatch: sc.FileMatch, Priority: priority})
	}
	if len(settings.Kubernetes) > 0 {
		register(schema.Association{
			URI:       schema.KubernetesSchemaURL,
			Name:      "kubernetes",
			FileMatch: settings.Kubernetes,
			Priority:  schema.PrioritySettings,
		})
	}
	s.settings.Store(&settings)

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFetches)
	for _, u := range uris {
		g.Go(func() error {
			if _, err := s.registry.Resolve(ctx, u); err != nil {
				return fmt.Errorf("load schema %s: %w", u, err)
			}
			return nil
		})
	}
	err := g.Wait()
	s.logger.Info("settings applied", "schemas", len(uris), "validate", settings.Validate,
		"hover", settings.Hover, "completion", settings.Completion)
	return err
}

// Associate adds a schema association without touching the others.
func (s *Service) Associate(a schema.Association) {
	if a.Priority == 0 {
		a.Priority = schema.PriorityAssociation
	}
	s.registry.Associate(a)
}

// AddSchema registers schema content under id, replacing an earlier one.
func (s *Service) AddSchema(ctx context.Context, id string, data []byte) error {
	s.provider.SetInline(id, data)
	if _, err := s.registry.Add(ctx, id, data); err != nil {
		s.provider.DeleteInline(id)
		return fmt.Errorf("add schema %s: %w", id, err)
	}
	return nil
}

// DeleteSchema removes the schema registered under id.
func (s *Service) DeleteSchema(id string) {
	s.provider.DeleteInline(id)
	s.registry.Delete(id)
}

// ResetSchema drops the cached graph for uri; the next request refetches.
func (s *Service) ResetSchema(uri string) {
	s.registry.Reset(uri)
}

// Open stores the text of a document.
func (s *Service) Open(docURI string, version int32, text string) {
	s.update(docURI, version, text)
}

// Change replaces the text of an open document. Versions older than the
// stored one are ignored.
func (s *Service) Change(docURI string, version int32, text string) {
	s.update(docURI, version, text)
}

func (s *Service) update(docURI string, version int32, text string) {
	file, changed := s.docs.put(docURI, version, text)
	if !changed {
		s.logger.Debug("stale document version ignored", "uri", docURI, "version", version)
		return
	}
	if file.Err != nil {
		s.logger.Debug("document parse failed", "uri", docURI, "error", file.Err)
	}
}

// Close forgets a document.
func (s *Service) Close(docURI string) { s.docs.remove(docURI) }

// Documents lists the URIs of open documents.
func (s *Service) Documents() []string { return s.docs.uris() }

// File returns the latest parse of an open document.
func (s *Service) File(docURI string) (*document.File, error) {
	f, err := s.docs.get(docURI)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", docURI, err)
	}
	return f, nil
}

// schemasFor resolves the schemas associated with a document. The first
// is the one with the highest priority; combined joins all of them.
func (s *Service) schemasFor(ctx context.Context, docURI, text string) (primary, combined *schema.Schema) {
	var roots []*schema.Schema
	for _, u := range s.registry.Snapshot().URIsFor(docURI, text) {
		loaded, err := s.registry.Resolve(ctx, u)
		if err != nil {
			continue
		}
		roots = append(roots, loaded.Root)
	}
	if len(roots) == 0 {
		return nil, nil
	}
	return roots[0], schema.Combine(docURI, roots...)
}

// Complete returns completion candidates at pos.
func (s *Service) Complete(ctx context.Context, docURI string, pos document.Position) (*CompletionList, error) {
	list := &CompletionList{Items: []CompletionItem{}}
	f, err := s.File(docURI)
	if err != nil {
		return list, err
	}
	settings := s.Settings()
	if !settings.Completion {
		return list, nil
	}
	s.guard(ctx, "completion", docURI, func(ctx context.Context) int {
		_, root := s.schemasFor(ctx, docURI, f.Text)
		if items := complete(f.Text, root, f.Lines.OffsetAt(pos), settings.indentation()); items != nil {
			list.Items = items
		}
		return len(list.Items)
	})
	return list, nil
}

// Validate returns the diagnostics of a document against its primary
// schema. Syntax errors are reported without any schema.
func (s *Service) Validate(ctx context.Context, docURI string) ([]Diagnostic, error) {
	f, err := s.File(docURI)
	if err != nil {
		return nil, err
	}
	if !s.Settings().Validate {
		return nil, nil
	}
	var diags []Diagnostic
	s.guard(ctx, "validate", docURI, func(ctx context.Context) int {
		primary, _ := s.schemasFor(ctx, docURI, f.Text)
		res := Validate(f, primary)
		res.SortByPosition()
		diags = res.Diagnostics
		return len(diags)
	})
	return diags, nil
}

// Hover describes the node at pos, or returns nil.
func (s *Service) Hover(ctx context.Context, docURI string, pos document.Position) (*Hover, error) {
	f, err := s.File(docURI)
	if err != nil {
		return nil, err
	}
	settings := s.Settings()
	if !settings.Hover {
		return nil, nil
	}
	var h *Hover
	s.guard(ctx, "hover", docURI, func(ctx context.Context) int {
		_, root := s.schemasFor(ctx, docURI, f.Text)
		h = hoverAt(f, root, f.Lines.OffsetAt(pos), settings.indentation())
		if h == nil {
			return 0
		}
		return 1
	})
	return h, nil
}

// Definition resolves the alias at pos to its anchor.
func (s *Service) Definition(ctx context.Context, docURI string, pos document.Position) ([]LocationLink, error) {
	f, err := s.File(docURI)
	if err != nil {
		return nil, err
	}
	var links []LocationLink
	s.guard(ctx, "definition", docURI, func(context.Context) int {
		links = DefinitionAt(f, f.Lines.OffsetAt(pos))
		return len(links)
	})
	return links, nil
}

// guard runs one request under a span. A panic is logged, counted and
// turned into the empty result the caller already holds.
func (s *Service) guard(ctx context.Context, op, docURI string, fn func(ctx context.Context) int) {
	ctx, span := startRequestSpan(ctx, op, docURI)
	defer span.End()

	start := time.Now()
	results, success := 0, true
	defer func() {
		if r := recover(); r != nil {
			success = false
			s.logger.Error("request failed", "operation", op, "uri", docURI,
				"panic", r, "stack", string(debug.Stack()))
			recordInternalError(ctx, op)
			span.SetStatus(codes.Error, fmt.Sprint(r))
		}
		span.SetAttributes(
			attribute.Int("yamlls.result_count", results),
			attribute.Bool("yamlls.success", success),
		)
		recordRequest(ctx, op, time.Since(start), results, success)
	}()
	results = fn(ctx)
}
