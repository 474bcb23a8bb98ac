package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.lsp.dev/uri"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrNotFound reports a schema URI that has no content.
	ErrNotFound = errors.New("schema not found")
	// ErrUnsupportedScheme reports a URI scheme the provider cannot read.
	ErrUnsupportedScheme = errors.New("unsupported schema URI scheme")
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxSchemaSize      = 32 << 20
)

// Provider reads schema documents from files, HTTP(S) and inline
// registrations. Concurrent fetches of one URI share a single request.
type Provider struct {
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group

	mu     sync.RWMutex
	inline map[string][]byte
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.client = c }
}

// WithRateLimit bounds outgoing HTTP schema requests.
func WithRateLimit(r rate.Limit, burst int) ProviderOption {
	return func(p *Provider) { p.limiter = rate.NewLimiter(r, burst) }
}

// NewProvider creates a Provider. HTTP requests default to four per second.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limiter: rate.NewLimiter(rate.Limit(4), 8),
		inline:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetInline registers schema content under id. Inline content takes
// precedence over any other source for the same id.
func (p *Provider) SetInline(id string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inline[id] = data
}

// DeleteInline removes an inline registration.
func (p *Provider) DeleteInline(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inline, id)
}

// Fetch returns the raw schema document at target.
func (p *Provider) Fetch(ctx context.Context, target string) ([]byte, error) {
	p.mu.RLock()
	data, ok := p.inline[target]
	p.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := p.group.Do(target, func() (any, error) {
		return p.fetch(ctx, target)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (p *Provider) fetch(ctx context.Context, target string) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse schema uri %q: %w", target, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return p.fetchHTTP(ctx, target)
	case "file":
		return readFile(uri.URI(target).Filename())
	case "":
		return readFile(target)
	default:
		if len(u.Scheme) == 1 {
			// windows drive letter
			return readFile(target)
		}
		return nil, fmt.Errorf("%s: %w", target, ErrUnsupportedScheme)
	}
}

func (p *Provider) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json, application/schema+json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", target, ErrNotFound)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", target, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
