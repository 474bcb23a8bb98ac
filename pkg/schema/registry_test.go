package schema

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/uri"
	"golang.org/x/time/rate"
)

func TestAssociationMatches(t *testing.T) {
	tests := []struct {
		name    string
		match   []string
		doc     string
		matches bool
	}{
		{name: "basename glob", match: []string{"pipeline*.yaml"}, doc: "file:///work/ci/pipeline-a.yaml", matches: true},
		{name: "directory glob", match: []string{"ci/**/*.yml"}, doc: "file:///work/ci/x/y.yml", matches: true},
		{name: "no match", match: []string{"*.json"}, doc: "file:///work/a.yaml", matches: false},
		{name: "negated", match: []string{"*.yaml", "!secret.yaml"}, doc: "file:///work/secret.yaml", matches: false},
		{name: "absolute", match: []string{"/work/**"}, doc: "file:///work/deep/a.yaml", matches: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Association{URI: "s", FileMatch: tt.match}
			assert.Equal(t, tt.matches, a.Matches(tt.doc))
		})
	}
}

func TestModeline(t *testing.T) {
	ref, ok := Modeline("a: 1\n# yaml-language-server: $schema=https://x/s.json\n")
	require.True(t, ok)
	assert.Equal(t, "https://x/s.json", ref)

	_, ok = Modeline("# just a comment\n")
	assert.False(t, ok)
}

func TestCheckSchemaURI(t *testing.T) {
	assert.Equal(t, KubernetesSchemaURL, CheckSchemaURI("/ws", " Kubernetes "))
	assert.Equal(t, "https://x/s.json", CheckSchemaURI("/ws", "https://x/s.json"))
	assert.Equal(t, string(uri.File("/ws/schemas/a.json")), CheckSchemaURI("/ws", "schemas/a.json"))
	assert.Equal(t, string(uri.File("/ws/a.json")), CheckSchemaURI(string(uri.File("/ws")), "./a.json"))
}

func TestRegistryPriorityOrder(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Associate(Association{URI: "store", FileMatch: []string{"*.yaml"}, Priority: PrioritySchemaStore})
	r.Associate(Association{URI: "settings", FileMatch: []string{"*.yaml"}, Priority: PrioritySettings})
	r.Associate(Association{URI: "assoc", FileMatch: []string{"*.yaml"}, Priority: PriorityAssociation})

	snap := r.Snapshot()
	assert.Equal(t, []string{"settings", "assoc", "store"}, snap.URIsFor("file:///a.yaml", "a: 1\n"))
	assert.Equal(t, PrioritySettings, r.Priority("settings"))

	withModeline := "# yaml-language-server: $schema=https://x/s.json\n"
	assert.Equal(t, []string{"https://x/s.json"}, snap.URIsFor("file:///a.yaml", withModeline))
}

func TestRegistrySnapshotsAreImmutable(t *testing.T) {
	r := NewRegistry(nil, nil)
	ctx := context.Background()
	_, err := r.Add(ctx, "mem://a", []byte(`{"title":"one"}`))
	require.NoError(t, err)

	before := r.Snapshot()
	_, err = r.Add(ctx, "mem://a", []byte(`{"title":"two"}`))
	require.NoError(t, err)

	old, ok := before.Schema("mem://a")
	require.True(t, ok)
	assert.Equal(t, "one", old.Root.Title)
	cur, _ := r.Snapshot().Schema("mem://a")
	assert.Equal(t, "two", cur.Root.Title)

	r.Delete("mem://a")
	_, ok = r.Snapshot().Schema("mem://a")
	assert.False(t, ok)
}

func TestRegistryResolveFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"object"}`), 0o644))

	r := NewRegistry(NewProvider(), nil)
	l, err := r.Resolve(context.Background(), string(uri.File(path)))
	require.NoError(t, err)
	assert.Equal(t, []string{"object"}, l.Root.Type)

	_, err = r.Resolve(context.Background(), string(uri.File(filepath.Join(dir, "missing.json"))))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistryCachesFailuresUntilReset(t *testing.T) {
	var hits atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if status.Load() != http.StatusOK {
			w.WriteHeader(int(status.Load()))
			return
		}
		_, _ = w.Write([]byte(`{"title":"remote"}`))
	}))
	defer srv.Close()

	p := NewProvider(WithHTTPClient(srv.Client()), WithRateLimit(rate.Inf, 1))
	r := NewRegistry(p, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, srv.URL+"/s.json")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.Resolve(ctx, srv.URL+"/s.json")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), hits.Load())

	status.Store(http.StatusOK)
	r.Reset(srv.URL + "/s.json")
	l, err := r.Resolve(ctx, srv.URL+"/s.json")
	require.NoError(t, err)
	assert.Equal(t, "remote", l.Root.Title)
	assert.Equal(t, int32(2), hits.Load())
}

func TestProviderInlineAndScheme(t *testing.T) {
	p := NewProvider()
	p.SetInline("inline://a", []byte(`{}`))
	data, err := p.Fetch(context.Background(), "inline://a")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, err = p.Fetch(context.Background(), "ftp://host/s.json")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestURLs(t *testing.T) {
	a := &Schema{URL: "file:///a.json"}
	b := &Schema{URL: "file:///b.json"}
	assert.Equal(t, []string{"file:///a.json"}, URLs(a))
	assert.Equal(t, []string{"file:///a.json", "file:///b.json"}, URLs(Combine("file:///doc.yaml", a, b, a)))
	assert.Same(t, a, Combine("file:///doc.yaml", a))
}
