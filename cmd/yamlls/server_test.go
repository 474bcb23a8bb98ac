package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/yakwilikk/go-yamlls"
)

type notification struct {
	method string
	params any
}

type recorder struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recorder) Notify(_ context.Context, method string, params interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{method: method, params: params})
	return nil
}

func (r *recorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	n := r.sent[len(r.sent)-1]
	require.Equal(t, protocol.MethodTextDocumentPublishDiagnostics, n.method)
	p, ok := n.params.(*protocol.PublishDiagnosticsParams)
	require.True(t, ok)
	return p
}

const testSchema = `{
	"type": "object",
	"properties": {
		"port": {"type": "integer", "description": "Listen port"},
		"name": {"type": "string"},
		"base": {"type": "string"},
		"copy": {"type": "string"}
	}
}`

func newTestServer(t *testing.T) (*server, *recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := yamlls.New(yamlls.WithLogger(logger))
	settings := yamlls.DefaultSettings()
	settings.Schemas = []yamlls.SchemaSetting{{URI: "inline://test", FileMatch: []string{"*.yaml"}, Inline: testSchema}}
	require.NoError(t, svc.Configure(context.Background(), settings))
	rec := &recorder{}
	return newServer(svc, logger, rec), rec
}

// call sends one request through the handler and returns its reply.
func call(t *testing.T, s *server, method string, params any) (any, error) {
	t.Helper()
	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(1), method, params)
	require.NoError(t, err)
	var (
		result   any
		replyErr error
		replied  bool
	)
	reply := func(_ context.Context, r interface{}, err error) error {
		result, replyErr, replied = r, err, true
		return nil
	}
	require.NoError(t, s.handler()(context.Background(), reply, req))
	require.True(t, replied, "handler must reply")
	return result, replyErr
}

func open(t *testing.T, s *server, docURI, text string) {
	t.Helper()
	_, err := call(t, s, protocol.MethodTextDocumentDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: protocol.DocumentURI(docURI), LanguageID: "yaml", Version: 1, Text: text},
	})
	require.NoError(t, err)
}

func position(docURI string, line, char uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(docURI)},
		Position:     protocol.Position{Line: line, Character: char},
	}
}

func TestServerInitialize(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := call(t, s, protocol.MethodInitialize, &protocol.InitializeParams{RootURI: "file:///work"})
	require.NoError(t, err)
	initResult, ok := res.(*protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
	assert.Equal(t, true, initResult.Capabilities.HoverProvider)
	assert.Equal(t, "file:///work", s.workspaceRoot)
}

func TestServerPublishesDiagnostics(t *testing.T) {
	s, rec := newTestServer(t)
	docURI := "file:///work/app.yaml"

	open(t, s, docURI, "port: abc\n")
	p := rec.last(t)
	assert.Equal(t, protocol.DocumentURI(docURI), p.URI)
	require.Len(t, p.Diagnostics, 1)
	d := p.Diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, d.Severity)
	assert.Equal(t, "yamlls: inline://test", d.Source)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 6},
		End:   protocol.Position{Line: 0, Character: 9},
	}, d.Range)

	_, err := call(t, s, protocol.MethodTextDocumentDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument:   protocol.VersionedTextDocumentIdentifier{TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(docURI)}, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "port: 80\n"}},
	})
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Diagnostics)

	_, err = call(t, s, protocol.MethodWorkspaceDidChangeConfiguration, &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{"yaml": map[string]any{"validate": false}},
	})
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Diagnostics)
	assert.False(t, s.svc.Settings().Validate)

	_, err = call(t, s, protocol.MethodTextDocumentDidClose, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(docURI)},
	})
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Diagnostics)
	assert.Empty(t, s.svc.Documents())
}

func TestServerCompletion(t *testing.T) {
	s, _ := newTestServer(t)
	docURI := "file:///work/app.yaml"
	open(t, s, docURI, "port: 80\n")

	res, err := call(t, s, protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
		TextDocumentPositionParams: position(docURI, 1, 0),
	})
	require.NoError(t, err)
	list, ok := res.(*protocol.CompletionList)
	require.True(t, ok)

	var names []string
	for _, it := range list.Items {
		names = append(names, it.Label)
		assert.Equal(t, protocol.InsertTextFormatSnippet, it.InsertTextFormat)
		require.NotNil(t, it.TextEdit)
		assert.Equal(t, uint32(1), it.TextEdit.Range.Start.Line)
	}
	assert.ElementsMatch(t, []string{"name", "base", "copy"}, names)
}

func TestServerHoverAndDefinition(t *testing.T) {
	s, _ := newTestServer(t)
	docURI := "file:///work/app.yaml"
	open(t, s, docURI, "base: &b x\ncopy: *b\n")

	res, err := call(t, s, protocol.MethodTextDocumentDefinition, &protocol.DefinitionParams{
		TextDocumentPositionParams: position(docURI, 1, 7),
	})
	require.NoError(t, err)
	links, ok := res.([]protocol.LocationLink)
	require.True(t, ok)
	require.Len(t, links, 1)
	assert.Equal(t, protocol.DocumentURI(docURI), links[0].TargetURI)
	assert.Equal(t, protocol.Position{Line: 0, Character: 9}, links[0].TargetRange.Start)

	open(t, s, docURI, "port: 80\n")
	res, err = call(t, s, protocol.MethodTextDocumentHover, &protocol.HoverParams{
		TextDocumentPositionParams: position(docURI, 0, 1),
	})
	require.NoError(t, err)
	h, ok := res.(*protocol.Hover)
	require.True(t, ok)
	assert.Equal(t, protocol.Markdown, h.Contents.Kind)
	assert.Contains(t, h.Contents.Value, "Listen port")
}

func TestServerErrors(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := call(t, s, "textDocument/formatting", map[string]any{})
	assert.ErrorIs(t, err, jsonrpc2.ErrMethodNotFound)

	_, err = call(t, s, protocol.MethodTextDocumentHover, &protocol.HoverParams{
		TextDocumentPositionParams: position("file:///work/closed.yaml", 0, 0),
	})
	assert.Error(t, err)

	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(2), protocol.MethodTextDocumentCompletion, "not an object")
	require.NoError(t, err)
	var replyErr error
	require.NoError(t, s.handler()(context.Background(), func(_ context.Context, _ interface{}, err error) error {
		replyErr = err
		return nil
	}, req))
	assert.ErrorIs(t, replyErr, jsonrpc2.ErrInvalidParams)
}

func TestServerExit(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := call(t, s, protocol.MethodShutdown, nil)
	require.NoError(t, err)
	_, err = call(t, s, protocol.MethodExit, nil)
	require.NoError(t, err)
	select {
	case <-s.exited:
	default:
		t.Fatal("exit did not signal")
	}
}
