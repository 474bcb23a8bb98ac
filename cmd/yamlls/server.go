package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/yakwilikk/go-yamlls"
	"github.com/yakwilikk/go-yamlls/pkg/document"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

const serverName = "yamlls"

// notifier sends notifications to the client.
type notifier interface {
	Notify(ctx context.Context, method string, params interface{}) error
}

// server maps LSP requests onto a yamlls.Service.
type server struct {
	svc    *yamlls.Service
	logger *slog.Logger
	client notifier

	mu            sync.Mutex
	workspaceRoot string
	exited        chan struct{}
	exitOnce      sync.Once
}

func newServer(svc *yamlls.Service, logger *slog.Logger, client notifier) *server {
	return &server{
		svc:           svc,
		logger:        logger,
		client:        client,
		workspaceRoot: svc.Settings().WorkspaceRoot,
		exited:        make(chan struct{}),
	}
}

// decode unmarshals params, replying with an invalid-params error on
// failure. It reports whether the handler should go on.
func decode(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request, v any) (bool, error) {
	if err := json.Unmarshal(req.Params(), v); err != nil {
		return false, reply(ctx, nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err))
	}
	return true, nil
}

func (s *server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.logger.Debug("request", "method", req.Method())
		switch req.Method() {
		case protocol.MethodInitialize:
			var params protocol.InitializeParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			return reply(ctx, s.initialize(&params), nil)

		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)

		case protocol.MethodShutdown:
			return reply(ctx, nil, nil)

		case protocol.MethodExit:
			s.exitOnce.Do(func() { close(s.exited) })
			return reply(ctx, nil, nil)

		case protocol.MethodTextDocumentDidOpen:
			var params protocol.DidOpenTextDocumentParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			doc := params.TextDocument
			s.svc.Open(string(doc.URI), doc.Version, doc.Text)
			s.publish(ctx, doc.URI)
			return reply(ctx, nil, nil)

		case protocol.MethodTextDocumentDidChange:
			var params protocol.DidChangeTextDocumentParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			if n := len(params.ContentChanges); n > 0 {
				doc := params.TextDocument
				s.svc.Change(string(doc.URI), doc.Version, params.ContentChanges[n-1].Text)
				s.publish(ctx, doc.URI)
			}
			return reply(ctx, nil, nil)

		case protocol.MethodTextDocumentDidClose:
			var params protocol.DidCloseTextDocumentParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			s.svc.Close(string(params.TextDocument.URI))
			s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
				URI:         params.TextDocument.URI,
				Diagnostics: []protocol.Diagnostic{},
			})
			return reply(ctx, nil, nil)

		case protocol.MethodWorkspaceDidChangeConfiguration:
			var params protocol.DidChangeConfigurationParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			s.configure(ctx, params.Settings)
			return reply(ctx, nil, nil)

		case protocol.MethodTextDocumentCompletion:
			var params protocol.CompletionParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			list, err := s.svc.Complete(ctx, string(params.TextDocument.URI), fromPosition(params.Position))
			if err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, toCompletionList(list), nil)

		case protocol.MethodTextDocumentHover:
			var params protocol.HoverParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			h, err := s.svc.Hover(ctx, string(params.TextDocument.URI), fromPosition(params.Position))
			if err != nil || h == nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, toHover(h), nil)

		case protocol.MethodTextDocumentDefinition:
			var params protocol.DefinitionParams
			if ok, err := decode(ctx, reply, req, &params); !ok {
				return err
			}
			links, err := s.svc.Definition(ctx, string(params.TextDocument.URI), fromPosition(params.Position))
			if err != nil {
				return reply(ctx, nil, err)
			}
			return reply(ctx, toLocationLinks(params.TextDocument.URI, links), nil)

		case protocol.MethodCancelRequest, protocol.MethodSetTrace, protocol.MethodTextDocumentDidSave:
			return reply(ctx, nil, nil)
		}
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (s *server) initialize(params *protocol.InitializeParams) *protocol.InitializeResult {
	root := ""
	switch {
	case len(params.WorkspaceFolders) > 0:
		root = params.WorkspaceFolders[0].URI
	case params.RootURI != "":
		root = string(params.RootURI)
	case params.RootPath != "":
		root = string(uri.File(params.RootPath))
	}
	if root != "" {
		s.mu.Lock()
		s.workspaceRoot = root
		s.mu.Unlock()
	}
	s.logger.Info("initialize", "root", root)

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{" ", ":", "-"},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: version,
		},
	}
}

// configure re-applies the client's "yaml" settings and revalidates every
// open document.
func (s *server) configure(ctx context.Context, raw any) {
	s.mu.Lock()
	root := s.workspaceRoot
	s.mu.Unlock()

	settings, err := settingsFromClient(raw, root)
	if err != nil {
		s.logger.Warn("ignoring client settings", "error", err)
		return
	}
	if err := s.svc.Configure(ctx, settings); err != nil {
		s.logger.Warn("configure", "error", err)
	}
	for _, u := range s.svc.Documents() {
		s.publish(ctx, protocol.DocumentURI(u))
	}
}

func (s *server) publish(ctx context.Context, docURI protocol.DocumentURI) {
	diags, err := s.svc.Validate(ctx, string(docURI))
	if err != nil {
		s.logger.Warn("validate", "uri", docURI, "error", err)
		return
	}
	s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: toDiagnostics(diags),
	})
}

func (s *server) notify(ctx context.Context, method string, params any) {
	if err := s.client.Notify(ctx, method, params); err != nil {
		s.logger.Warn("notify", "method", method, "error", err)
	}
}

func fromPosition(p protocol.Position) document.Position {
	return document.Position{Line: int(p.Line), Character: int(p.Character)}
}

func toPosition(p document.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toRange(r document.Range) protocol.Range {
	return protocol.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func toCompletionList(list *yamlls.CompletionList) *protocol.CompletionList {
	out := &protocol.CompletionList{
		IsIncomplete: list.IsIncomplete,
		Items:        make([]protocol.CompletionItem, 0, len(list.Items)),
	}
	for _, it := range list.Items {
		item := protocol.CompletionItem{
			Label:            it.Label,
			Kind:             protocol.CompletionItemKind(it.Kind),
			InsertTextFormat: protocol.InsertTextFormatSnippet,
			TextEdit:         &protocol.TextEdit{Range: toRange(it.Range), NewText: it.InsertText},
		}
		if it.Documentation != "" {
			item.Documentation = protocol.MarkupContent{Kind: protocol.Markdown, Value: it.Documentation}
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func toHover(h *yamlls.Hover) *protocol.Hover {
	r := toRange(h.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: h.Contents},
		Range:    &r,
	}
}

func toLocationLinks(docURI protocol.DocumentURI, links []yamlls.LocationLink) []protocol.LocationLink {
	out := make([]protocol.LocationLink, 0, len(links))
	for _, l := range links {
		origin := toRange(l.OriginSelectionRange)
		out = append(out, protocol.LocationLink{
			OriginSelectionRange: &origin,
			TargetURI:            docURI,
			TargetRange:          toRange(l.TargetRange),
			TargetSelectionRange: toRange(l.TargetSelectionRange),
		})
	}
	return out
}

func toDiagnostics(diags []yamlls.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverityError
		if d.Level == problem.LevelWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		source := serverName
		if d.Source != "" {
			source = serverName + ": " + d.Source
		}
		out = append(out, protocol.Diagnostic{
			Range:    toRange(d.Range),
			Severity: severity,
			Source:   source,
			Message:  d.Message,
		})
	}
	return out
}
