package main

import (
	"os"
	"path/filepath"
	"testing"

	"go.lsp.dev/uri"
)

func writeSchema(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func TestSchemaSetting_YAML(t *testing.T) {
	path := writeSchema(t, "schema.yaml", `
type: object
required: [name]
properties:
  name:
    type: string
  replicas:
    type: integer
    minimum: 1
    maximum: 10
`)
	s, err := schemaSetting(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if s.URI != string(uri.File(path)) {
		t.Fatalf("unexpected uri: %s", s.URI)
	}
	if len(s.FileMatch) != 1 || s.FileMatch[0] != "**/*" {
		t.Fatalf("unexpected fileMatch: %v", s.FileMatch)
	}
}

func TestSchemaSetting_JSON(t *testing.T) {
	path := writeSchema(t, "schema.json", `{
  "type": "array",
  "items": {"$ref": "#/definitions/item"},
  "minItems": 1,
  "definitions": {"item": {"type": "integer"}}
}`)
	if _, err := schemaSetting(string(uri.File(path))); err != nil {
		t.Fatalf("load schema: %v", err)
	}
}

func TestSchemaSetting_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not an object", content: "[1, 2]"},
		{name: "syntax", content: "type: [string"},
		{name: "broken local ref", content: `{"properties": {"a": {"$ref": "#/definitions/missing"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSchema(t, "schema.json", tt.content)
			if _, err := schemaSetting(path); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}

	if _, err := schemaSetting(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

func TestSchemaSetting_ExternalRefsAndURLs(t *testing.T) {
	path := writeSchema(t, "schema.json", `{"properties": {"a": {"$ref": "other.json#/definitions/a"}}}`)
	if _, err := schemaSetting(path); err != nil {
		t.Fatalf("external refs are resolved later: %v", err)
	}

	s, err := schemaSetting("https://example.com/schema.json")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if s.URI != "https://example.com/schema.json" {
		t.Fatalf("unexpected uri: %s", s.URI)
	}
}
