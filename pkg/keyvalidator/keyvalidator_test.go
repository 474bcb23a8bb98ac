package keyvalidator_test

import (
	"regexp"
	"testing"

	"github.com/yakwilikk/go-yamlls/pkg/document"
	keyv "github.com/yakwilikk/go-yamlls/pkg/keyvalidator"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
)

func ptr[T any](v T) *T { return &v }

// runKeys applies vld to every key of the root mapping of src.
func runKeys(t *testing.T, vld problem.KeyValidator, src string) *problem.Collector {
	t.Helper()
	f := document.Parse(src)
	if f.Err != nil || len(f.Documents) == 0 {
		t.Fatalf("parse %q: %v", src, f.Err)
	}
	d := f.Documents[0]
	c := problem.NewCollector()
	for _, prop := range d.Properties(d.Root) {
		vld.ValidateKey(d.Key(prop), d.Node(d.KeyNode(prop)), d.Key(prop), c)
	}
	return c
}

func TestRegexKeyValidator(t *testing.T) {
	vld := keyv.RegexKeyValidator{
		Pattern: regexp.MustCompile(`^[a-z][a-z0-9._-]*$`),
		Message: "invalid label key",
	}

	tests := []struct {
		name       string
		yaml       string
		wantErrors int
	}{
		{name: "valid keys", yaml: "app: nginx\nversion: \"1.0\"\n", wantErrors: 0},
		{name: "invalid key uppercase", yaml: "App: nginx\n", wantErrors: 1},
		{name: "invalid key starts with number", yaml: "123-app: nginx\n", wantErrors: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := runKeys(t, vld, tt.yaml)
			if len(c.Errors()) != tt.wantErrors {
				t.Errorf("got %d errors, want %d", len(c.Errors()), tt.wantErrors)
			}
		})
	}
}

func TestForbiddenKeyValidator(t *testing.T) {
	c := runKeys(t, keyv.ForbiddenKeyValidator{Forbidden: []string{"password"}}, "user: a\npassword: b\n")
	if len(c.Errors()) != 1 {
		t.Fatalf("expected one error, got %v", c.Errors())
	}
	if got := c.Errors()[0].Message; got != "Property password is not allowed." {
		t.Errorf("unexpected message %q", got)
	}
	if got := c.Errors()[0].Offset; got != len("user: a\n") {
		t.Errorf("expected error at the key, got offset %d", got)
	}
}

func TestAllowedKeyValidator(t *testing.T) {
	c := runKeys(t, keyv.AllowedKeyValidator{Allowed: []string{"a", "b"}}, "a: 1\nc: 2\n")
	if len(c.Errors()) != 1 || c.Errors()[0].Got != "c" {
		t.Errorf("expected key c rejected, got %v", c.Errors())
	}
}

func TestLengthKeyValidatorUnicode(t *testing.T) {
	c := runKeys(t, keyv.LengthKeyValidator{Min: ptr(2), Max: ptr(3)}, "ключ: value\n")
	if len(c.Errors()) != 1 {
		t.Fatalf("expected length error for unicode key, got %v", c.Errors())
	}
	if got := c.Errors()[0].Got; got != "4 characters" {
		t.Fatalf("expected rune count in error, got %q", got)
	}
}
