package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.lsp.dev/uri"

	"github.com/yakwilikk/go-yamlls"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
)

// everyDocument is the fileMatch given to schemas named on the command line.
var everyDocument = []string{"**/*"}

// schemaSetting turns a --schema argument into a setting. Local files are
// read and checked up front so a broken schema fails the command instead
// of silently validating nothing; URLs are fetched later by the service.
func schemaSetting(ref string) (yamlls.SchemaSetting, error) {
	if strings.Contains(ref, "://") && !strings.HasPrefix(ref, "file://") {
		return yamlls.SchemaSetting{URI: ref, FileMatch: everyDocument}, nil
	}
	path := ref
	if strings.HasPrefix(ref, "file://") {
		path = uri.URI(ref).Filename()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return yamlls.SchemaSetting{}, fmt.Errorf("schema %s: %w", ref, err)
	}
	if err := checkSchemaFile(abs); err != nil {
		return yamlls.SchemaSetting{}, err
	}
	return yamlls.SchemaSetting{URI: string(uri.File(abs)), FileMatch: everyDocument}, nil
}

// checkSchemaFile decodes a YAML or JSON schema file and reports the
// references it could not resolve.
func checkSchemaFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	loaded, err := schema.LoadSchema(string(uri.File(path)), data)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	for _, e := range loaded.Errors {
		if !isExternal(e) {
			return fmt.Errorf("load schema: %w", e)
		}
	}
	return nil
}

// isExternal reports a reference into another document, which only the
// service's fetcher can follow.
func isExternal(err error) bool {
	var re *schema.ResolutionError
	if !errors.As(err, &re) {
		return false
	}
	return !strings.HasPrefix(re.Ref, "#")
}
