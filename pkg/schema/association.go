package schema

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.lsp.dev/uri"
)

// KubernetesSchemaURL is substituted for the schema name "kubernetes".
const KubernetesSchemaURL = "https://raw.githubusercontent.com/yannh/kubernetes-json-schema/master/v1.22.4-standalone-strict/all.json"

// Association priorities. Higher wins when choosing the schema that
// validation reports against.
const (
	PrioritySchemaStore = 1
	PriorityAssociation = 2
	PrioritySettings    = 3
)

// Association binds documents whose path matches FileMatch to a schema.
type Association struct {
	URI       string
	Name      string
	FileMatch []string
	Priority  int
}

// Matches reports whether the document at docURI falls under a. Patterns
// starting with "!" exclude; relative patterns match at any depth.
func (a Association) Matches(docURI string) bool {
	p := documentPath(docURI)
	matched := false
	for _, pattern := range a.FileMatch {
		negate := strings.HasPrefix(pattern, "!")
		pattern = strings.TrimPrefix(pattern, "!")
		if !matchPattern(pattern, p) {
			continue
		}
		if negate {
			return false
		}
		matched = true
	}
	return matched
}

func matchPattern(pattern, docPath string) bool {
	pattern = strings.TrimPrefix(pattern, "file://")
	pattern = filepath.ToSlash(pattern)
	if strings.HasPrefix(pattern, "/") {
		pattern = strings.TrimPrefix(pattern, "/")
	} else if !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}
	ok, err := doublestar.Match(pattern, strings.TrimPrefix(docPath, "/"))
	return err == nil && ok
}

func documentPath(docURI string) string {
	if strings.HasPrefix(docURI, "file://") {
		return filepath.ToSlash(uri.URI(docURI).Filename())
	}
	if u, err := url.Parse(docURI); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return u.Path
	}
	return filepath.ToSlash(docURI)
}

var modelineRe = regexp.MustCompile(`^\s*#\s*yaml-language-server\s*:(.*)$`)
var modelineSchemaRe = regexp.MustCompile(`\$schema=(\S+)`)

// Modeline returns the schema named by a
// "# yaml-language-server: $schema=<uri>" comment in text.
func Modeline(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		m := modelineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if s := modelineSchemaRe.FindStringSubmatch(m[1]); s != nil {
			return s[1], true
		}
	}
	return "", false
}

// CheckSchemaURI normalizes a configured schema reference: the name
// "kubernetes" becomes KubernetesSchemaURL and relative paths are resolved
// against workspaceRoot (a path or file URI).
func CheckSchemaURI(workspaceRoot, ref string) string {
	if strings.EqualFold(strings.TrimSpace(ref), "kubernetes") {
		return KubernetesSchemaURL
	}
	if !isRelativePath(ref) {
		return ref
	}
	root := workspaceRoot
	if strings.HasPrefix(root, "file://") {
		root = uri.URI(root).Filename()
	}
	return string(uri.File(filepath.Join(root, filepath.FromSlash(ref))))
}

// ResolveModeline resolves a modeline schema reference relative to the
// directory of the document that carries it.
func ResolveModeline(docURI, ref string) string {
	if !isRelativePath(ref) {
		return ref
	}
	dir := path.Dir(documentPath(docURI))
	return string(uri.File(filepath.Join(filepath.FromSlash(dir), filepath.FromSlash(ref))))
}

func isRelativePath(ref string) bool {
	if ref == "" || filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return false
	}
	if u, err := url.Parse(ref); err == nil && len(u.Scheme) > 1 {
		return false
	}
	return true
}
