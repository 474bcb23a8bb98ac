package yamlls

import (
	"errors"
	"sync"

	"github.com/yakwilikk/go-yamlls/pkg/document"
)

// ErrDocumentNotOpen is returned for requests on a URI that was never
// opened or has been closed.
var ErrDocumentNotOpen = errors.New("document not open")

type openDocument struct {
	version int32
	file    *document.File
}

// documentStore keeps the latest parse of every open document.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]openDocument
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]openDocument)}
}

// put parses text and stores it unless a newer version is already held.
// It reports whether the store changed.
func (s *documentStore) put(docURI string, version int32, text string) (*document.File, bool) {
	file := document.Parse(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.docs[docURI]; ok && version != 0 && cur.version > version {
		return cur.file, false
	}
	s.docs[docURI] = openDocument{version: version, file: file}
	return file, true
}

func (s *documentStore) get(docURI string) (*document.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[docURI]
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	return d.file, nil
}

func (s *documentStore) remove(docURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docURI)
}

func (s *documentStore) uris() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for u := range s.docs {
		out = append(out, u)
	}
	return out
}
