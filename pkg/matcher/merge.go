package matcher

import (
	"strconv"

	"github.com/yakwilikk/go-yamlls/pkg/document"
)

// Pair is one effective key/value of a mapping.
type Pair struct {
	Key   string
	Prop  document.NodeID // property node carrying the pair
	KeyID document.NodeID
	Value document.NodeID
}

// Pairs expands YAML merge keys (<<) of obj into concrete key/value pairs.
// Later merges override earlier ones; explicit keys override merges.
func Pairs(doc *document.Document, obj document.NodeID) []Pair {
	obj = doc.Resolve(obj)
	n := doc.Node(obj)
	if n == nil || n.Kind != document.KindObject {
		return nil
	}

	var pairs []Pair
	for _, prop := range n.Children {
		if doc.Key(prop) == "<<" {
			pairs = append(pairs, extractMergePairs(doc, doc.ValueNode(prop), 0)...)
			continue
		}
		pairs = append(pairs, pairOf(doc, prop))
	}
	return dedupePairsKeepLast(pairs)
}

func extractMergePairs(doc *document.Document, val document.NodeID, depth int) []Pair {
	if depth > 8 {
		return nil
	}
	val = doc.Resolve(val)
	n := doc.Node(val)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case document.KindObject:
		return Pairs(doc, val)
	case document.KindArray:
		var out []Pair
		for _, item := range n.Children {
			out = append(out, extractMergePairs(doc, item, depth+1)...)
		}
		return out
	}
	return nil
}

func pairOf(doc *document.Document, prop document.NodeID) Pair {
	return Pair{Key: doc.Key(prop), Prop: prop, KeyID: doc.KeyNode(prop), Value: doc.ValueNode(prop)}
}

// dedupePairsKeepLast keeps the last occurrence of each key to model merge
// override and explicit override.
func dedupePairsKeepLast(pairs []Pair) []Pair {
	seen := make(map[string]int)
	for idx, kv := range pairs {
		seen[kv.Key] = idx
	}
	out := make([]Pair, 0, len(seen))
	for idx, kv := range pairs {
		if seen[kv.Key] == idx {
			out = append(out, kv)
		}
	}
	return out
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func indexPath(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}
