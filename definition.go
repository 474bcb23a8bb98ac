package yamlls

import "github.com/yakwilikk/go-yamlls/pkg/document"

// LocationLink points from an alias to the node it stands for. The target
// lives in the same document as the origin.
type LocationLink struct {
	OriginSelectionRange document.Range `json:"originSelectionRange"`
	TargetRange          document.Range `json:"targetRange"`
	TargetSelectionRange document.Range `json:"targetSelectionRange"`
}

// DefinitionAt resolves the alias at offset to its anchored node.
func DefinitionAt(file *document.File, offset int) []LocationLink {
	if file == nil {
		return nil
	}
	doc := file.DocumentAt(offset)
	if doc == nil {
		return nil
	}
	alias := doc.Node(doc.NodeAt(offset, true))
	if alias == nil || alias.Alias == document.NoNode {
		return nil
	}
	target := doc.Node(alias.Alias)
	if target == nil {
		return nil
	}
	span := doc.Lines.RangeOf(target.Offset, target.Length)
	return []LocationLink{{
		OriginSelectionRange: doc.Lines.RangeOf(alias.Offset, alias.Length),
		TargetRange:          span,
		TargetSelectionRange: span,
	}}
}
