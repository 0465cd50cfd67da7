package document

import "fmt"

// Node 类型与样式常量，对齐 CMS 的 Portable Text 结构。
const (
	TypeBlock = "block"
	TypeSpan  = "span"
	TypeImage = "image"
	TypeLink  = "link"

	StyleNormal     = "normal"
	StyleH1         = "h1"
	StyleH2         = "h2"
	StyleH3         = "h3"
	StyleBlockquote = "blockquote"

	MarkStrong = "strong"
	MarkEm     = "em"
)

// Node is one block-level element of a converted document: either a text
// block carrying styled spans, or an image reference.
type Node struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key"`
	Style    string    `json:"style,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []LinkDef `json:"markDefs,omitempty"`
	AssetRef string    `json:"assetRef,omitempty"`
	Alt      string    `json:"alt,omitempty"`
}

// Span is a run of text inside a block. Marks reference either a style
// constant (strong, em) or the key of a LinkDef in the owning block.
type Span struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// LinkDef binds a link mark key to its destination URL.
type LinkDef struct {
	Type string `json:"_type"`
	Key  string `json:"_key"`
	Href string `json:"href"`
}

// NewImageNode builds an image node pointing at an uploaded CMS asset.
func NewImageNode(key, assetRef, alt string) Node {
	return Node{Type: TypeImage, Key: key, AssetRef: assetRef, Alt: alt}
}

// keyGen issues block, span and link keys from one monotonically
// increasing counter per conversion. Keys are structural, not semantic:
// uniqueness within a document is the only guarantee.
type keyGen struct {
	n int
}

func (g *keyGen) next(kind string) string {
	g.n++
	return fmt.Sprintf("%s-%d", kind, g.n)
}
