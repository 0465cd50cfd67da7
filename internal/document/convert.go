package document

import (
	"regexp"
	"strings"
)

var orderedItemPattern = regexp.MustCompile(`^\d+\.\s+`)

// placeholderText fills the fallback block when a conversion would
// otherwise produce nothing, so downstream consumers can rely on every
// document having at least one block.
const placeholderText = "Content coming soon."

// Convert turns a markdown string into an ordered block document.
//
// Classification happens per line after trimming: blank lines flush the
// paragraph buffer, heading/list/blockquote markers emit a block
// immediately, everything else accumulates into the current paragraph
// (joined with single spaces on flush). List markers are stripped and
// each item becomes a standalone normal block; no list container node
// is produced.
//
// The function is pure. Keys are issued by a counter local to the call,
// so converting the same input twice yields structurally identical
// documents.
func Convert(markdown string) []Node {
	keys := &keyGen{}
	var nodes []Node
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		text := strings.Join(paragraph, " ")
		paragraph = paragraph[:0]
		nodes = append(nodes, newBlock(StyleNormal, text, keys))
	}

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "### "):
			flush()
			nodes = append(nodes, newBlock(StyleH3, strings.TrimPrefix(line, "### "), keys))
		case strings.HasPrefix(line, "## "):
			flush()
			nodes = append(nodes, newBlock(StyleH2, strings.TrimPrefix(line, "## "), keys))
		case strings.HasPrefix(line, "# "):
			flush()
			nodes = append(nodes, newBlock(StyleH1, strings.TrimPrefix(line, "# "), keys))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			flush()
			nodes = append(nodes, newBlock(StyleNormal, line[2:], keys))
		case orderedItemPattern.MatchString(line):
			flush()
			nodes = append(nodes, newBlock(StyleNormal, orderedItemPattern.ReplaceAllString(line, ""), keys))
		case strings.HasPrefix(line, "> "):
			flush()
			nodes = append(nodes, newBlock(StyleBlockquote, strings.TrimPrefix(line, "> "), keys))
		default:
			paragraph = append(paragraph, line)
		}
	}
	flush()

	if len(nodes) == 0 {
		nodes = append(nodes, newBlock(StyleNormal, placeholderText, keys))
	}

	return nodes
}

func newBlock(style, text string, keys *keyGen) Node {
	spans, defs := parseInline(text, keys)
	return Node{
		Type:     TypeBlock,
		Key:      keys.next("block"),
		Style:    style,
		Children: spans,
		MarkDefs: defs,
	}
}

// PlainText concatenates the visible text of every block, one line per
// block, with all marks stripped. Image nodes contribute nothing.
func PlainText(nodes []Node) string {
	var b strings.Builder
	for _, node := range nodes {
		if node.Type != TypeBlock {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		for _, span := range node.Children {
			b.WriteString(span.Text)
		}
	}
	return b.String()
}
