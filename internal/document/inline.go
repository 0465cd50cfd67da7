package document

import (
	"regexp"
	"sort"
)

var (
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	// The leading alternation consumes bold runs so a bold delimiter is
	// never read as an italic opener; bold hits leave group 1 empty and
	// are skipped when collecting italic matches.
	italicPattern = regexp.MustCompile(`\*\*[^*]+\*\*|\*([^*]+)\*`)
)

// inlineMatch 记录一次行内标记命中的位置与内容。
type inlineMatch struct {
	start    int
	end      int
	text     string
	mark     string
	href     string
	priority int
}

// parseInline splits one line into styled spans. The three patterns are
// matched independently and merged by start offset; a match that begins
// inside an already accepted match is discarded, so the italic pattern
// firing inside **bold** (or bold inside a link label) never produces a
// second span. First match by offset wins, link before bold before
// italic on equal offsets.
func parseInline(line string, keys *keyGen) ([]Span, []LinkDef) {
	matches := collectMatches(line)
	if len(matches) == 0 {
		return []Span{plainSpan(line, keys)}, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].priority < matches[j].priority
	})

	var (
		spans []Span
		defs  []LinkDef
		pos   int
	)

	for _, m := range matches {
		if m.start < pos {
			// overlaps the previous accepted match
			continue
		}
		if m.start > pos {
			spans = append(spans, plainSpan(line[pos:m.start], keys))
		}

		span := Span{Type: TypeSpan, Key: keys.next("span"), Text: m.text}
		if m.href != "" {
			def := LinkDef{Type: TypeLink, Key: keys.next("link"), Href: m.href}
			defs = append(defs, def)
			span.Marks = []string{def.Key}
		} else {
			span.Marks = []string{m.mark}
		}
		spans = append(spans, span)
		pos = m.end
	}

	if pos < len(line) {
		spans = append(spans, plainSpan(line[pos:], keys))
	}

	return spans, defs
}

func collectMatches(line string) []inlineMatch {
	var matches []inlineMatch

	for _, idx := range linkPattern.FindAllStringSubmatchIndex(line, -1) {
		matches = append(matches, inlineMatch{
			start:    idx[0],
			end:      idx[1],
			text:     line[idx[2]:idx[3]],
			href:     line[idx[4]:idx[5]],
			priority: 0,
		})
	}
	for _, idx := range boldPattern.FindAllStringSubmatchIndex(line, -1) {
		matches = append(matches, inlineMatch{
			start:    idx[0],
			end:      idx[1],
			text:     line[idx[2]:idx[3]],
			mark:     MarkStrong,
			priority: 1,
		})
	}
	for _, idx := range italicPattern.FindAllStringSubmatchIndex(line, -1) {
		if idx[2] == -1 {
			continue
		}
		matches = append(matches, inlineMatch{
			start:    idx[0],
			end:      idx[1],
			text:     line[idx[2]:idx[3]],
			mark:     MarkEm,
			priority: 2,
		})
	}

	return matches
}

func plainSpan(text string, keys *keyGen) Span {
	return Span{Type: TypeSpan, Key: keys.next("span"), Text: text, Marks: []string{}}
}
