package protocol

import (
	"strings"
)

// MarkedLine is one tagged line of a modified resume.
type MarkedLine struct {
	Tag     LineTag `json:"tag"`
	Content string  `json:"content"`
}

// MarkedResume is the logical form of a modification block, independent of
// its serialized marker form.
type MarkedResume []MarkedLine

// ParseMarkedResume splits a modification block into tagged lines. Blank
// lines are dropped and untagged lines become TagNormal.
func ParseMarkedResume(block string) MarkedResume {
	var doc MarkedResume
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tag, content, _ := SplitLineTag(line)
		doc = append(doc, MarkedLine{Tag: tag, Content: content})
	}
	return doc
}

// Marked serializes the document back to its marker form.
func (m MarkedResume) Marked() string {
	lines := make([]string, 0, len(m))
	for _, l := range m {
		lines = append(lines, l.Tag.Token()+" "+l.Content)
	}
	return strings.Join(lines, "\n")
}

// PlainText renders the document without markers. Bullets are normalized to
// "•" and inline **bold** markers are dropped.
func (m MarkedResume) PlainText() string {
	var b strings.Builder
	for i, l := range m {
		if i > 0 {
			if l.Tag == TagHeading {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		content := strings.ReplaceAll(l.Content, "**", "")
		switch l.Tag {
		case TagHeading:
			content = strings.ToUpper(content)
		case TagBullet:
			content = "• " + strings.TrimLeft(content, "*-• ")
		}
		b.WriteString(content)
	}
	return b.String()
}

// Count returns how many lines carry tag.
func (m MarkedResume) Count(tag LineTag) int {
	n := 0
	for _, l := range m {
		if l.Tag == tag {
			n++
		}
	}
	return n
}
