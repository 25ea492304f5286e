package protocol

import (
	"fmt"
	"strings"
)

// LineTag classifies one line of a modified resume. The zero value is
// TagNormal, which is also the fallback for lines carrying no known tag.
type LineTag int

const (
	TagNormal LineTag = iota
	TagName
	TagContact
	TagHeading
	TagSubheadCompany
	TagSubheadTitle
	TagSubheadProject
	TagDates
	TagBullet

	lineTagCount
)

var lineTagTokens = [lineTagCount]string{
	TagNormal:         "@@NORMAL@@",
	TagName:           "@@NAME@@",
	TagContact:        "@@CONTACT@@",
	TagHeading:        "@@HEADING@@",
	TagSubheadCompany: "@@SUBHEAD_COMP@@",
	TagSubheadTitle:   "@@SUBHEAD_TITLE@@",
	TagSubheadProject: "@@SUBHEAD_PROJ@@",
	TagDates:          "@@DATES@@",
	TagBullet:         "@@BULLET@@",
}

var lineTagNames = [lineTagCount]string{
	TagNormal:         "normal",
	TagName:           "name",
	TagContact:        "contact",
	TagHeading:        "heading",
	TagSubheadCompany: "subheading_company",
	TagSubheadTitle:   "subheading_title",
	TagSubheadProject: "subheading_project",
	TagDates:          "dates",
	TagBullet:         "bullet",
}

// LineTags returns every tag in declaration order.
func LineTags() []LineTag {
	tags := make([]LineTag, 0, lineTagCount)
	for t := LineTag(0); t < lineTagCount; t++ {
		tags = append(tags, t)
	}
	return tags
}

// Token returns the literal marker the model prefixes a line with.
func (t LineTag) Token() string {
	if t < 0 || t >= lineTagCount {
		return lineTagTokens[TagNormal]
	}
	return lineTagTokens[t]
}

func (t LineTag) String() string {
	if t < 0 || t >= lineTagCount {
		return fmt.Sprintf("LineTag(%d)", int(t))
	}
	return lineTagNames[t]
}

// MarshalText encodes the tag by name so JSON payloads stay readable.
func (t LineTag) MarshalText() ([]byte, error) {
	if t < 0 || t >= lineTagCount {
		return nil, fmt.Errorf("unknown line tag %d", int(t))
	}
	return []byte(lineTagNames[t]), nil
}

func (t *LineTag) UnmarshalText(text []byte) error {
	for i, name := range lineTagNames {
		if name == string(text) {
			*t = LineTag(i)
			return nil
		}
	}
	return fmt.Errorf("unknown line tag %q", text)
}

// SplitLineTag returns the tag a line starts with and the remaining trimmed
// content. Lines without a known tag map to TagNormal with the whole line as
// content and ok set to false.
func SplitLineTag(line string) (tag LineTag, content string, ok bool) {
	line = strings.TrimSpace(line)
	for t := LineTag(0); t < lineTagCount; t++ {
		if strings.HasPrefix(line, lineTagTokens[t]) {
			return t, strings.TrimSpace(line[len(lineTagTokens[t]):]), true
		}
	}
	return TagNormal, line, false
}

// ContainsLineTag reports whether any line tag token occurs anywhere in text.
func ContainsLineTag(text string) bool {
	for _, token := range lineTagTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
