package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBetween(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"empty text", "", "", false},
		{"no start", "body\n" + EssayEnd, "", false},
		{"start without end", EssayStart + "\nbody", "", false},
		{"end before start only", EssayEnd + " x " + EssayStart + " y", "", false},
		{"trims content", EssayStart + "\n\n  body  \n" + EssayEnd, "body", true},
		{"empty block", EssayStart + EssayEnd, "", true},
		{"surrounding noise", "preamble " + EssayStart + "a" + EssayEnd + " trailer", "a", true},
		{"earliest pair wins", EssayStart + "a" + EssayEnd + "b" + EssayEnd, "a", true},
		{"second start ignored", EssayStart + "a" + EssayStart + "b" + EssayEnd, "a" + EssayStart + "b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text, EssayBlock)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractBetween_EmptyTokens(t *testing.T) {
	_, ok := ExtractBetween("abc", "", "c")
	assert.False(t, ok)
	_, ok = ExtractBetween("abc", "a", "")
	assert.False(t, ok)
}

func TestExtract_WrapRoundTrip(t *testing.T) {
	contents := []string{
		"one line",
		"@@NAME@@ Jane\n@@BULLET@@ Led migration",
		"multi\n\nparagraph essay",
	}
	for _, b := range []Block{AnalysisBlock, ModificationBlock, EssayBlock} {
		for _, c := range contents {
			got, ok := Extract(b.Wrap(c), b)
			assert.True(t, ok)
			assert.Equal(t, c, got)
		}
	}
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, "Good fit.", Unwrap(AnalysisBlock.Wrap("Good fit."), AnalysisBlock))
	assert.Equal(t, "raw analysis", Unwrap("raw analysis", AnalysisBlock))
	assert.Equal(t, AnalysisStart+" dangling", Unwrap(AnalysisStart+" dangling", AnalysisBlock))
}
