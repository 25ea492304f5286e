package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>R&amp;D Engineer</w:t><w:tab/><w:t>2020</w:t></w:r></w:p></w:body>`

	assert.Equal(t, "Jane Doe\nR&D Engineer\t2020\n", DocxXMLToText(xml))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", CleanText("  a  \n\n\n   b\n "))
	assert.Equal(t, "", CleanText(" \n\t\n"))
}

func TestIsSupportedExtension(t *testing.T) {
	assert.True(t, IsSupportedExtension(".PDF"))
	assert.True(t, IsSupportedExtension(".docx"))
	assert.False(t, IsSupportedExtension(".doc"))
	assert.False(t, IsSupportedExtension(""))
}

func TestExtractText_Errors(t *testing.T) {
	parser := NewDocumentParserService()

	_, err := parser.ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorContains(t, err, "does not exist")

	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))
	_, err = parser.ExtractText(path)
	assert.ErrorContains(t, err, "unsupported file type")
}
