package loader

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildDocx 在内存中构造一个最小的 docx 压缩包。
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		assert.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())
	return buf.Bytes()
}

const docxXMLHeader = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`

func TestExtractDocxTextParagraphs(t *testing.T) {
	data := buildDocx(t, docxXMLHeader+`
<w:body>
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
</w:body>
</w:document>`)

	text := extractDocxText(data)
	assert.Equal(t, "First paragraph\nSecond paragraph", text)
}

func TestExtractDocxTextJoinsRuns(t *testing.T) {
	data := buildDocx(t, docxXMLHeader+`
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
</w:body>
</w:document>`)

	assert.Equal(t, "Hello World", extractDocxText(data))
}

func TestExtractDocxTextInvalidInput(t *testing.T) {
	assert.Equal(t, "", extractDocxText([]byte("not a zip archive")))
	assert.Equal(t, "", extractDocxText(nil))
}

func TestExtractDocxTextMissingDocumentXML(t *testing.T) {
	data := buildDocx(t, "")
	assert.Equal(t, "", extractDocxText(data))
}

func TestExtractDocxTextMalformedXML(t *testing.T) {
	data := buildDocx(t, "<w:document><unclosed")
	assert.Equal(t, "", extractDocxText(data))
}
