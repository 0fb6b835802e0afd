package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDOCX assembles a minimal DOCX archive with the given paragraphs.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		if err := xmlEscape(&body, p); err != nil {
			t.Fatal(err)
		}
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func xmlEscape(buf *bytes.Buffer, s string) error {
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return nil
}

func TestExtract_PlainText(t *testing.T) {
	assert.Equal(t, "hello world", Extract([]byte("hello world"), "notes.txt"))
	assert.Equal(t, "no extension", Extract([]byte("no extension"), "README"))
}

func TestExtract_InvalidUTF8(t *testing.T) {
	assert.Equal(t, "", Extract([]byte{0xff, 0xfe, 0x80}, "data.bin"))
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Extract(nil, "empty.txt"))
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t, []string{"First paragraph.", "Second paragraph."})
	got := Extract(data, "contract.docx")
	assert.Equal(t, "First paragraph.\nSecond paragraph.", got)
}

func TestExtract_DOCX_CaseInsensitiveExtension(t *testing.T) {
	data := buildDOCX(t, []string{"body"})
	assert.Equal(t, "body", Extract(data, "Contract.DOCX"))
}

func TestExtract_DOCX_Corrupt(t *testing.T) {
	assert.Equal(t, "", Extract([]byte("not a zip archive"), "broken.docx"))
}

func TestExtract_DOCX_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	assert.Equal(t, "", Extract(buf.Bytes(), "odd.docx"))
}

func TestExtract_PDF_Corrupt(t *testing.T) {
	assert.Equal(t, "", Extract([]byte("%PDF-1.4 truncated garbage"), "broken.pdf"))
	assert.Equal(t, "", Extract([]byte("not a pdf at all"), "other.pdf"))
}
