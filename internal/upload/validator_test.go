package upload

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF\n")
	pngContent = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}
	jpgContent = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00}
)

func file(name string, content []byte) File {
	return File{Content: bytes.NewReader(content), Filename: name}
}

func assertRejected(t *testing.T, err error, reason Reason) {
	t.Helper()
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, reason, rej.Reason)
}

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	cases := []File{
		file("contract.pdf", pdfContent),
		file("photo.jpg", jpgContent),
		file("photo.jpeg", jpgContent),
		file("scan.png", pngContent),
		file("SCAN.PNG", pngContent), // extension comparison is case-insensitive
	}
	for _, f := range cases {
		err := Validate(f, DefaultMaxSize)
		assert.NoError(t, err, f.Filename)

		// The same handle is read again downstream; the cursor must be home.
		pos, seekErr := f.Content.Seek(0, io.SeekCurrent)
		require.NoError(t, seekErr)
		assert.Equal(t, int64(0), pos, f.Filename)
	}
}

func TestValidateMissingFile(t *testing.T) {
	assertRejected(t, Validate(File{}, DefaultMaxSize), ReasonMissing)
	assertRejected(t, Validate(File{Content: bytes.NewReader(pdfContent)}, DefaultMaxSize), ReasonMissing)
	assertRejected(t, Validate(File{Filename: "doc.pdf"}, DefaultMaxSize), ReasonMissing)
}

func TestValidateSizeCheckPrecedesSniffing(t *testing.T) {
	// Content that would also fail sniffing; the size rejection must win.
	big := strings.Repeat("x", 100)
	err := Validate(file("doc.pdf", []byte(big)), 50)
	assertRejected(t, err, ReasonTooLarge)
	assert.Contains(t, err.Error(), "file too large")
}

func TestValidateDisallowedTypeIgnoresExtension(t *testing.T) {
	err := Validate(file("notes.pdf", []byte("plain text pretending to be a pdf")), DefaultMaxSize)
	assertRejected(t, err, ReasonDisallowedType)
	assert.Contains(t, err.Error(), "file type not allowed")
}

func TestValidateExtensionMismatch(t *testing.T) {
	err := Validate(file("doc.exe", pdfContent), DefaultMaxSize)
	assertRejected(t, err, ReasonExtensionMismatch)

	// A real PNG renamed to .jpg is technically valid content but mislabeled.
	assertRejected(t, Validate(file("photo.jpg", pngContent), DefaultMaxSize), ReasonExtensionMismatch)
}

func TestValidateRestoresCursorAfterRejection(t *testing.T) {
	f := file("doc.exe", pdfContent)
	assertRejected(t, Validate(f, DefaultMaxSize), ReasonExtensionMismatch)

	pos, err := f.Content.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}

func TestValidateExactlyMaxSize(t *testing.T) {
	err := Validate(file("contract.pdf", pdfContent), int64(len(pdfContent)))
	assert.NoError(t, err)
}
