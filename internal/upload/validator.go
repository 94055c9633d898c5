// Package upload implements the file validation pipeline that guards the
// ingestion workflows. Client-declared content types and filename extensions
// are untrustworthy; only magic bytes are authoritative, but the extension is
// still checked for consistency to catch mislabeled files.
package upload

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize caps uploads at 10 MiB.
const DefaultMaxSize = 10 << 20

// sniffLen is the content prefix inspected for magic bytes. Matches the
// mimetype library's own read limit and comfortably covers every signature
// in the allow-list.
const sniffLen = 3072

// allowedTypes maps permitted MIME types to the filename extensions that are
// consistent with them.
var allowedTypes = map[string][]string{
	"application/pdf": {".pdf"},
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
}

// Reason classifies why a file was rejected.
type Reason string

const (
	ReasonMissing           Reason = "empty_or_missing"
	ReasonTooLarge          Reason = "too_large"
	ReasonDisallowedType    Reason = "disallowed_type"
	ReasonExtensionMismatch Reason = "extension_mismatch"
)

// RejectionError describes a failed validation with a human-readable message
// suitable for returning to the client.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// reject builds a RejectionError in one line at call sites.
func reject(reason Reason, format string, args ...any) error {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// File is an in-memory or buffered upload as handed over by the transport
// layer. The handle must support seeking; multipart uploads do.
type File struct {
	Content  io.ReadSeeker
	Filename string
}

// Validate runs the full pipeline in order, short-circuiting on the first
// failure: presence, size, content sniffing, extension consistency. On
// success the handle's read cursor is back at position 0 so the same handle
// can be stored downstream.
func Validate(f File, maxSize int64) error {
	if f.Content == nil || f.Filename == "" {
		return reject(ReasonMissing, "no file submitted")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	size, err := f.Content.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("determine upload size: %w", err)
	}
	if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	if size > maxSize {
		return reject(ReasonTooLarge, "file too large: %.1fMB (max %.1fMB)",
			float64(size)/1024/1024, float64(maxSize)/1024/1024)
	}

	prefix := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Content, prefix)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read upload prefix: %w", err)
	}
	if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}

	detected := mimetype.Detect(prefix[:n])
	sniffed := ""
	for allowed := range allowedTypes {
		if detected.Is(allowed) {
			sniffed = allowed
			break
		}
	}
	if sniffed == "" {
		return reject(ReasonDisallowedType, "file type not allowed: %s (valid extensions: %s)",
			detected.String(), strings.Join(allowedExtensions(), ", "))
	}

	ext := strings.ToLower(filepath.Ext(f.Filename))
	for _, valid := range allowedTypes[sniffed] {
		if ext == valid {
			return nil
		}
	}
	return reject(ReasonExtensionMismatch, "file extension does not match content; valid extensions for %s: %s",
		sniffed, strings.Join(allowedTypes[sniffed], ", "))
}

// allowedExtensions returns the sorted union of allowed extensions for
// rejection messages.
func allowedExtensions() []string {
	var exts []string
	for _, list := range allowedTypes {
		exts = append(exts, list...)
	}
	sort.Strings(exts)
	return exts
}
