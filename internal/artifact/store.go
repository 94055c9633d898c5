// Package artifact persists accepted upload content on the filesystem. The
// directory layout is a pure function of the owning creditor and the record
// kind: documents live flat under the creditor directory, certificates under
// a nested subdirectory.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store writes artifacts under a fixed root directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The root is created lazily on the
// first write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// StoreDocument writes a document artifact and returns its absolute path.
func (s *Store) StoreDocument(creditorID int64, filename string, content io.Reader) (string, error) {
	return s.store(content, creditorDir(creditorID), SanitizeFilename(filename))
}

// StoreCertificate writes a manual certificate artifact under the creditor's
// certificates subdirectory and returns its absolute path.
func (s *Store) StoreCertificate(creditorID int64, filename string, content io.Reader) (string, error) {
	return s.store(content, filepath.Join(creditorDir(creditorID), "certificates"), SanitizeFilename(filename))
}

// Remove deletes a previously written artifact. Used by the optional
// orphan-cleanup policy when a commit fails after the write; best effort
// only.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// store writes content in one shot. Directory creation is idempotent.
// Collisions on the same sanitized name are last-write-wins: filenames are
// caller-supplied, so a collision is a caller error rather than a system
// invariant.
func (s *Store) store(content io.Reader, subdir, filename string) (string, error) {
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	path, err := filepath.Abs(filepath.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("resolve artifact path: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return path, nil
}

func creditorDir(creditorID int64) string {
	return fmt.Sprintf("creditor_%d", creditorID)
}

// SanitizeFilename reduces a caller-supplied filename to a safe basename:
// path separators and traversal sequences are stripped and anything outside
// [A-Za-z0-9._-] becomes an underscore.
func SanitizeFilename(name string) string {
	// Normalize both separators before taking the basename so a Windows
	// style "..\..\evil.pdf" cannot slip through on Linux.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
