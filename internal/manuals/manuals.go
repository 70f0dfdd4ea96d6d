// Package manuals keeps uploaded PDF manuals on disk. Rows describing them
// live in the database; this package only owns the files.
package manuals

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrNotPDF is returned for uploads without a .pdf name or PDF content.
var ErrNotPDF = errors.New("only PDF files are allowed")

// Store writes manuals below Dir.
type Store struct {
	Dir string
}

// New creates the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manuals dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save checks that the upload is a PDF and writes it as "<itemID>_<uuid>_<name>",
// so every upload owns its file even when names repeat. It returns the cleaned
// file name and the path written.
func (s *Store) Save(itemID int64, filename string, r io.Reader) (name, path string, err error) {
	name = SanitizeFilename(filename)
	if name == "" || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", "", ErrNotPDF
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	if http.DetectContentType(head) != "application/pdf" {
		return "", "", ErrNotPDF
	}

	path = filepath.Join(s.Dir, strconv.FormatInt(itemID, 10)+"_"+uuid.NewString()+"_"+name)
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", "", fmt.Errorf("creating manual file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("writing manual: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("writing manual: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", "", fmt.Errorf("storing manual: %w", err)
	}
	return name, path, nil
}

// Open opens a stored manual for reading.
func (s *Store) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Remove deletes a stored manual. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing manual: %w", err)
	}
	return nil
}

// SanitizeFilename reduces a client-supplied name to a safe base name made of
// ASCII letters, digits, dots, dashes and underscores. Directory parts are
// dropped and whitespace becomes an underscore.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
