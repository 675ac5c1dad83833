package sink

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/val3rkq/osmbounds/internal/apperr"
)

func TestOpen_StdoutIsNotClosed(t *testing.T) {
	var out bytes.Buffer
	s, err := Open("", "", &out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := io.WriteString(s, "hello\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if out.String() != "hello\n" || s.Path() != "stdout" {
		t.Fatalf("out = %q, path = %q", out.String(), s.Path())
	}
}

func TestOpen_FileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(path, []byte("stale content that is long"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := Open(path, "utf-8", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = io.WriteString(s, "new\n")
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "new\n" {
		t.Fatalf("file = %q", b)
	}
}

func TestOpen_Windows1251(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := Open(path, "Windows-1251", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = io.WriteString(s, "Москва 1\n")
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, _ := os.ReadFile(path)
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "Москва 1\n" {
		t.Fatalf("decoded = %q", decoded)
	}
	if len(raw) != len("Москва 1\n")-6 {
		t.Fatalf("expected single-byte cyrillic, got %d bytes", len(raw))
	}
}

func TestOpen_UnsupportedCharset(t *testing.T) {
	_, err := Open("", "utf-7", &bytes.Buffer{})
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestOpen_CreateFailureIsIOError(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "out.jsonl"), "", nil)
	if !errors.Is(err, apperr.ErrIO) {
		t.Fatalf("err = %v, want IO error", err)
	}
}
