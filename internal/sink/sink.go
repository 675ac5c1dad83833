// Package sink opens the output destination: a file, or stdout when no path
// is given, optionally re-encoded into a legacy single-byte charset.
package sink

import (
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/val3rkq/osmbounds/internal/apperr"
)

var charsets = map[string]*charmap.Charmap{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
}

// LookupCharset resolves a charset name. UTF-8 (or an empty name) returns a
// nil charmap, meaning no re-encoding.
func LookupCharset(name string) (*charmap.Charmap, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "utf-8" || n == "utf8" {
		return nil, nil
	}
	cm, ok := charsets[n]
	if !ok {
		return nil, apperr.Configf("output charset", "unsupported charset %q", name)
	}
	return cm, nil
}

// Sink is the writable end of the output. Close must always be called; it
// flushes the encoder and closes the file, but never closes stdout.
type Sink struct {
	io.Writer
	path    string
	file    *os.File
	encoder io.Closer
}

// Open creates path (truncating it) or wraps stdout when path is empty or
// "-". Characters the charset cannot represent are replaced rather than
// failing the run.
func Open(path, charset string, stdout io.Writer) (*Sink, error) {
	cm, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}

	s := &Sink{path: path}
	var w io.Writer
	if path == "" || path == "-" {
		s.path = "stdout"
		w = stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, apperr.IO("create", path, err)
		}
		s.file = f
		w = f
	}

	if cm != nil {
		ew := encoding.ReplaceUnsupported(cm.NewEncoder()).Writer(w)
		if c, ok := ew.(io.Closer); ok {
			s.encoder = c
		}
		w = ew
	}
	s.Writer = w
	return s, nil
}

func (s *Sink) Path() string { return s.path }

func (s *Sink) Close() error {
	var first error
	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil {
			first = apperr.IO("flush", s.path, err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && first == nil {
			first = apperr.IO("close", s.path, err)
		}
	}
	return first
}
