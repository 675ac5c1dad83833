package apperr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestIs_MatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load closure: %w", Decode("decode", "in.pbf", io.ErrUnexpectedEOF))

	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode match for %v", err)
	}
	if errors.Is(err, ErrIO) {
		t.Fatalf("decode error must not match ErrIO")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("cause must stay reachable")
	}
	if k, ok := KindOf(err); !ok || k != KindDecode {
		t.Fatalf("KindOf = %q, %v", k, ok)
	}
}

func TestError_Message(t *testing.T) {
	err := IO("open", "/tmp/x.pbf", errors.New("no such file"))
	want := "IO_ERROR: open /tmp/x.pbf: no such file"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}

	err = Configf("charset", "unsupported %q", "utf-7")
	if err.Error() != `CONFIG_ERROR: charset: unsupported "utf-7"` {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("plain errors have no kind")
	}
}
