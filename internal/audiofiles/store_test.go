package audiofiles

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "https://example.com/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSaveAndURL(t *testing.T) {
	s := newStore(t)

	fname, err := s.Save("CA123", []byte("mp3-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fname != "tts_CA123_1.mp3" {
		t.Errorf("fname = %q, want tts_CA123_1.mp3", fname)
	}
	if got := s.URL(fname); got != "https://example.com/audio/tts_CA123_1.mp3" {
		t.Errorf("URL = %q", got)
	}

	path, err := s.Path(fname)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("saved content = %q", data)
	}
}

func TestSave_CounterPerCall(t *testing.T) {
	s := newStore(t)

	first, _ := s.Save("CA1", nil)
	second, _ := s.Save("CA1", nil)
	other, _ := s.Save("CA2", nil)

	if first != "tts_CA1_1.mp3" || second != "tts_CA1_2.mp3" {
		t.Errorf("same-call filenames = %q, %q", first, second)
	}
	if other != "tts_CA2_1.mp3" {
		t.Errorf("other-call filename = %q, counters must be per call", other)
	}

	s.Forget("CA1")
	again, _ := s.Save("CA1", nil)
	if again != "tts_CA1_1.mp3" {
		t.Errorf("post-Forget filename = %q, want counter reset", again)
	}
}

func TestSave_SanitizesCallSid(t *testing.T) {
	s := newStore(t)

	fname, err := s.Save("../evil/sid", []byte("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(fname) != fname {
		t.Errorf("fname %q must not carry path separators", fname)
	}
	if _, err := s.Path(fname); err != nil {
		t.Errorf("sanitized file must resolve: %v", err)
	}
}

func TestPath_RejectsTraversal(t *testing.T) {
	s := newStore(t)

	for _, fname := range []string{"", "../secret.mp3", "a/b.mp3", "/etc/passwd"} {
		if _, err := s.Path(fname); err == nil {
			t.Errorf("Path(%q) should be rejected", fname)
		}
	}
}

func TestPath_MissingFile(t *testing.T) {
	s := newStore(t)
	if _, err := s.Path("tts_CA9_1.mp3"); err == nil {
		t.Error("Path for a file that was never saved should fail")
	}
}
