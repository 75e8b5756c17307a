// Package audiofiles stores synthesized reply audio on disk and resolves
// the public URLs the transport uses to fetch and play it.
package audiofiles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store writes MP3 files under a single directory and hands out opaque
// filenames. Filenames carry the call id and a per-call counter so a
// call's replies sort in order.
type Store struct {
	dir     string
	baseURL string

	mu     sync.Mutex
	counts map[string]int
}

// New creates the store, ensuring the directory exists. baseURL is the
// externally reachable prefix, e.g. "https://example.com".
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		counts:  make(map[string]int),
	}, nil
}

// Save writes the audio for callSid and returns the opaque filename.
func (s *Store) Save(callSid string, audio []byte) (string, error) {
	s.mu.Lock()
	s.counts[callSid]++
	n := s.counts[callSid]
	s.mu.Unlock()

	fname := fmt.Sprintf("tts_%s_%d.mp3", sanitize(callSid), n)
	if err := os.WriteFile(filepath.Join(s.dir, fname), audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return fname, nil
}

// URL returns the public URL for a stored filename.
func (s *Store) URL(fname string) string {
	return s.baseURL + "/audio/" + fname
}

// Path resolves a filename to its on-disk path. Rejects anything that
// escapes the audio directory.
func (s *Store) Path(fname string) (string, error) {
	if fname == "" || fname != filepath.Base(fname) {
		return "", fmt.Errorf("invalid audio filename %q", fname)
	}
	path := filepath.Join(s.dir, fname)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Forget drops the per-call counter after finalization.
func (s *Store) Forget(callSid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, callSid)
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
