package chunker

import (
	"bytes"
	"testing"
	"time"
)

func TestBytesFor(t *testing.T) {
	// 1.5s of 8kHz 16-bit mono.
	if got := BytesFor(8000, 16, 1500*time.Millisecond); got != 24000 {
		t.Errorf("expected 24000, got %d", got)
	}
	if got := BytesFor(16000, 16, time.Second); got != 32000 {
		t.Errorf("expected 32000, got %d", got)
	}
}

func TestFeed_BelowThresholdEmitsNothing(t *testing.T) {
	c := New(10)
	if chunks := c.Feed(make([]byte, 9)); chunks != nil {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
	if c.Buffered() != 9 {
		t.Errorf("expected 9 buffered, got %d", c.Buffered())
	}
}

func TestFeed_ExactThresholdBoundary(t *testing.T) {
	c := New(10)

	// Cumulative bytes reach the threshold exactly at a frame boundary:
	// exactly one chunk per crossing, drain exact.
	first := c.Feed(make([]byte, 6))
	if first != nil {
		t.Fatalf("expected no chunk at 6 bytes, got %d", len(first))
	}
	second := c.Feed(make([]byte, 4))
	if len(second) != 1 {
		t.Fatalf("expected exactly one chunk at 10 bytes, got %d", len(second))
	}
	if len(second[0]) != 10 {
		t.Errorf("expected chunk of 10 bytes, got %d", len(second[0]))
	}
	if c.Buffered() != 0 {
		t.Errorf("expected empty buffer after exact drain, got %d", c.Buffered())
	}
}

func TestFeed_NoBytesLostOrDuplicated(t *testing.T) {
	c := New(8)

	// Feed a known pattern in uneven frames; reassembled chunks plus the
	// tail must equal the original stream.
	var stream []byte
	for i := 0; i < 50; i++ {
		stream = append(stream, byte(i))
	}

	var got []byte
	fed := 0
	for _, size := range []int{3, 7, 1, 14, 9, 16} {
		for _, chunk := range c.Feed(stream[fed : fed+size]) {
			if len(chunk) != 8 {
				t.Fatalf("chunk size %d, expected 8", len(chunk))
			}
			got = append(got, chunk...)
		}
		fed += size
	}

	if fed != 50 {
		t.Fatalf("test fed %d bytes, expected 50", fed)
	}
	// 50 bytes at chunk size 8: six chunks, two bytes left over.
	if len(got) != 48 {
		t.Fatalf("expected 48 chunked bytes, got %d", len(got))
	}
	if c.Buffered() != 2 {
		t.Fatalf("expected 2 leftover bytes, got %d", c.Buffered())
	}
	if !bytes.Equal(got, stream[:48]) {
		t.Error("chunked bytes differ from the input stream")
	}
}

func TestFeed_MultipleChunksInOneFeed(t *testing.T) {
	c := New(4)
	chunks := c.Feed([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0], []byte{0, 1, 2, 3}) || !bytes.Equal(chunks[1], []byte{4, 5, 6, 7}) {
		t.Error("chunks out of order or misaligned")
	}
	if c.Buffered() != 1 {
		t.Errorf("expected 1 leftover byte, got %d", c.Buffered())
	}
}

func TestFeed_ChunksOwnTheirBytes(t *testing.T) {
	c := New(4)
	chunks := c.Feed([]byte{1, 1, 1, 1})
	if len(chunks) != 1 {
		t.Fatal("expected one chunk")
	}
	// Later feeds must not mutate an already-emitted chunk.
	c.Feed([]byte{2, 2, 2, 2})
	if !bytes.Equal(chunks[0], []byte{1, 1, 1, 1}) {
		t.Error("emitted chunk was mutated by a later feed")
	}
}

func TestNew_ZeroSizeUsesDefault(t *testing.T) {
	c := New(0)
	if c.ChunkBytes() != DefaultChunkBytes {
		t.Errorf("expected default %d, got %d", DefaultChunkBytes, c.ChunkBytes())
	}
}
