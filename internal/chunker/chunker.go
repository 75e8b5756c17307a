// Package chunker accumulates raw call audio and cuts fixed-duration
// chunks for recognition. The buffer is FIFO: a chunk is drained exactly
// from the front, leftover bytes stay for the next feed.
package chunker

import (
	"sync"
	"time"
)

// DefaultChunkBytes is 1.5 seconds of 8kHz 16-bit mono PCM.
const DefaultChunkBytes = 24000

// BytesFor derives a chunk size from the audio format and a target
// duration. 8kHz 16-bit mono at 1.5s yields 24000 bytes.
func BytesFor(sampleRateHz, bitDepth int, d time.Duration) int {
	bytesPerSecond := sampleRateHz * bitDepth / 8
	return int(float64(bytesPerSecond) * d.Seconds())
}

// Chunker buffers audio bytes for one session. Feed is the only mutator
// of the buffer. The Chunker itself places no upper bound on buffer
// growth; backpressure is the caller's responsibility.
type Chunker struct {
	mu         sync.Mutex
	buf        []byte
	chunkBytes int
}

// New creates a chunker that emits chunks of exactly chunkBytes bytes.
func New(chunkBytes int) *Chunker {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	return &Chunker{chunkBytes: chunkBytes}
}

// Feed appends audio to the buffer and returns every complete chunk now
// ready, in order. Each returned chunk is exactly chunkBytes long and
// owns its backing array; no bytes are lost or duplicated across feeds.
func (c *Chunker) Feed(audio []byte) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf = append(c.buf, audio...)

	var chunks [][]byte
	for len(c.buf) >= c.chunkBytes {
		chunk := make([]byte, c.chunkBytes)
		copy(chunk, c.buf[:c.chunkBytes])
		chunks = append(chunks, chunk)
		// Drain from the front, keep the tail for the next feed.
		n := copy(c.buf, c.buf[c.chunkBytes:])
		c.buf = c.buf[:n]
	}
	return chunks
}

// Buffered returns the number of bytes waiting below the threshold.
func (c *Chunker) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// ChunkBytes returns the configured chunk size.
func (c *Chunker) ChunkBytes() int {
	return c.chunkBytes
}
