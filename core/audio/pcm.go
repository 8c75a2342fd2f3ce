package audio

import (
	"encoding/binary"
	"sync"
)

// Energy returns the mean absolute amplitude of little-endian signed 16-bit
// PCM, normalised to [0, 1]. A trailing odd byte is ignored.
func Energy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	return sum / float64(samples) / 32768
}

// Collector accumulates audio chunks delivered by a device callback until a
// fixed number of bytes has been gathered.
type Collector struct {
	want int
	buf  []byte
	done chan struct{}

	once sync.Once
	mu   sync.Mutex
}

func NewCollector(want int) *Collector {
	c := &Collector{
		want: want,
		buf:  make([]byte, 0, max(want, 0)),
		done: make(chan struct{}),
	}
	if want <= 0 {
		c.once.Do(func() { close(c.done) })
	}
	return c
}

// Write appends a chunk. Audio arriving after the collector is full is
// dropped.
func (c *Collector) Write(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if missing := c.want - len(c.buf); missing > 0 {
		c.buf = append(c.buf, chunk[:min(missing, len(chunk))]...)
	}
	if len(c.buf) >= c.want {
		c.once.Do(func() { close(c.done) })
	}
}

// Done is closed once the collector is full.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Bytes returns a copy of the audio gathered so far.
func (c *Collector) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]byte, len(c.buf))
	copy(out, c.buf)
	return out
}
