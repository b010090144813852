package quality

import "time"

// Sample is a single buffer health observation.
type Sample struct {
	BufferedAhead time.Duration // Downloaded media ahead of the playhead
	IsBuffering   bool          // Engine is stalled waiting for data
	At            time.Time     // Observation time
}

// history is a fixed-size ring of recent samples.
type history struct {
	buf  []Sample
	next int
	full bool
}

func newHistory(size int) *history {
	if size <= 0 {
		size = 1
	}
	return &history{buf: make([]Sample, size)}
}

func (h *history) add(s Sample) {
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

func (h *history) reset() {
	h.next = 0
	h.full = false
}

// samples returns the retained samples, oldest first.
func (h *history) samples() []Sample {
	if !h.full {
		out := make([]Sample, h.next)
		copy(out, h.buf[:h.next])
		return out
	}
	out := make([]Sample, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	out = append(out, h.buf[:h.next]...)
	return out
}
