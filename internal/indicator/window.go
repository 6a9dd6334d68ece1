package indicator

import (
	"sync"

	"github.com/newthinker/sentinel/internal/core"
)

// DefaultWindowSize is the rolling window capacity used when none is configured.
const DefaultWindowSize = 200

// Window is a fixed-capacity rolling buffer of price samples. The oldest
// sample is evicted once capacity is exceeded. It is safe for one writer and
// concurrent readers.
type Window struct {
	mu      sync.RWMutex
	buf     []core.PriceSample
	start   int
	size    int
	maxSize int
}

// NewWindow creates a window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window{
		buf:     make([]core.PriceSample, capacity),
		maxSize: capacity,
	}
}

// Append adds a sample, evicting the oldest when full.
func (w *Window) Append(s core.PriceSample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size < w.maxSize {
		w.buf[(w.start+w.size)%w.maxSize] = s
		w.size++
		return
	}
	w.buf[w.start] = s
	w.start = (w.start + 1) % w.maxSize
}

// Samples returns a copy of the window in arrival order.
func (w *Window) Samples() []core.PriceSample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]core.PriceSample, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%w.maxSize]
	}
	return out
}

// Last returns the most recent sample.
func (w *Window) Last() (core.PriceSample, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.size == 0 {
		return core.PriceSample{}, false
	}
	return w.buf[(w.start+w.size-1)%w.maxSize], true
}

// Len returns the number of samples held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return w.maxSize
}
