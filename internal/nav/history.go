package nav

// #region history

// History is the bounded context-label window used for oscillation
// detection. Oldest entries are evicted as new ones are appended.
type History struct {
	labels []string
	size   int
}

// NewHistory creates a window holding the last size labels.
func NewHistory(size int) *History {
	if size < 2 {
		size = 2
	}
	return &History{size: size}
}

// Append adds a label, evicting the oldest when full.
func (h *History) Append(label string) {
	h.labels = append(h.labels, label)
	if len(h.labels) > h.size {
		h.labels = h.labels[1:]
	}
}

// Labels returns the window contents, oldest first.
func (h *History) Labels() []string {
	out := make([]string, len(h.labels))
	copy(out, h.labels)
	return out
}

// Full reports whether the window holds size entries.
func (h *History) Full() bool {
	return len(h.labels) == h.size
}

// Reset clears the window. Called after a loop fires so the same
// pattern occurrence cannot trigger twice.
func (h *History) Reset() {
	h.labels = h.labels[:0]
}

// #endregion history

// #region alternating

// Alternating reports a strict two-label oscillation across the full
// window: exactly two distinct labels in A,B,A,B order. Anything short
// of the full window, or a third label, is not a loop.
func (h *History) Alternating() bool {
	if !h.Full() {
		return false
	}
	a, b := h.labels[0], h.labels[1]
	if a == b {
		return false
	}
	for i, label := range h.labels {
		want := a
		if i%2 == 1 {
			want = b
		}
		if label != want {
			return false
		}
	}
	return true
}

// #endregion alternating
