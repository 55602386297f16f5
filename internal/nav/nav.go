// Package nav records where the client currently "is". It stands in for the
// browser location so the 401 redirect and post-checkout navigation remain
// observable side effects.
package nav

import "sync"

const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathCart     = "/cart"
	PathCheckout = "/checkout"
	PathOrders   = "/orders"
)

// Navigator is the narrow view the other packages need.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// History is a goroutine-safe Navigator that keeps every visited path.
type History struct {
	mu      sync.Mutex
	entries []string
	onMove  func(from, to string)
}

func NewHistory(start string) *History {
	if start == "" {
		start = PathHome
	}
	return &History{entries: []string{start}}
}

// OnNavigate registers a callback fired after each navigation.
func (h *History) OnNavigate(fn func(from, to string)) {
	h.mu.Lock()
	h.onMove = fn
	h.mu.Unlock()
}

func (h *History) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

func (h *History) Navigate(path string) {
	h.mu.Lock()
	from := h.entries[len(h.entries)-1]
	h.entries = append(h.entries, path)
	fn := h.onMove
	h.mu.Unlock()
	if fn != nil {
		fn(from, path)
	}
}

// Entries returns a copy of the visited paths, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
