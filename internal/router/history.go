package router

import (
	"net/url"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// History is an in-memory browser history: a stack of query entries with a
// cursor, supporting push, replace, back and forward.
type History struct {
	mu       sync.Mutex
	entries  []url.Values
	index    int
	pushes   int
	replaces int
}

func NewHistory(initial url.Values) *History {
	return &History{
		entries: []url.Values{cloneValues(initial)},
	}
}

// ParseHistory starts a history from a raw query string. Malformed pairs are
// dropped and the rest are kept; ';' separates pairs like '&'.
func ParseHistory(rawQuery string) *History {
	rawQuery = strings.ReplaceAll(strings.TrimPrefix(rawQuery, "?"), ";", "&")
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		log.Debugf("Dropping malformed query pairs: %v", err)
	}
	return NewHistory(values)
}

func (h *History) Query() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()

	return cloneValues(h.entries[h.index])
}

// Push adds an entry, dropping anything forward of the cursor.
func (h *History) Push(values url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.index+1], cloneValues(values))
	h.index++
	h.pushes++
}

// Replace overwrites the current entry.
func (h *History) Replace(values url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.index] = cloneValues(values)
	h.replaces++
}

func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

func (h *History) Forward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

// Len is the number of history entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}

func (h *History) Pushes() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pushes
}

func (h *History) Replaces() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.replaces
}

// Navigations counts every URL write, pushed or replaced.
func (h *History) Navigations() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pushes + h.replaces
}

// String is the encoded query of the current entry.
func (h *History) String() string {
	return h.Query().Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
