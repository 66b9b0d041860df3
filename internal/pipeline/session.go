package pipeline

import (
	"context"
	"sync"

	"github.com/backmassage/galleryscan/internal/probe"
)

// Session owns one gallery's discovery state: the scan result, how many
// rendered tiles have settled, and the viewer cursor. Safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	req     Request
	result  Result
	settled map[int]bool // index -> loaded ok
	cursor  int          // position in result.Items; -1 when the viewer is closed
}

// NewSession returns an empty session for req.
func NewSession(req Request) *Session {
	return &Session{
		req:     req,
		result:  Result{Items: []Item{}},
		settled: make(map[int]bool),
		cursor:  -1,
	}
}

// Scan runs Discover for the session's request and replaces any previous
// result. Load progress and the viewer cursor are reset.
func (s *Session) Scan(ctx context.Context, checker probe.Checker, observe func(BatchReport)) Result {
	res := Discover(ctx, checker, s.Request(), observe)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	s.settled = make(map[int]bool)
	s.cursor = -1
	return copyResult(res)
}

// Request returns the session's scan request.
func (s *Session) Request() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.req
	req.Extensions = append([]string(nil), s.req.Extensions...)
	return req
}

// Result returns a copy of the latest scan result.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyResult(s.result)
}

// Items returns a copy of the discovered items.
func (s *Session) Items() []Item {
	return s.Result().Items
}

// MarkLoaded records that the tile for index finished rendering (ok) or
// failed to. Each index settles once; unknown indices are ignored. It
// reports whether every discovered item has now settled.
func (s *Session) MarkLoaded(index int, ok bool) (allSettled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position(index) < 0 {
		return len(s.settled) == len(s.result.Items)
	}
	if _, done := s.settled[index]; !done {
		s.settled[index] = ok
	}
	return len(s.settled) == len(s.result.Items)
}

// Progress returns how many tiles loaded, failed, and the total expected.
func (s *Session) Progress() (loaded, failed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ok := range s.settled {
		if ok {
			loaded++
		} else {
			failed++
		}
	}
	return loaded, failed, len(s.result.Items)
}

// Open points the viewer at the item with the given index.
func (s *Session) Open(index int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.position(index)
	if pos < 0 {
		return Item{}, false
	}
	s.cursor = pos
	return s.result.Items[pos], true
}

// Next advances the viewer, wrapping from the last item to the first.
func (s *Session) Next() (Item, bool) {
	return s.step(1)
}

// Prev moves the viewer back, wrapping from the first item to the last.
func (s *Session) Prev() (Item, bool) {
	return s.step(-1)
}

// Current returns the item under the viewer cursor.
func (s *Session) Current() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 {
		return Item{}, false
	}
	return s.result.Items[s.cursor], true
}

// Close closes the viewer. Next and Prev report false until Open is called.
func (s *Session) Close() {
	s.mu.Lock()
	s.cursor = -1
	s.mu.Unlock()
}

func (s *Session) step(delta int) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.result.Items)
	if s.cursor < 0 || n == 0 {
		return Item{}, false
	}
	s.cursor = (s.cursor + delta + n) % n
	return s.result.Items[s.cursor], true
}

// position returns the slice position of index, or -1.
func (s *Session) position(index int) int {
	for i, it := range s.result.Items {
		if it.Index == index {
			return i
		}
	}
	return -1
}

func copyResult(r Result) Result {
	r.Items = append([]Item{}, r.Items...)
	return r
}
