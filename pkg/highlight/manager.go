package highlight

import (
	"errors"
	"sync"
	"time"
)

// DefaultTTL is how long a temporary highlight stays visible when the
// manager is constructed without an explicit duration.
const DefaultTTL = 3 * time.Second

var (
	ErrClosed       = errors.New("highlight: manager closed")
	ErrInvalidRange = errors.New("highlight: invalid range")
	ErrNoMarker     = errors.New("highlight: no marker attached")
)

// Kind separates auto-expiring decorations from content-mutating marks.
const (
	KindTemporary = "temporary"
	KindPermanent = "permanent"
)

// Decoration is a visual annotation over a document range. It never
// mutates document content.
type Decoration struct {
	From      int
	To        int
	Severity  string
	Kind      string
	ExpiresAt time.Time
}

// Marker is the content-mutating side of highlighting, implemented by
// the document handle. Permanent marks persist as part of the tree.
type Marker interface {
	SetMark(from, to int) error
	UnsetMark(from, to int) error
	ToggleMark(from, to int) error
}

// Manager owns the temporary highlight of one editor instance: at most
// one decoration and one pending expiry timer exist at a time. A new
// temporary highlight cancels the previous timer before arming its own,
// so two timers can never race over the same editor. Close cancels
// whatever is pending; the manager is dead afterwards.
type Manager struct {
	marker Marker
	ttl    time.Duration

	mu     sync.Mutex
	active *Decoration
	timer  *time.Timer
	gen    uint64
	closed bool
}

// NewManager builds a manager bound to one editor. marker may be nil
// when the caller only needs temporary decorations; ttl <= 0 selects
// DefaultTTL.
func NewManager(marker Marker, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{marker: marker, ttl: ttl}
}

// AddTemporary replaces the current temporary highlight, if any, with a
// new one over [from, to) and arms a fresh expiry timer.
func (m *Manager) AddTemporary(from, to int, severity string) (Decoration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Decoration{}, ErrClosed
	}
	if from < 0 || to <= from {
		return Decoration{}, ErrInvalidRange
	}

	m.stopTimerLocked()
	m.gen++
	gen := m.gen
	d := Decoration{
		From:      from,
		To:        to,
		Severity:  severity,
		Kind:      KindTemporary,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	m.active = &d
	m.timer = time.AfterFunc(m.ttl, func() { m.expire(gen) })
	return d, nil
}

// expire runs on the timer goroutine. The generation check keeps a
// timer that already fired, but lost the race for the lock, from
// clearing a newer decoration.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return
	}
	m.active = nil
	m.timer = nil
}

// ClearTemporary removes the current temporary highlight and cancels
// its timer. Safe to call in any state.
func (m *Manager) ClearTemporary() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// Active returns a copy of the current temporary decoration, or nil.
func (m *Manager) Active() *Decoration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	d := *m.active
	return &d
}

// RemapThrough shifts the active decoration across a document edit.
// An edit entirely before the decoration moves it by the length delta;
// an edit entirely after leaves it alone; an overlapping edit drops the
// decoration rather than showing it somewhere wrong.
func (m *Manager) RemapThrough(editFrom, editTo, newLen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return
	}
	delta := newLen - (editTo - editFrom)
	switch {
	case editTo <= m.active.From:
		m.active.From += delta
		m.active.To += delta
	case editFrom >= m.active.To:
		// untouched
	default:
		m.clearLocked()
	}
}

// Close tears the manager down, cancelling any pending timer. Further
// AddTemporary calls fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.clearLocked()
	m.closed = true
}

// SetMark applies a permanent mark through the attached document.
func (m *Manager) SetMark(from, to int) error {
	if m.marker == nil {
		return ErrNoMarker
	}
	return m.marker.SetMark(from, to)
}

// UnsetMark removes a permanent mark through the attached document.
func (m *Manager) UnsetMark(from, to int) error {
	if m.marker == nil {
		return ErrNoMarker
	}
	return m.marker.UnsetMark(from, to)
}

// ToggleMark toggles a permanent mark through the attached document.
func (m *Manager) ToggleMark(from, to int) error {
	if m.marker == nil {
		return ErrNoMarker
	}
	return m.marker.ToggleMark(from, to)
}

func (m *Manager) clearLocked() {
	m.stopTimerLocked()
	m.gen++
	m.active = nil
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
