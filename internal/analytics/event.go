package analytics

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Names of the interaction events the site emits.
const (
	EventCloseAnnouncement = "Close Announcement"
	EventGalleryItemClick  = "Gallery Item Click"
	EventSidebarToggle     = "Sidebar Toggle"
	EventSidebarClose      = "Sidebar Close"
	EventCategoryClick     = "Category Click"
	EventFilterToggle      = "Filter Toggle"
	EventProductClick      = "Product Click"
)

var allowedEvents = map[string]struct{}{
	EventCloseAnnouncement: {},
	EventGalleryItemClick:  {},
	EventSidebarToggle:     {},
	EventSidebarClose:      {},
	EventCategoryClick:     {},
	EventFilterToggle:      {},
	EventProductClick:      {},
}

const (
	maxProps      = 16
	maxPropKey    = 64
	maxPropValue  = 256
	maxPathLength = 512
)

var (
	// ErrUnknownEvent is returned for event names outside the allowed set.
	ErrUnknownEvent = errors.New("analytics: unknown event")
	// ErrInvalidEvent is returned when an event payload breaks size limits.
	ErrInvalidEvent = errors.New("analytics: invalid event")
)

// Event is a single client interaction.
type Event struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Path  string            `json:"path,omitempty"`
	Props map[string]string `json:"props,omitempty"`
	Time  time.Time         `json:"time"`
}

// Known reports whether name is an accepted event name.
func Known(name string) bool {
	_, ok := allowedEvents[name]
	return ok
}

// NewEvent validates the payload and stamps it with a ULID and the time.
func NewEvent(name, path string, props map[string]string, now time.Time) (Event, error) {
	name = strings.TrimSpace(name)
	if !Known(name) {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if len(path) > maxPathLength {
		return Event{}, fmt.Errorf("%w: path too long", ErrInvalidEvent)
	}
	if len(props) > maxProps {
		return Event{}, fmt.Errorf("%w: too many props", ErrInvalidEvent)
	}
	var cleaned map[string]string
	for k, v := range props {
		k = strings.TrimSpace(k)
		if k == "" || len(k) > maxPropKey || len(v) > maxPropValue {
			return Event{}, fmt.Errorf("%w: prop %q", ErrInvalidEvent, k)
		}
		if cleaned == nil {
			cleaned = make(map[string]string, len(props))
		}
		cleaned[k] = v
	}
	now = now.UTC()
	return Event{
		ID:    newID(now),
		Name:  name,
		Path:  strings.TrimSpace(path),
		Props: cleaned,
		Time:  now,
	}, nil
}

var (
	entropyMu sync.Mutex
	entropy   io.Reader = ulid.Monotonic(rand.Reader, 0)
)

func newID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
