package stub

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/totegamma/concrnt-loadtest"
	"github.com/totegamma/concrnt-loadtest/internal/domain"
)

const defaultRecentLimit = 16

// Message is a stored message resource.
type Message struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Document string    `json:"document"`
	CDate    time.Time `json:"cdate"`
}

// Timeline is a registered timeline and the policy guarding it.
type Timeline struct {
	ID     string
	Owner  string
	Policy string
	Params map[string]any
}

// Store is an in-memory stand-in for the target's timelines and messages.
type Store struct {
	mu        sync.RWMutex
	items     []concrnt.TimelineItem // oldest first
	messages  map[string]Message
	timelines map[string]Timeline
}

func NewStore() *Store {
	return &Store{
		messages:  make(map[string]Message),
		timelines: make(map[string]Timeline),
	}
}

// PutTimeline registers or replaces a timeline.
func (s *Store) PutTimeline(tl Timeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timelines[tl.ID] = tl
}

func (s *Store) GetTimeline(id string) (Timeline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tl, ok := s.timelines[id]
	return tl, ok
}

// PutMessage stores a message and distributes it to each timeline.
func (s *Store) PutMessage(author, document string, timelines []string) ([]concrnt.TimelineItem, Message) {
	now := time.Now().UTC()
	msg := Message{
		ID:       "m" + uuid.NewString(),
		Author:   author,
		Document: document,
		CDate:    now,
	}

	items := make([]concrnt.TimelineItem, 0, len(timelines))
	for _, tl := range timelines {
		items = append(items, concrnt.TimelineItem{
			ResourceID: msg.ID,
			TimelineID: tl,
			Owner:      author,
			CDate:      now.Format(time.RFC3339Nano),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = msg
	s.items = append(s.items, items...)
	return items, msg
}

func (s *Store) GetMessage(id string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return Message{}, domain.NotFoundError{Resource: "message " + id}
	}
	return msg, nil
}

// Recent returns up to limit items across timelines, most recent first.
func (s *Store) Recent(timelines []string, limit int) []concrnt.TimelineItem {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	want := make(map[string]struct{}, len(timelines))
	for _, tl := range timelines {
		want[tl] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]concrnt.TimelineItem, 0, limit)
	for i := len(s.items) - 1; i >= 0 && len(result) < limit; i-- {
		if _, ok := want[s.items[i].TimelineID]; ok {
			result = append(result, s.items[i])
		}
	}
	return result
}
