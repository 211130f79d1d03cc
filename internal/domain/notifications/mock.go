package notifications

import (
	"context"
	"sort"
	"sync"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
)

// MemoryStore implements NotificationRepository and MessageRepository in memory.
type MemoryStore struct {
	mu       sync.Mutex
	notes    []Notification
	messages map[id.ID]Message
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[id.ID]Message)}
}

// Notes adapts the store to NotificationRepository.
func (s *MemoryStore) Notes() NotificationRepository { return memNotes{s} }

// Messages adapts the store to MessageRepository.
func (s *MemoryStore) Messages() MessageRepository { return memMessages{s} }

type memNotes struct{ s *MemoryStore }

func (r memNotes) Create(_ context.Context, n *Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notes = append(r.s.notes, *n)
	return nil
}

func (r memNotes) ListForRecipient(_ context.Context, recipientID id.ID, unreadOnly bool, limit int) ([]Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []Notification
	for i := len(r.s.notes) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.s.notes[i]
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r memNotes) MarkRead(_ context.Context, recipientID id.ID, ids []id.ID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[id.ID]bool, len(ids))
	for _, v := range ids {
		want[v] = true
	}
	var n int64
	for i := range r.s.notes {
		note := &r.s.notes[i]
		if note.RecipientID != recipientID || note.IsRead {
			continue
		}
		if len(ids) > 0 && !want[note.ID] {
			continue
		}
		note.IsRead = true
		n++
	}
	return n, nil
}

func (r memNotes) CountUnread(_ context.Context, recipientID id.ID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, note := range r.s.notes {
		if note.RecipientID == recipientID && !note.IsRead {
			n++
		}
	}
	return n, nil
}

type memMessages struct{ s *MemoryStore }

func (r memMessages) Create(_ context.Context, m *Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages[m.ID] = *m
	return nil
}

func (r memMessages) GetByID(_ context.Context, messageID id.ID) (*Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[messageID]
	if !ok {
		return nil, apperror.NewNotFound(EntityMessage, messageID)
	}
	return &m, nil
}

func (r memMessages) Update(_ context.Context, m *Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.messages[m.ID]
	if !ok || cur.Version != m.Version {
		return apperror.NewConcurrentModification(EntityMessage, m.ID)
	}
	m.Version++
	r.s.messages[m.ID] = *m
	return nil
}

func (r memMessages) list(match func(Message) bool, f domain.ListFilter) domain.ListResult[Message] {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []Message
	for _, m := range r.s.messages {
		if match(m) {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	res := domain.ListResult[Message]{TotalCount: int64(len(all)), Limit: f.Limit, Offset: f.Offset}
	if f.Offset < len(all) {
		all = all[f.Offset:]
		if f.Limit > 0 && len(all) > f.Limit {
			all = all[:f.Limit]
		}
		res.Items = all
	}
	return res
}

func (r memMessages) Inbox(_ context.Context, userID id.ID, f domain.ListFilter) (domain.ListResult[Message], error) {
	return r.list(func(m Message) bool { return m.ToID == userID }, f), nil
}

func (r memMessages) Sent(_ context.Context, userID id.ID, f domain.ListFilter) (domain.ListResult[Message], error) {
	return r.list(func(m Message) bool { return m.FromID == userID }, f), nil
}

func (r memMessages) CountUnread(_ context.Context, userID id.ID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if m.ToID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}
