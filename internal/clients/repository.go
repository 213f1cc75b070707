package clients

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ListFilter narrows List. An empty AssignedTo returns every client.
type ListFilter struct {
	AssignedTo string
}

// Repository defines the interface for client storage. Save is a
// compare-and-swap on Revision; the append methods add to the history logs
// atomically without rewriting the rest of the record. A non-empty assignedTo
// makes the append conditional on the client still being assigned to that
// actor; a mismatch returns ErrNotAuthorized.
type Repository interface {
	Create(ctx context.Context, client *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, filter ListFilter) ([]*Client, error)
	Save(ctx context.Context, client *Client, expectedRevision int64) error
	AppendNote(ctx context.Context, id, assignedTo string, note Note, at time.Time) (*Client, error)
	AppendConversation(ctx context.Context, id, assignedTo string, conv Conversation, at time.Time) (*Client, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps clients in a map guarded by a RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		clients: make(map[string]*Client),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, client *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := client.Clone()
	stored.Revision = 1
	client.Revision = 1
	r.clients[client.ID] = stored
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return client.Clone(), nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Client, error) {
	r.mu.RLock()
	out := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		if filter.AssignedTo != "" && client.AssignedTo != filter.AssignedTo {
			continue
		}
		out = append(out, client.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastContact.Equal(out[j].LastContact) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastContact.After(out[j].LastContact)
	})
	return out, nil
}

func (r *InMemoryRepository) Save(ctx context.Context, client *Client, expectedRevision int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.clients[client.ID]
	if !ok {
		return ErrClientNotFound
	}
	if current.Revision != expectedRevision {
		return ErrRevisionConflict
	}
	client.Revision = expectedRevision + 1
	r.clients[client.ID] = client.Clone()
	return nil
}

func (r *InMemoryRepository) AppendNote(ctx context.Context, id, assignedTo string, note Note, at time.Time) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, err := r.appendTarget(id, assignedTo)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.Notes = append(next.Notes, note)
	next.LastContact = at
	next.UpdatedAt = at
	next.Revision++
	r.clients[id] = next
	return next.Clone(), nil
}

func (r *InMemoryRepository) AppendConversation(ctx context.Context, id, assignedTo string, conv Conversation, at time.Time) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, err := r.appendTarget(id, assignedTo)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.Conversations = append(next.Conversations, conv)
	next.LastContact = conv.Date
	next.UpdatedAt = at
	next.Revision++
	r.clients[id] = next
	return next.Clone(), nil
}

// appendTarget must be called with r.mu held.
func (r *InMemoryRepository) appendTarget(id, assignedTo string) (*Client, error) {
	current, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	if assignedTo != "" && current.AssignedTo != assignedTo {
		return nil, ErrNotAuthorized
	}
	return current, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return ErrClientNotFound
	}
	delete(r.clients, id)
	return nil
}
