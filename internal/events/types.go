package events

import "time"

// Client activity event types.
const (
	ClientCreated           = "client.created"
	ClientUpdated           = "client.updated"
	ClientNoteAdded         = "client.note_added"
	ClientConversationAdded = "client.conversation_added"
	ClientDeleted           = "client.deleted"
)

// ClientActivityV1 is emitted after every successful client mutation.
type ClientActivityV1 struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	ClientID   string    `json:"client_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
