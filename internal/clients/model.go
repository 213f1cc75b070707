package clients

import (
	"slices"
	"time"
)

// Status tracks where a client is in the sales funnel. Any status may move to any other.
type Status string

const (
	StatusNewInquiry       Status = "new_inquiry"
	StatusInterested       Status = "interested"
	StatusHighlyInterested Status = "highly_interested"
	StatusViewingScheduled Status = "viewing_scheduled"
	StatusOfferMade        Status = "offer_made"
	StatusClosed           Status = "closed"
)

type RequirementType string

const (
	RequirementPropertyType RequirementType = "property_type"
	RequirementLocation     RequirementType = "location"
	RequirementFeature      RequirementType = "feature"
	RequirementBudget       RequirementType = "budget"
	RequirementBedrooms     RequirementType = "bedrooms"
	RequirementCustom       RequirementType = "custom"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type ConversationType string

const (
	ConversationCall    ConversationType = "call"
	ConversationMeeting ConversationType = "meeting"
	ConversationEmail   ConversationType = "email"
	ConversationMessage ConversationType = "message"
	ConversationOther   ConversationType = "other"
)

// Requirement is one thing the client is looking for.
type Requirement struct {
	Type     RequirementType `json:"type" validate:"required,oneof=property_type location feature budget bedrooms custom"`
	Value    string          `json:"value" validate:"required"`
	Priority Priority        `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// Note is an entry in the append-only note log.
type Note struct {
	ID             string    `json:"_id"`
	Text           string    `json:"text"`
	TranslatedText string    `json:"translatedText,omitempty"`
	Keywords       []string  `json:"keywords"`
	Date           time.Time `json:"date"`
	CreatedBy      string    `json:"createdBy"`
}

// Conversation is an entry in the append-only interaction log.
type Conversation struct {
	ID        string           `json:"_id"`
	Type      ConversationType `json:"type"`
	Summary   string           `json:"summary"`
	Date      time.Time        `json:"date"`
	CreatedBy string           `json:"createdBy"`
}

// Client is a real-estate lead owned by one agent.
type Client struct {
	ID                 string         `json:"_id"`
	Name               string         `json:"name"`
	Email              string         `json:"email,omitempty"`
	Phone              string         `json:"phone"`
	PreferredLanguages []string       `json:"preferredLanguages"`
	Status             Status         `json:"status"`
	Requirements       []Requirement  `json:"requirements"`
	Notes              []Note         `json:"notes"`
	Conversations      []Conversation `json:"conversations"`
	LastContact        time.Time      `json:"lastContact"`
	FollowUpDate       *time.Time     `json:"followUpDate,omitempty"`
	AssignedTo         string         `json:"assignedTo"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	Revision           int64          `json:"revision"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	out.PreferredLanguages = slices.Clone(c.PreferredLanguages)
	out.Requirements = slices.Clone(c.Requirements)
	out.Notes = make([]Note, len(c.Notes))
	for i, n := range c.Notes {
		n.Keywords = slices.Clone(n.Keywords)
		out.Notes[i] = n
	}
	out.Conversations = slices.Clone(c.Conversations)
	if c.FollowUpDate != nil {
		f := *c.FollowUpDate
		out.FollowUpDate = &f
	}
	return &out
}

func (c *Client) hasNote(id string) bool {
	if id == "" {
		return false
	}
	for _, n := range c.Notes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// normalize replaces nil collections with empty ones so JSON renders [].
func (c *Client) normalize() {
	if c.PreferredLanguages == nil {
		c.PreferredLanguages = []string{}
	}
	if c.Requirements == nil {
		c.Requirements = []Requirement{}
	}
	if c.Notes == nil {
		c.Notes = []Note{}
	}
	for i := range c.Notes {
		if c.Notes[i].Keywords == nil {
			c.Notes[i].Keywords = []string{}
		}
	}
	if c.Conversations == nil {
		c.Conversations = []Conversation{}
	}
}
