package clients

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// NoteInput is a note supplied on create or update. It accepts either a bare
// string or an object.
type NoteInput struct {
	ID             string     `json:"_id,omitempty"`
	Text           string     `json:"text" validate:"required"`
	TranslatedText string     `json:"translatedText,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
}

func (n *NoteInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*n = NoteInput{Text: text}
		return nil
	}
	type plain NoteInput
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*n = NoteInput(p)
	return nil
}

// CreateClientRequest is the body of POST /api/clients.
type CreateClientRequest struct {
	Name               string        `json:"name" validate:"required"`
	Email              string        `json:"email" validate:"omitempty,email"`
	Phone              string        `json:"phone" validate:"required"`
	PreferredLanguages []string      `json:"preferredLanguages"`
	Status             Status        `json:"status" validate:"omitempty,oneof=new_inquiry interested highly_interested viewing_scheduled offer_made closed"`
	Requirements       []Requirement `json:"requirements" validate:"dive"`
	FollowUpDate       *time.Time    `json:"followUpDate"`
	Notes              []NoteInput   `json:"notes" validate:"dive"`
}

// UpdateClientRequest is a merge-patch: nil fields are left untouched.
type UpdateClientRequest struct {
	Name               *string        `json:"name"`
	Email              *string        `json:"email"`
	Phone              *string        `json:"phone"`
	PreferredLanguages *[]string      `json:"preferredLanguages"`
	Status             *Status        `json:"status"`
	Requirements       *[]Requirement `json:"requirements"`
	FollowUpDate       *time.Time     `json:"followUpDate"`
	AssignedTo         *string        `json:"assignedTo"`
	Notes              []NoteInput    `json:"notes"`
	UpdateLastContact  bool           `json:"updateLastContact"`
}

// AddNoteRequest is the body of POST /api/clients/{id}/notes.
type AddNoteRequest struct {
	Text           string   `json:"text" validate:"required"`
	TranslatedText string   `json:"translatedText"`
	Keywords       []string `json:"keywords"`
}

// AddConversationRequest is the body of POST /api/clients/{id}/conversations.
type AddConversationRequest struct {
	Type    ConversationType `json:"type" validate:"required"`
	Summary string           `json:"summary" validate:"required"`
	Date    *time.Time       `json:"date"`
}

var validate = validator.New()

var fieldMessages = map[string]string{
	"Name":     "Name is required",
	"Phone":    "Phone is required",
	"Email":    "Please include a valid email",
	"Status":   "Invalid status",
	"Type":     "Invalid requirement type",
	"Value":    "Requirement value is required",
	"Priority": "Invalid requirement priority",
	"Text":     "Note text is required",
}

func validateStruct(s any, messages map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return invalid("", err.Error())
	}
	fe := ve[0]
	if msg, ok := messages[fe.Field()]; ok {
		return invalid(fe.Field(), msg)
	}
	return invalid(fe.Field(), strings.ToLower(fe.Field())+" is invalid")
}

func (r *CreateClientRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	for i := range r.Notes {
		r.Notes[i].Text = strings.TrimSpace(r.Notes[i].Text)
	}
}

func (r *CreateClientRequest) Validate() error {
	r.normalize()
	return validateStruct(r, fieldMessages)
}

func (r *UpdateClientRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("Name", "Name is required")
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) == "" {
		return invalid("Phone", "Phone is required")
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) != "" {
		if err := validate.Var(strings.TrimSpace(*r.Email), "email"); err != nil {
			return invalid("Email", "Please include a valid email")
		}
	}
	if r.Status != nil {
		if err := validate.Var(string(*r.Status), "required,oneof=new_inquiry interested highly_interested viewing_scheduled offer_made closed"); err != nil {
			return invalid("Status", "Invalid status")
		}
	}
	if r.AssignedTo != nil && strings.TrimSpace(*r.AssignedTo) == "" {
		return invalid("AssignedTo", "assignedTo cannot be empty")
	}
	if r.Requirements != nil {
		for i := range *r.Requirements {
			if err := validateStruct(&(*r.Requirements)[i], fieldMessages); err != nil {
				return err
			}
		}
	}
	for i := range r.Notes {
		r.Notes[i].Text = strings.TrimSpace(r.Notes[i].Text)
		if err := validateStruct(&r.Notes[i], fieldMessages); err != nil {
			return err
		}
	}
	return nil
}

func (r *AddNoteRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	return validateStruct(r, map[string]string{"Text": "Note text is required"})
}

func (r *AddConversationRequest) Validate() error {
	r.Summary = strings.TrimSpace(r.Summary)
	if err := validateStruct(r, map[string]string{
		"Type":    "Type and summary are required",
		"Summary": "Type and summary are required",
	}); err != nil {
		return err
	}
	if err := validate.Var(string(r.Type), "oneof=call meeting email message other"); err != nil {
		return invalid("Type", "Invalid conversation type")
	}
	return nil
}

// cleanKeywords trims, drops blanks and removes duplicates while keeping order.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
