package clients

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/realty-crm/internal/auth"
	"github.com/wolfman30/realty-crm/internal/events"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

const maxUpdateAttempts = 3

// Service enforces per-actor access and the append-only history rules on top
// of a Repository.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns every client for admins and only assigned clients otherwise,
// most recently contacted first.
func (s *Service) List(ctx context.Context, actor auth.Actor) ([]*Client, error) {
	filter := ListFilter{}
	if !actor.IsAdmin() {
		filter.AssignedTo = actor.ID
	}
	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("clients: list: %w", err)
	}
	for _, c := range out {
		c.normalize()
	}
	return out, nil
}

// Create stores a new client assigned to the actor.
func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateClientRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	client := &Client{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		PreferredLanguages: req.PreferredLanguages,
		Status:             req.Status,
		Requirements:       withDefaultPriority(req.Requirements),
		FollowUpDate:       req.FollowUpDate,
		AssignedTo:         actor.ID,
		LastContact:        now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if len(client.PreferredLanguages) == 0 {
		client.PreferredLanguages = []string{"en"}
	}
	if client.Status == "" {
		client.Status = StatusNewInquiry
	}
	for _, in := range req.Notes {
		client.Notes = append(client.Notes, s.noteFromInput(actor, in, now))
	}
	client.normalize()

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("clients: create: %w", err)
	}
	s.publish(ctx, events.ClientCreated, client.ID, actor)
	return client, nil
}

// Get returns one client if the actor may see it.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*Client, error) {
	client, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	client.normalize()
	return client, nil
}

// Update applies a merge-patch, retrying when a concurrent write bumps the revision.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id string, req UpdateClientRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.load(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		if req.AssignedTo != nil && *req.AssignedTo != current.AssignedTo && !actor.IsAdmin() {
			return nil, ErrNotAuthorized
		}

		next := current.Clone()
		s.applyPatch(next, actor, req)
		err = s.repo.Save(ctx, next, current.Revision)
		if errors.Is(err, ErrRevisionConflict) {
			s.logger.Warn("client update conflict, retrying", "client_id", id, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("clients: save: %w", err)
		}
		s.publish(ctx, events.ClientUpdated, id, actor)
		next.normalize()
		return next, nil
	}
	return nil, ErrRevisionConflict
}

// AddNote appends a note and refreshes lastContact and updatedAt.
func (s *Service) AddNote(ctx context.Context, actor auth.Actor, id string, req AddNoteRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	now := s.now()
	note := Note{
		ID:             uuid.NewString(),
		Text:           req.Text,
		TranslatedText: strings.TrimSpace(req.TranslatedText),
		Keywords:       cleanKeywords(req.Keywords),
		Date:           now,
		CreatedBy:      actor.ID,
	}
	client, err := s.repo.AppendNote(ctx, id, appendGuard(actor), note, now)
	if err != nil {
		return nil, s.storeError("append note", err)
	}
	s.publish(ctx, events.ClientNoteAdded, id, actor)
	client.normalize()
	return client, nil
}

// AddConversation appends a conversation; lastContact becomes the conversation date.
func (s *Service) AddConversation(ctx context.Context, actor auth.Actor, id string, req AddConversationRequest) (*Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	now := s.now()
	date := now
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}
	conv := Conversation{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Summary:   req.Summary,
		Date:      date,
		CreatedBy: actor.ID,
	}
	client, err := s.repo.AppendConversation(ctx, id, appendGuard(actor), conv, now)
	if err != nil {
		return nil, s.storeError("append conversation", err)
	}
	s.publish(ctx, events.ClientConversationAdded, id, actor)
	client.normalize()
	return client, nil
}

// Delete removes the client and its history. Admin only.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError("delete", err)
	}
	s.publish(ctx, events.ClientDeleted, id, actor)
	return nil
}

// load fetches the client and checks the actor may access it. Non-admins get
// ErrNotAuthorized for missing clients too, so existence is not revealed; the
// returned error still matches ErrClientNotFound.
func (s *Service) load(ctx context.Context, actor auth.Actor, id string) (*Client, error) {
	client, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrClientNotFound) {
		if actor.IsAdmin() {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrNotAuthorized, ErrClientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("clients: get: %w", err)
	}
	if !actor.IsAdmin() && client.AssignedTo != actor.ID {
		return nil, ErrNotAuthorized
	}
	return client, nil
}

func (s *Service) applyPatch(c *Client, actor auth.Actor, req UpdateClientRequest) {
	now := s.now()
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		c.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		c.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.PreferredLanguages != nil {
		c.PreferredLanguages = slices.Clone(*req.PreferredLanguages)
		if len(c.PreferredLanguages) == 0 {
			c.PreferredLanguages = []string{"en"}
		}
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.Requirements != nil {
		c.Requirements = withDefaultPriority(*req.Requirements)
	}
	if req.FollowUpDate != nil {
		f := req.FollowUpDate.UTC()
		c.FollowUpDate = &f
	}
	if req.AssignedTo != nil {
		c.AssignedTo = *req.AssignedTo
	}
	for _, in := range req.Notes {
		if c.hasNote(in.ID) {
			continue
		}
		c.Notes = append(c.Notes, s.noteFromInput(actor, in, now))
	}
	if req.UpdateLastContact {
		c.LastContact = now
	}
	c.UpdatedAt = now
}

func (s *Service) noteFromInput(actor auth.Actor, in NoteInput, now time.Time) Note {
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}
	return Note{
		ID:             uuid.NewString(),
		Text:           strings.TrimSpace(in.Text),
		TranslatedText: strings.TrimSpace(in.TranslatedText),
		Keywords:       cleanKeywords(in.Keywords),
		Date:           date,
		CreatedBy:      actor.ID,
	}
}

func (s *Service) storeError(op string, err error) error {
	if errors.Is(err, ErrClientNotFound) {
		return ErrClientNotFound
	}
	if errors.Is(err, ErrNotAuthorized) {
		return ErrNotAuthorized
	}
	return fmt.Errorf("clients: %s: %w", op, err)
}

// appendGuard is the assignee an append must still match; admins are unrestricted.
func appendGuard(actor auth.Actor) string {
	if actor.IsAdmin() {
		return ""
	}
	return actor.ID
}

// publish never fails the request; delivery errors are only logged.
func (s *Service) publish(ctx context.Context, eventType, clientID string, actor auth.Actor) {
	evt := events.ClientActivityV1{
		EventID:    uuid.NewString(),
		Type:       eventType,
		ClientID:   clientID,
		ActorID:    actor.ID,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish client activity", "type", eventType, "client_id", clientID, "error", err)
	}
}

func withDefaultPriority(in []Requirement) []Requirement {
	out := slices.Clone(in)
	for i := range out {
		if out[i].Priority == "" {
			out[i].Priority = PriorityMedium
		}
	}
	return out
}
