package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgxmock pools.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const clientColumns = `id, name, email, phone, preferred_languages, status, requirements, notes,
	conversations, last_contact, follow_up_date, assigned_to, created_at, updated_at, revision`

// PostgresRepository stores clients in a single row each, with the history
// logs kept as JSONB arrays.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("clients: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Client) error {
	docs, err := marshalDocs(c)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)`,
		c.ID, c.Name, c.Email, c.Phone, docs.languages, string(c.Status), docs.requirements,
		docs.notes, docs.conversations, c.LastContact, c.FollowUpDate, c.AssignedTo, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("clients: insert failed: %w", err)
	}
	c.Revision = 1
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE ($1 = '' OR assigned_to = $1)
		ORDER BY last_contact DESC, id`, filter.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("clients: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Save(ctx context.Context, c *Client, expectedRevision int64) error {
	docs, err := marshalDocs(c)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE clients SET
			name = $2, email = $3, phone = $4, preferred_languages = $5, status = $6,
			requirements = $7, notes = $8, conversations = $9, last_contact = $10,
			follow_up_date = $11, assigned_to = $12, updated_at = $13, revision = revision + 1
		WHERE id = $1 AND revision = $14`,
		c.ID, c.Name, c.Email, c.Phone, docs.languages, string(c.Status), docs.requirements,
		docs.notes, docs.conversations, c.LastContact, c.FollowUpDate, c.AssignedTo, c.UpdatedAt,
		expectedRevision)
	if err != nil {
		return fmt.Errorf("clients: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("clients: existence check failed: %w", err)
		}
		if !exists {
			return ErrClientNotFound
		}
		return ErrRevisionConflict
	}
	c.Revision = expectedRevision + 1
	return nil
}

func (r *PostgresRepository) AppendNote(ctx context.Context, id, assignedTo string, note Note, at time.Time) (*Client, error) {
	entry, err := json.Marshal([]Note{note})
	if err != nil {
		return nil, fmt.Errorf("clients: marshal note: %w", err)
	}
	row := r.db.QueryRow(ctx, `
		UPDATE clients SET
			notes = notes || $2::jsonb, last_contact = $3, updated_at = $3, revision = revision + 1
		WHERE id = $1 AND ($4 = '' OR assigned_to = $4)
		RETURNING `+clientColumns, id, entry, at, assignedTo)
	return r.appended(ctx, id, assignedTo, row)
}

func (r *PostgresRepository) AppendConversation(ctx context.Context, id, assignedTo string, conv Conversation, at time.Time) (*Client, error) {
	entry, err := json.Marshal([]Conversation{conv})
	if err != nil {
		return nil, fmt.Errorf("clients: marshal conversation: %w", err)
	}
	row := r.db.QueryRow(ctx, `
		UPDATE clients SET
			conversations = conversations || $2::jsonb, last_contact = $3, updated_at = $4, revision = revision + 1
		WHERE id = $1 AND ($5 = '' OR assigned_to = $5)
		RETURNING `+clientColumns, id, entry, conv.Date, at, assignedTo)
	return r.appended(ctx, id, assignedTo, row)
}

// appended scans an append's RETURNING row. When a conditional append matched
// nothing, the client either vanished or was reassigned.
func (r *PostgresRepository) appended(ctx context.Context, id, assignedTo string, row pgx.Row) (*Client, error) {
	c, err := scanClient(row)
	if !errors.Is(err, ErrClientNotFound) || assignedTo == "" {
		return c, err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("clients: existence check failed: %w", err)
	}
	if exists {
		return nil, ErrNotAuthorized
	}
	return nil, ErrClientNotFound
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clients: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

type clientDocs struct {
	languages     []byte
	requirements  []byte
	notes         []byte
	conversations []byte
}

func marshalDocs(c *Client) (clientDocs, error) {
	normalized := c.Clone()
	normalized.normalize()
	var docs clientDocs
	var err error
	if docs.languages, err = json.Marshal(normalized.PreferredLanguages); err != nil {
		return docs, fmt.Errorf("clients: marshal languages: %w", err)
	}
	if docs.requirements, err = json.Marshal(normalized.Requirements); err != nil {
		return docs, fmt.Errorf("clients: marshal requirements: %w", err)
	}
	if docs.notes, err = json.Marshal(normalized.Notes); err != nil {
		return docs, fmt.Errorf("clients: marshal notes: %w", err)
	}
	if docs.conversations, err = json.Marshal(normalized.Conversations); err != nil {
		return docs, fmt.Errorf("clients: marshal conversations: %w", err)
	}
	return docs, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var (
		c      Client
		status string
		docs   clientDocs
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &docs.languages, &status, &docs.requirements,
		&docs.notes, &docs.conversations, &c.LastContact, &c.FollowUpDate, &c.AssignedTo,
		&c.CreatedAt, &c.UpdatedAt, &c.Revision,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clients: scan failed: %w", err)
	}
	c.Status = Status(status)
	for _, doc := range []struct {
		raw  []byte
		into any
	}{
		{docs.languages, &c.PreferredLanguages},
		{docs.requirements, &c.Requirements},
		{docs.notes, &c.Notes},
		{docs.conversations, &c.Conversations},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.into); err != nil {
			return nil, fmt.Errorf("clients: decode column: %w", err)
		}
	}
	c.normalize()
	return &c, nil
}
