package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eventhub/internal/domain"
)

const eventColumns = `id, slug, creator_id, title, description, overview, venue, location, mode, audience, organizer, start_at, agenda, tags, image_url, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.Slug, &e.CreatorID, &e.Title, &e.Description, &e.Overview,
		&e.Venue, &e.Location, &e.Mode, &e.Audience, &e.Organizer, &e.StartAt,
		pq.Array(&e.Agenda), pq.Array(&e.Tags), &e.ImageURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (slug, creator_id, title, description, overview, venue, location, mode, audience, organizer, start_at, agenda, tags, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Slug, e.CreatorID, e.Title, e.Description, e.Overview, e.Venue,
		e.Location, e.Mode, e.Audience, e.Organizer, e.StartAt,
		pq.Array(e.Agenda), pq.Array(e.Tags), e.ImageURL, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE slug = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateOwned applies the update in a single statement filtered by id and
// creator_id, so a concurrent delete or a non-owner caller can never see a
// partial write. ErrNotFound means the filter matched no row; the caller
// decides whether that is not-found or forbidden.
func (r *eventRepository) UpdateOwned(ctx context.Context, id, creatorID string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	set := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Overview != nil {
		set("overview", *upd.Overview)
	}
	if upd.Venue != nil {
		set("venue", *upd.Venue)
	}
	if upd.Location != nil {
		set("location", *upd.Location)
	}
	if upd.Mode != nil {
		set("mode", *upd.Mode)
	}
	if upd.Audience != nil {
		set("audience", *upd.Audience)
	}
	if upd.Organizer != nil {
		set("organizer", *upd.Organizer)
	}
	if upd.StartAt != nil {
		set("start_at", *upd.StartAt)
	}
	if upd.Agenda != nil {
		set("agenda", pq.Array(upd.Agenda))
	}
	if upd.Tags != nil {
		set("tags", pq.Array(upd.Tags))
	}
	if upd.Slug != nil {
		set("slug", *upd.Slug)
	}
	if upd.ImageURL != nil {
		set("image_url", *upd.ImageURL)
	}
	args = append(args, id, creatorID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d AND creator_id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, n+1, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// DeleteOwned deletes the event only when the ownership filter matches.
func (r *eventRepository) DeleteOwned(ctx context.Context, id, creatorID string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND creator_id = $2`, id, creatorID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByCreator(ctx context.Context, creatorID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE creator_id = $1`, creatorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, creatorID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByAnyTag returns events sharing at least one tag, excluding the given
// event, newest first.
func (r *eventRepository) ListByAnyTag(ctx context.Context, tags []string, excludeID string, limit int) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE tags && $1 AND id <> $2
		ORDER BY created_at DESC
		LIMIT $3
	`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(tags), excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
