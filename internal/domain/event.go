package domain

import (
	"context"
	"time"
)

// Event represents a published event. CreatorID is set once at creation from
// the authenticated identity and is immutable; Slug is derived from Title and
// unique across all events.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Overview    string    `json:"overview"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Mode        string    `json:"mode"`
	Audience    string    `json:"audience"`
	Organizer   string    `json:"organizer"`
	StartAt     time.Time `json:"start_at"`
	Agenda      []string  `json:"agenda"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventInput carries the caller-supplied fields for creating an event.
// Creator, slug, image URL, and timestamps are always server-derived.
type EventInput struct {
	Title       string
	Description string
	Overview    string
	Venue       string
	Location    string
	Mode        string
	Audience    string
	Organizer   string
	StartAt     time.Time
	Agenda      []string
	Tags        []string
}

// EventUpdate carries the fields of a partial update. Nil pointers and nil
// slices mean "unchanged". Slug and ImageURL are set by the service only,
// never from caller input.
type EventUpdate struct {
	Title       *string
	Description *string
	Overview    *string
	Venue       *string
	Location    *string
	Mode        *string
	Audience    *string
	Organizer   *string
	StartAt     *time.Time
	Agenda      []string
	Tags        []string
	Slug        *string
	ImageURL    *string
}

// EventRepository defines the interface for event storage. UpdateOwned and
// DeleteOwned combine the ownership filter with the write in a single
// statement and return ErrNotFound when the filter matches no row.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateOwned(ctx context.Context, id, creatorID string, upd EventUpdate) (*Event, error)
	DeleteOwned(ctx context.Context, id, creatorID string) error
	ListByCreator(ctx context.Context, creatorID string, params PaginationParams) ([]*Event, int, error)
	ListByAnyTag(ctx context.Context, tags []string, excludeID string, limit int) ([]*Event, error)
}

// EventService defines the business logic for event CRUD and reads.
type EventService interface {
	CreateEvent(ctx context.Context, input EventInput, image *ImageUpload, identity *Identity) (*Event, error)
	UpdateEvent(ctx context.Context, eventID string, upd EventUpdate, image *ImageUpload, identity *Identity) (*Event, error)
	DeleteEvent(ctx context.Context, eventID string, identity *Identity) error
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	ListMyEvents(ctx context.Context, identity *Identity, params PaginationParams) ([]*Event, int, error)
	SimilarEvents(ctx context.Context, slug string) ([]*Event, error)
}
