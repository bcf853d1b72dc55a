package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

type mockEventRepository struct {
	events     map[string]*domain.Event
	createErr  error
	getErr     error
	listErr    error
	nextID     string
	lastCreate *domain.Event
}

func newMockEventRepository(events ...*domain.Event) *mockEventRepository {
	m := &mockEventRepository{events: map[string]*domain.Event{}, nextID: "ev-new"}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if m.createErr != nil {
		return m.createErr
	}
	event.ID = m.nextID
	copied := *event
	m.events[event.ID] = &copied
	m.lastCreate = &copied
	return nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockEventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, e := range m.events {
		if e.Slug == slug {
			copied := *e
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockEventRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.events[id]
	return ok, nil
}

func (m *mockEventRepository) UpdateOwned(ctx context.Context, id, creatorID string, upd domain.EventUpdate) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok || e.CreatorID != creatorID {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.StartAt != nil {
		e.StartAt = *upd.StartAt
	}
	if upd.Agenda != nil {
		e.Agenda = upd.Agenda
	}
	if upd.Tags != nil {
		e.Tags = upd.Tags
	}
	if upd.Slug != nil {
		e.Slug = *upd.Slug
	}
	if upd.ImageURL != nil {
		e.ImageURL = *upd.ImageURL
	}
	e.UpdatedAt = time.Now()
	copied := *e
	return &copied, nil
}

func (m *mockEventRepository) DeleteOwned(ctx context.Context, id, creatorID string) error {
	e, ok := m.events[id]
	if !ok || e.CreatorID != creatorID {
		return domain.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *mockEventRepository) ListByCreator(ctx context.Context, creatorID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []*domain.Event
	for _, e := range m.events {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *mockEventRepository) ListByAnyTag(ctx context.Context, tags []string, excludeID string, limit int) ([]*domain.Event, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	tagSet := map[string]struct{}{}
	for _, tag := range tags {
		tagSet[tag] = struct{}{}
	}
	var out []*domain.Event
	for _, e := range m.events {
		if e.ID == excludeID {
			continue
		}
		for _, tag := range e.Tags {
			if _, ok := tagSet[tag]; ok {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

type mockImageStore struct {
	uploadURL string
	uploadErr error
	deleteErr error
	uploads   int
	deleted   []string
}

func (m *mockImageStore) Upload(ctx context.Context, image *domain.ImageUpload) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploads++
	if m.uploadURL != "" {
		return m.uploadURL, nil
	}
	return "https://images.test/uploaded", nil
}

func (m *mockImageStore) Delete(ctx context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	return m.deleteErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() domain.EventInput {
	return domain.EventInput{
		Title:       "Launch",
		Description: "A product launch",
		Overview:    "Come see the launch",
		Venue:       "Main Hall",
		Location:    "Berlin",
		Mode:        "offline",
		Audience:    "developers",
		Organizer:   "Acme",
		StartAt:     time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Agenda:      []string{"doors open", "keynote"},
		Tags:        []string{"ai"},
	}
}

func testImage() *domain.ImageUpload {
	return &domain.ImageUpload{Data: []byte("png-bytes"), ContentType: "image/png"}
}

var (
	userA = &domain.Identity{ID: "user-a", Email: "a@example.com", Name: "A"}
	userB = &domain.Identity{ID: "user-b", Email: "b@example.com", Name: "B"}
)

func TestEventService_CreateEvent(t *testing.T) {
	t.Run("creator is taken from identity", func(t *testing.T) {
		repo := newMockEventRepository()
		images := &mockImageStore{uploadURL: "https://images.test/launch.png"}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		event, err := svc.CreateEvent(context.Background(), validInput(), testImage(), userA)
		require.NoError(t, err)
		assert.Equal(t, "user-a", event.CreatorID)
		assert.Equal(t, "https://images.test/launch.png", event.ImageURL)
		assert.True(t, strings.HasPrefix(event.Slug, "launch-"))
		require.NotNil(t, repo.lastCreate)
		assert.Equal(t, "user-a", repo.lastCreate.CreatorID)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		repo := newMockEventRepository()
		images := &mockImageStore{}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		_, err := svc.CreateEvent(context.Background(), validInput(), testImage(), nil)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Zero(t, images.uploads)
		assert.Nil(t, repo.lastCreate)
	})

	t.Run("validation failures", func(t *testing.T) {
		mutations := map[string]func(*domain.EventInput){
			"empty title":      func(in *domain.EventInput) { in.Title = "  " },
			"empty venue":      func(in *domain.EventInput) { in.Venue = "" },
			"zero start":       func(in *domain.EventInput) { in.StartAt = time.Time{} },
			"no agenda":        func(in *domain.EventInput) { in.Agenda = nil },
			"blank agenda":     func(in *domain.EventInput) { in.Agenda = []string{"  "} },
			"no tags":          func(in *domain.EventInput) { in.Tags = []string{} },
		}
		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				repo := newMockEventRepository()
				images := &mockImageStore{}
				svc := NewEventService(repo, images, testLogger(), time.Second)

				input := validInput()
				mutate(&input)
				_, err := svc.CreateEvent(context.Background(), input, testImage(), userA)
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.Zero(t, images.uploads)
			})
		}
	})

	t.Run("missing image", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(), &mockImageStore{}, testLogger(), time.Second)
		_, err := svc.CreateEvent(context.Background(), validInput(), nil, userA)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("upload failure persists nothing", func(t *testing.T) {
		repo := newMockEventRepository()
		images := &mockImageStore{uploadErr: errors.New("s3 down")}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		_, err := svc.CreateEvent(context.Background(), validInput(), testImage(), userA)
		require.Error(t, err)
		assert.Nil(t, repo.lastCreate)
		assert.Empty(t, repo.events)
	})

	t.Run("persist failure reclaims uploaded image", func(t *testing.T) {
		repo := newMockEventRepository()
		repo.createErr = errors.New("db down")
		images := &mockImageStore{uploadURL: "https://images.test/orphan.png"}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		_, err := svc.CreateEvent(context.Background(), validInput(), testImage(), userA)
		require.Error(t, err)
		assert.Equal(t, []string{"https://images.test/orphan.png"}, images.deleted)
	})
}

func ownedEvent() *domain.Event {
	return &domain.Event{
		ID: "ev-1", Slug: "launch-abc123", CreatorID: "user-a", Title: "Launch",
		Description: "desc", Overview: "ov", Venue: "hall", Location: "Berlin",
		Mode: "offline", Audience: "devs", Organizer: "Acme",
		StartAt: time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Agenda:  []string{"keynote"}, Tags: []string{"ai"},
		ImageURL: "https://images.test/old.png",
	}
}

func TestEventService_UpdateEvent(t *testing.T) {
	title := "Launch v2"

	t.Run("other user is forbidden and record untouched", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		_, err := svc.UpdateEvent(context.Background(), "ev-1", domain.EventUpdate{Title: &title}, nil, userB)
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, "Launch", repo.events["ev-1"].Title)
		assert.Empty(t, images.deleted)
	})

	t.Run("missing event is not found", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(), &mockImageStore{}, testLogger(), time.Second)
		_, err := svc.UpdateEvent(context.Background(), "ev-missing", domain.EventUpdate{Title: &title}, nil, userA)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("title change regenerates slug and keeps image", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		updated, err := svc.UpdateEvent(context.Background(), "ev-1", domain.EventUpdate{Title: &title}, nil, userA)
		require.NoError(t, err)
		assert.Equal(t, "Launch v2", updated.Title)
		assert.True(t, strings.HasPrefix(updated.Slug, "launch-v2-"))
		assert.NotEqual(t, "launch-abc123", updated.Slug)
		assert.Equal(t, "https://images.test/old.png", updated.ImageURL)
		assert.Zero(t, images.uploads)
	})

	t.Run("caller cannot smuggle slug or image url", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		svc := NewEventService(repo, &mockImageStore{}, testLogger(), time.Second)

		slug := "hijacked"
		url := "https://evil.test/x.png"
		updated, err := svc.UpdateEvent(context.Background(), "ev-1", domain.EventUpdate{Slug: &slug, ImageURL: &url}, nil, userA)
		require.NoError(t, err)
		assert.Equal(t, "launch-abc123", updated.Slug)
		assert.Equal(t, "https://images.test/old.png", updated.ImageURL)
	})

	t.Run("new image replaces and deletes old one", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{uploadURL: "https://images.test/new.png"}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		updated, err := svc.UpdateEvent(context.Background(), "ev-1", domain.EventUpdate{}, testImage(), userA)
		require.NoError(t, err)
		assert.Equal(t, "https://images.test/new.png", updated.ImageURL)
		assert.Equal(t, []string{"https://images.test/old.png"}, images.deleted)
	})

	t.Run("old image delete failure does not fail the update", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{uploadURL: "https://images.test/new.png", deleteErr: errors.New("s3 down")}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		updated, err := svc.UpdateEvent(context.Background(), "ev-1", domain.EventUpdate{}, testImage(), userA)
		require.NoError(t, err)
		assert.Equal(t, "https://images.test/new.png", updated.ImageURL)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(ownedEvent()), &mockImageStore{}, testLogger(), time.Second)
		_, err := svc.UpdateEvent(context.Background(), "ev-1", domain.EventUpdate{Title: &title}, nil, nil)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	t.Run("owner delete removes row then image", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		err := svc.DeleteEvent(context.Background(), "ev-1", userA)
		require.NoError(t, err)
		assert.Empty(t, repo.events)
		assert.Equal(t, []string{"https://images.test/old.png"}, images.deleted)
	})

	t.Run("image delete failure is non-fatal", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{deleteErr: errors.New("s3 down")}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		err := svc.DeleteEvent(context.Background(), "ev-1", userA)
		require.NoError(t, err)
		assert.Empty(t, repo.events)
	})

	t.Run("other user is forbidden and store unchanged", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		images := &mockImageStore{}
		svc := NewEventService(repo, images, testLogger(), time.Second)

		err := svc.DeleteEvent(context.Background(), "ev-1", userB)
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Len(t, repo.events, 1)
		assert.Empty(t, images.deleted)
	})

	t.Run("missing event is not found", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(), &mockImageStore{}, testLogger(), time.Second)
		err := svc.DeleteEvent(context.Background(), "ev-missing", userA)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(ownedEvent()), &mockImageStore{}, testLogger(), time.Second)
		err := svc.DeleteEvent(context.Background(), "ev-1", nil)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestEventService_ListMyEvents(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(), &mockImageStore{}, testLogger(), time.Second)
		_, _, err := svc.ListMyEvents(context.Background(), nil, domain.PaginationParams{Page: 1, PageSize: 20})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("only own events", func(t *testing.T) {
		other := ownedEvent()
		other.ID = "ev-2"
		other.Slug = "other-xyz"
		other.CreatorID = "user-b"
		repo := newMockEventRepository(ownedEvent(), other)
		svc := NewEventService(repo, &mockImageStore{}, testLogger(), time.Second)

		events, total, err := svc.ListMyEvents(context.Background(), userA, domain.PaginationParams{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, events, 1)
		assert.Equal(t, "ev-1", events[0].ID)
	})
}

func TestEventService_SimilarEvents(t *testing.T) {
	t.Run("unknown slug degrades to empty", func(t *testing.T) {
		svc := NewEventService(newMockEventRepository(), &mockImageStore{}, testLogger(), time.Second)
		similar, err := svc.SimilarEvents(context.Background(), "missing-slug")
		require.NoError(t, err)
		assert.Equal(t, []*domain.Event{}, similar)
	})

	t.Run("repo failure degrades to empty", func(t *testing.T) {
		repo := newMockEventRepository(ownedEvent())
		repo.listErr = errors.New("db down")
		svc := NewEventService(repo, &mockImageStore{}, testLogger(), time.Second)

		similar, err := svc.SimilarEvents(context.Background(), "launch-abc123")
		require.NoError(t, err)
		assert.Equal(t, []*domain.Event{}, similar)
	})

	t.Run("shares a tag and excludes itself", func(t *testing.T) {
		other := ownedEvent()
		other.ID = "ev-2"
		other.Slug = "other-ai"
		unrelated := ownedEvent()
		unrelated.ID = "ev-3"
		unrelated.Slug = "cooking"
		unrelated.Tags = []string{"food"}
		repo := newMockEventRepository(ownedEvent(), other, unrelated)
		svc := NewEventService(repo, &mockImageStore{}, testLogger(), time.Second)

		similar, err := svc.SimilarEvents(context.Background(), "launch-abc123")
		require.NoError(t, err)
		require.Len(t, similar, 1)
		assert.Equal(t, "ev-2", similar[0].ID)
	})
}
