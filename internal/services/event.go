package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/domain"
)

const similarEventsLimit = 6

type eventService struct {
	eventRepo      domain.EventRepository
	images         domain.ImageStore
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	images domain.ImageStore,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		images:         images,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func requiredField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	return nil
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func validateEventInput(input *domain.EventInput) error {
	fields := map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"overview":    input.Overview,
		"venue":       input.Venue,
		"location":    input.Location,
		"mode":        input.Mode,
		"audience":    input.Audience,
		"organizer":   input.Organizer,
	}
	for name, value := range fields {
		if err := requiredField(name, value); err != nil {
			return err
		}
	}
	if input.StartAt.IsZero() {
		return fmt.Errorf("%w: start_at is required", domain.ErrInvalidInput)
	}
	input.Agenda = trimAll(input.Agenda)
	if len(input.Agenda) == 0 {
		return fmt.Errorf("%w: agenda must have at least one item", domain.ErrInvalidInput)
	}
	input.Tags = trimAll(input.Tags)
	if len(input.Tags) == 0 {
		return fmt.Errorf("%w: tags must have at least one item", domain.ErrInvalidInput)
	}
	return nil
}

func validateEventUpdate(upd *domain.EventUpdate) error {
	fields := map[string]*string{
		"title":       upd.Title,
		"description": upd.Description,
		"overview":    upd.Overview,
		"venue":       upd.Venue,
		"location":    upd.Location,
		"mode":        upd.Mode,
		"audience":    upd.Audience,
		"organizer":   upd.Organizer,
	}
	for name, value := range fields {
		if value == nil {
			continue
		}
		if err := requiredField(name, *value); err != nil {
			return err
		}
	}
	if upd.StartAt != nil && upd.StartAt.IsZero() {
		return fmt.Errorf("%w: start_at must be a valid instant", domain.ErrInvalidInput)
	}
	if upd.Agenda != nil {
		upd.Agenda = trimAll(upd.Agenda)
		if len(upd.Agenda) == 0 {
			return fmt.Errorf("%w: agenda must have at least one item", domain.ErrInvalidInput)
		}
	}
	if upd.Tags != nil {
		upd.Tags = trimAll(upd.Tags)
		if len(upd.Tags) == 0 {
			return fmt.Errorf("%w: tags must have at least one item", domain.ErrInvalidInput)
		}
	}
	return nil
}

// CreateEvent validates the input, uploads the image, and persists the event
// with the creator taken from the verified identity. The image goes up
// first: an upload failure means nothing is persisted.
func (s *eventService) CreateEvent(ctx context.Context, input domain.EventInput, image *domain.ImageUpload, identity *domain.Identity) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	if image == nil || len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}

	slug, err := domain.DeriveSlug(input.Title)
	if err != nil {
		return nil, fmt.Errorf("derive slug: %w", err)
	}
	imageURL, err := s.images.Upload(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	now := time.Now()
	event := &domain.Event{
		Slug:        slug,
		CreatorID:   identity.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Overview:    strings.TrimSpace(input.Overview),
		Venue:       strings.TrimSpace(input.Venue),
		Location:    strings.TrimSpace(input.Location),
		Mode:        strings.TrimSpace(input.Mode),
		Audience:    strings.TrimSpace(input.Audience),
		Organizer:   strings.TrimSpace(input.Organizer),
		StartAt:     input.StartAt,
		Agenda:      input.Agenda,
		Tags:        input.Tags,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		// The uploaded image is orphaned; reclaim it if we can.
		if derr := s.images.Delete(ctx, imageURL); derr != nil {
			s.logger.Warn("failed to reclaim orphaned image", "url", imageURL, "err", derr)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// UpdateEvent applies a partial update. The ownership filter rides in the
// same statement as the update; a filter miss is re-checked against bare
// existence to report not-found vs forbidden precisely. A replaced image is
// deleted from external storage only after the store update succeeded, and
// only best-effort.
func (s *eventService) UpdateEvent(ctx context.Context, eventID string, upd domain.EventUpdate, image *domain.ImageUpload, identity *domain.Identity) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil {
		return nil, domain.ErrUnauthorized
	}
	// Slug and image URL are server-derived; never trust them from the caller.
	upd.Slug = nil
	upd.ImageURL = nil
	if err := validateEventUpdate(&upd); err != nil {
		return nil, err
	}

	if upd.Title != nil {
		slug, err := domain.DeriveSlug(*upd.Title)
		if err != nil {
			return nil, fmt.Errorf("derive slug: %w", err)
		}
		upd.Slug = &slug
	}

	var oldImageURL string
	if image != nil && len(image.Data) > 0 {
		prev, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get event: %w", err)
		}
		oldImageURL = prev.ImageURL
		newURL, err := s.images.Upload(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		upd.ImageURL = &newURL
	}

	updated, err := s.eventRepo.UpdateOwned(ctx, eventID, identity.ID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if upd.ImageURL != nil {
				if derr := s.images.Delete(ctx, *upd.ImageURL); derr != nil {
					s.logger.Warn("failed to reclaim orphaned image", "url", *upd.ImageURL, "err", derr)
				}
			}
			exists, eerr := s.eventRepo.Exists(ctx, eventID)
			if eerr != nil {
				return nil, fmt.Errorf("check event exists: %w", eerr)
			}
			if exists {
				return nil, domain.ErrForbidden
			}
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if oldImageURL != "" && oldImageURL != updated.ImageURL {
		if derr := s.images.Delete(ctx, oldImageURL); derr != nil {
			s.logger.Warn("failed to delete superseded image", "url", oldImageURL, "err", derr)
		}
	}
	return updated, nil
}

// DeleteEvent removes the event with a single ownership-filtered delete, then
// reclaims the external image best-effort.
func (s *eventService) DeleteEvent(ctx context.Context, eventID string, identity *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil {
		return domain.ErrUnauthorized
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}

	if err := s.eventRepo.DeleteOwned(ctx, eventID, identity.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			exists, eerr := s.eventRepo.Exists(ctx, eventID)
			if eerr != nil {
				return fmt.Errorf("check event exists: %w", eerr)
			}
			if exists {
				return domain.ErrForbidden
			}
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	if event.ImageURL != "" {
		if derr := s.images.Delete(ctx, event.ImageURL); derr != nil {
			s.logger.Warn("failed to delete event image", "url", event.ImageURL, "err", derr)
		}
	}
	return nil
}

func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, identity *domain.Identity, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil {
		return nil, 0, domain.ErrUnauthorized
	}
	events, total, err := s.eventRepo.ListByCreator(ctx, identity.ID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events by creator: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

// SimilarEvents returns events sharing a tag with the given one. It is a
// nice-to-have read path and degrades to an empty slice on any failure.
func (s *eventService) SimilarEvents(ctx context.Context, slug string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("similar events lookup failed", "slug", slug, "err", err)
		}
		return []*domain.Event{}, nil
	}
	similar, err := s.eventRepo.ListByAnyTag(ctx, event.Tags, event.ID, similarEventsLimit)
	if err != nil {
		s.logger.Warn("similar events query failed", "slug", slug, "err", err)
		return []*domain.Event{}, nil
	}
	if similar == nil {
		similar = []*domain.Event{}
	}
	return similar, nil
}
