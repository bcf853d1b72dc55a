package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventhub/internal/domain"
)

// referentialCheckTimeout bounds the event-existence pre-check so a slow
// store cannot block booking creation indefinitely. A timeout is a hard
// failure for the check, never "assume valid".
const referentialCheckTimeout = 2 * time.Second

type bookingService struct {
	bookingRepo    domain.BookingRepository
	eventRepo      domain.EventRepository
	mailer         domain.Mailer
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewBookingService(bookingRepo domain.BookingRepository,
	eventRepo domain.EventRepository,
	mailer domain.Mailer,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		mailer:         mailer,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// Book books the event for the given email. An unauthenticated caller is an
// expected outcome, reported in the result rather than as an error. The
// application-level duplicate check is a fast path; the store's uniqueness
// constraint is the authoritative guard, and a conflict on insert is folded
// into the same already-booked outcome.
func (s *bookingService) Book(ctx context.Context, eventID, email string, identity *domain.Identity) (*domain.BookingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if identity == nil {
		return &domain.BookingResult{
			Message:      "sign in to book this event",
			RequiresAuth: true,
		}, nil
	}

	if email == "" {
		email = identity.Email
	}
	email, err := domain.NormalizeBookingEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrInvalidInput)
	}

	checkCtx, checkCancel := context.WithTimeout(ctx, referentialCheckTimeout)
	defer checkCancel()
	event, err := s.eventRepo.GetByID(checkCtx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("check event exists: %w", err)
	}

	if _, err := s.bookingRepo.GetByEventAndEmail(ctx, eventID, email); err == nil {
		return &domain.BookingResult{Message: "you have already booked this event"}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	now := time.Now()
	booking := domain.NewBooking(eventID, email, now, now)
	booking.ID = uuid.NewString()
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrAlreadyBooked) {
			return &domain.BookingResult{Message: "you have already booked this event"}, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.sendConfirmation(&domain.BookingConfirmationEmailData{
		Email:      email,
		EventTitle: event.Title,
		EventSlug:  event.Slug,
	})

	return &domain.BookingResult{
		Success: true,
		Message: "booking confirmed",
		Refresh: true,
	}, nil
}

// sendConfirmation sends the booking confirmation email. Best-effort: a
// failure is logged and never affects the booking.
func (s *bookingService) sendConfirmation(data *domain.BookingConfirmationEmailData) {
	subject := fmt.Sprintf("Booking confirmed: %s", data.EventTitle)
	text := fmt.Sprintf("Your spot at %q is confirmed. See you there!", data.EventTitle)
	html := fmt.Sprintf("<p>Your spot at <strong>%s</strong> is confirmed. See you there!</p>", data.EventTitle)
	if err := s.mailer.Send(data.Email, subject, html, text); err != nil {
		s.logger.Warn("failed to send booking confirmation", "email", data.Email, "event_slug", data.EventSlug, "err", err)
	}
}

// Count returns the booking count for display. It never fails: on any
// underlying error it logs and returns 0.
func (s *bookingService) Count(ctx context.Context, eventID string) int {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	count, err := s.bookingRepo.CountByEventID(ctx, eventID)
	if err != nil {
		s.logger.Warn("booking count failed", "event_id", eventID, "err", err)
		return 0
	}
	return count
}
