package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Booking represents a booking of an event by an email address. The pair
// (event_id, email) is unique; the store-level constraint is the
// authoritative guard against concurrent duplicates.
// swagger:model Booking
type Booking struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBooking returns a new Booking. ID is set by the caller or repository.
func NewBooking(eventID, email string, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		EventID:   eventID,
		Email:     email,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// bookingEmailRegex is deliberately conservative: local@domain.tld, no
// leading or consecutive dots in the local part.
var bookingEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9_%+\-](?:\.?[a-zA-Z0-9_%+\-])*@[a-zA-Z0-9\-]+(?:\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

// NormalizeBookingEmail trims and lower-cases the email and validates it.
// Returns ErrInvalidInput when the result does not look like an address.
func NormalizeBookingEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !bookingEmailRegex.MatchString(email) {
		return "", ErrInvalidInput
	}
	return email, nil
}

// BookingResult is the structured outcome of a booking attempt. Expected
// rejections (no identity, duplicate) are results, not errors.
type BookingResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RequiresAuth bool   `json:"requires_auth"`
	Refresh      bool   `json:"refresh"`
}

// BookingRepository defines storage operations for bookings. Create returns
// ErrAlreadyBooked on a (event_id, email) uniqueness violation and
// ErrNotFound when the referenced event does not exist.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*Booking, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// BookingService defines the business logic for bookings.
type BookingService interface {
	// Book books the event for the identity's email. A nil identity yields
	// a requires-auth result rather than an error.
	Book(ctx context.Context, eventID, email string, identity *Identity) (*BookingResult, error)
	// Count returns the number of bookings for the event. It never fails:
	// on any underlying error it returns 0.
	Count(ctx context.Context, eventID string) int
}
