package domain

// Mailer sends an email. Implementations may use SES or a no-op sender.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// BookingConfirmationEmailData carries the fields rendered into the booking
// confirmation email.
type BookingConfirmationEmailData struct {
	Email      string
	EventTitle string
	EventSlug  string
}
