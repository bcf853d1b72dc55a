package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// HealthResponse is the data payload for GET /healthz (200).
type HealthResponse struct {
	Status string `json:"status"`
}

// NewRouter initializes the HTTP router with all application routes.
// Booking creation uses OptionalAuth: an anonymous caller receives a
// structured requires-auth result instead of a 401.
func NewRouter(
	eventController *controllers.EventController,
	bookingController *controllers.BookingController,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)

	// Events
	mux.HandleFunc("POST /events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/me", requireAuth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{slug}", eventController.GetEventBySlug)
	mux.HandleFunc("GET /events/{slug}/similar", eventController.SimilarEvents)
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent))

	// Bookings
	mux.HandleFunc("POST /events/{eventID}/bookings", optionalAuth(bookingController.BookEvent))
	mux.HandleFunc("GET /events/{eventID}/bookings/count", bookingController.BookingCount)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
