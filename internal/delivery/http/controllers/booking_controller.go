package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// BookEventRequest is the request body for POST /events/{eventID}/bookings.
// Email is optional; when empty the authenticated identity's email is used.
type BookEventRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator. Email format is checked by the service so
// that normalization and validation stay in one place.
func (b BookEventRequest) Validate() []string {
	return nil
}

// BookEventSuccessResponse is the success response envelope for POST /events/{eventID}/bookings (200).
type BookEventSuccessResponse struct {
	Data  *domain.BookingResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// BookingCountResponse is the data payload for GET /events/{eventID}/bookings/count (200).
type BookingCountResponse struct {
	Count int `json:"count"`
}

// BookingCountSuccessResponse is the success response envelope for GET /events/{eventID}/bookings/count (200).
type BookingCountSuccessResponse struct {
	Data  BookingCountResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// BookEvent godoc
// @Summary Book an event
// @Description Books the event for the caller's email. Anonymous callers receive a result with requires_auth set instead of a 401; a duplicate booking receives a non-success result rather than an error. An empty body email falls back to the authenticated identity's email.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body BookEventRequest true "Booking email (optional)"
// @Success 200 {object} controllers.BookEventSuccessResponse "data contains the booking outcome"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid email)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no such event)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/bookings [post]
func (c *BookingController) BookEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req BookEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity := middleware.IdentityFromContext(r.Context())
	result, err := c.Service.Book(r.Context(), eventID, req.Email, identity)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid email address")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// BookingCount godoc
// @Summary Count bookings for an event
// @Description Returns the number of bookings for the event. This read never fails: on any underlying error it returns a count of zero. Public.
// @Tags bookings
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.BookingCountSuccessResponse "data contains the count"
// @Router /events/{eventID}/bookings/count [get]
func (c *BookingController) BookingCount(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	count := c.Service.Count(r.Context(), eventID)
	helpers.WriteJSONSuccess(w, http.StatusOK, BookingCountResponse{Count: count})
}
