package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"carrental/internal/rentals/service"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"
	"carrental/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// RentalResponse is the transport shape, converted field-by-field from the
// domain entity. Price travels as a decimal string.
type RentalResponse struct {
	ID                 string     `json:"id"`
	BookingNumber      string     `json:"booking_number"`
	RegistrationNumber string     `json:"registration_number"`
	CustomerID         string     `json:"customer_id"`
	Category           string     `json:"category"`
	PickupTime         time.Time  `json:"pickup_time"`
	PickupMeter        int64      `json:"pickup_meter"`
	ReturnTime         *time.Time `json:"return_time,omitempty"`
	ReturnMeter        *int64     `json:"return_meter,omitempty"`
	Price              *string    `json:"price,omitempty"`
	Status             string     `json:"status"`
	Email              string     `json:"email"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

func toResponse(r *model.Rental) *RentalResponse {
	resp := &RentalResponse{
		ID:                 r.ID,
		BookingNumber:      r.BookingNumber,
		RegistrationNumber: r.RegistrationNumber,
		CustomerID:         r.CustomerID,
		Category:           string(r.Category),
		PickupTime:         r.PickupTime,
		PickupMeter:        r.PickupMeter,
		ReturnTime:         r.ReturnTime,
		ReturnMeter:        r.ReturnMeter,
		Status:             string(r.Status),
		Email:              r.Email,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.Price != nil {
		price := r.Price.String()
		resp.Price = &price
	}
	return resp
}

func toResponseList(rentals []*model.Rental) []*RentalResponse {
	responses := make([]*RentalResponse, 0, len(rentals))
	for _, r := range rentals {
		responses = append(responses, toResponse(r))
	}
	return responses
}

type RentalHandler struct {
	service service.RentalService
	log     *logger.Logger
	debug   bool
}

func NewRentalHandler(service service.RentalService, log *logger.Logger, debug bool) *RentalHandler {
	return &RentalHandler{
		service: service,
		log:     log,
		debug:   debug,
	}
}

func (h *RentalHandler) RegisterPickup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
			Status:    http.StatusBadRequest,
			Error:     "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "RegisterPickup", "error", writeErr)
		}
		return
	}

	rental, err := h.service.RegisterPickup(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RegisterPickup", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, toResponse(rental)); err != nil {
		h.log.Error("failed to write created response", "handler", "RegisterPickup", "error", err)
	}
}

func (h *RentalHandler) RegisterReturn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingNumber := ps.ByName("bookingNumber")

	var req model.ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
			Status:    http.StatusBadRequest,
			Error:     "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "RegisterReturn", "error", writeErr)
		}
		return
	}

	rental, err := h.service.RegisterReturn(r.Context(), bookingNumber, &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RegisterReturn", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, toResponse(rental)); err != nil {
		h.log.Error("failed to write success response", "handler", "RegisterReturn", "error", err)
	}
}

func (h *RentalHandler) GetByBookingNumber(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingNumber := ps.ByName("bookingNumber")

	rental, err := h.service.GetByBookingNumber(r.Context(), bookingNumber)
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByBookingNumber", "error", writeErr)
		}
		return
	}

	// Absent covers both a lookup miss and a malformed token.
	if rental == nil {
		if writeErr := httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorEnvelope{
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
			Status:    http.StatusNotFound,
			Error:     "Rental not found",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "GetByBookingNumber", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, toResponse(rental)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByBookingNumber", "error", err)
	}
}

func (h *RentalHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}

	rentals, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, toResponseList(rentals), total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *RentalHandler) GetActive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rentals, err := h.service.GetActive(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, r, err, h.debug); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetActive", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, toResponseList(rentals)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetActive", "error", err)
	}
}

func (h *RentalHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rentals/pickup", h.RegisterPickup)
	router.GET("/api/v1/rentals", h.GetAll)
	router.GET("/api/v1/rentals/active", h.GetActive)
	router.GET("/api/v1/rentals/booking/:bookingNumber", h.GetByBookingNumber)
	router.POST("/api/v1/rentals/booking/:bookingNumber/return", h.RegisterReturn)
}
