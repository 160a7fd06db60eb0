package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "carrental/pkg/errors"
	httputil "carrental/pkg/http"
	"carrental/pkg/logger"
	"carrental/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

// ────────────────────────────────────────────────
// Mock service for testing
// ────────────────────────────────────────────────

type mockRentalService struct {
	registerPickupFunc     func(ctx context.Context, req *model.PickupRequest) (*model.Rental, error)
	registerReturnFunc     func(ctx context.Context, bookingNumber string, req *model.ReturnRequest) (*model.Rental, error)
	getByBookingNumberFunc func(ctx context.Context, bookingNumber string) (*model.Rental, error)
	getAllFunc             func(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error)
	getActiveFunc          func(ctx context.Context) ([]*model.Rental, error)
}

func (m *mockRentalService) RegisterPickup(ctx context.Context, req *model.PickupRequest) (*model.Rental, error) {
	return m.registerPickupFunc(ctx, req)
}

func (m *mockRentalService) RegisterReturn(ctx context.Context, bookingNumber string, req *model.ReturnRequest) (*model.Rental, error) {
	return m.registerReturnFunc(ctx, bookingNumber, req)
}

func (m *mockRentalService) GetByBookingNumber(ctx context.Context, bookingNumber string) (*model.Rental, error) {
	return m.getByBookingNumberFunc(ctx, bookingNumber)
}

func (m *mockRentalService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error) {
	return m.getAllFunc(ctx, limit, offset)
}

func (m *mockRentalService) GetActive(ctx context.Context) ([]*model.Rental, error) {
	return m.getActiveFunc(ctx)
}

func newTestRouter(svc *mockRentalService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	router := httprouter.New()
	NewRentalHandler(svc, log, true).RegisterRoutes(router)
	return router
}

func activeRental() *model.Rental {
	return &model.Rental{
		ID:                 "64f1b2c3d4e5f60718293a4b",
		BookingNumber:      "8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11",
		RegistrationNumber: "ABC123",
		CustomerID:         "19801010-1234",
		Category:           model.CategorySmallCar,
		PickupTime:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		PickupMeter:        1000,
		Status:             model.StatusActive,
		Email:              "customer@example.com",
		CreatedAt:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func completedRental() *model.Rental {
	rental := activeRental()
	returnTime := rental.PickupTime.Add(48 * time.Hour)
	returnMeter := int64(1200)
	price := decimal.RequireFromString("200")
	rental.ReturnTime = &returnTime
	rental.ReturnMeter = &returnMeter
	rental.Price = &price
	rental.Status = model.StatusCompleted
	return rental
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorEnvelope {
	t.Helper()
	var envelope httputil.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return envelope
}

// ────────────────────────────────────────────────
// Pickup
// ────────────────────────────────────────────────

func TestRegisterPickupHandler_Created(t *testing.T) {
	svc := &mockRentalService{
		registerPickupFunc: func(_ context.Context, req *model.PickupRequest) (*model.Rental, error) {
			rental := activeRental()
			rental.RegistrationNumber = req.RegistrationNumber
			return rental, nil
		},
	}
	router := newTestRouter(svc)

	body := `{
		"registration_number": "ABC123",
		"customer_id": "19801010-1234",
		"category": "small_car",
		"pickup_time": "2026-03-01T10:00:00Z",
		"pickup_meter": 1000,
		"email": "customer@example.com"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/pickup", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data RentalResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.BookingNumber == "" {
		t.Error("expected booking number in response")
	}
	if resp.Data.Status != string(model.StatusActive) {
		t.Errorf("expected status active, got %s", resp.Data.Status)
	}
	if resp.Data.Price != nil {
		t.Error("expected no price on an active rental")
	}
}

func TestRegisterPickupHandler_InvalidBody(t *testing.T) {
	router := newTestRouter(&mockRentalService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/pickup", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "Invalid request body" {
		t.Errorf("unexpected error message %q", envelope.Error)
	}
	if envelope.Path != "/api/v1/rentals/pickup" {
		t.Errorf("unexpected path %q", envelope.Path)
	}
}

func TestRegisterPickupHandler_ValidationError(t *testing.T) {
	svc := &mockRentalService{
		registerPickupFunc: func(context.Context, *model.PickupRequest) (*model.Rental, error) {
			return nil, apperrors.Validation("Pickup validation failed", map[string]any{"error": "Email must be a valid email address"})
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/pickup", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected envelope status 422, got %d", envelope.Status)
	}
	if envelope.Details == nil {
		t.Error("expected validation details in envelope")
	}
}

// ────────────────────────────────────────────────
// Return
// ────────────────────────────────────────────────

func TestRegisterReturnHandler_Completed(t *testing.T) {
	var gotBookingNumber string
	svc := &mockRentalService{
		registerReturnFunc: func(_ context.Context, bookingNumber string, _ *model.ReturnRequest) (*model.Rental, error) {
			gotBookingNumber = bookingNumber
			return completedRental(), nil
		},
	}
	router := newTestRouter(svc)

	body := `{"return_time": "2026-03-03T10:00:00Z", "return_meter": 1200}`
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/rentals/booking/8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11/return",
		bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotBookingNumber != "8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11" {
		t.Errorf("expected booking number from path, got %q", gotBookingNumber)
	}

	var resp struct {
		Data RentalResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Status != string(model.StatusCompleted) {
		t.Errorf("expected status completed, got %s", resp.Data.Status)
	}
	if resp.Data.Price == nil || *resp.Data.Price != "200" {
		t.Errorf("expected price \"200\", got %v", resp.Data.Price)
	}
}

func TestRegisterReturnHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "not found",
			serviceErr: apperrors.NotFoundWithID("Rental", "x"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "already completed",
			serviceErr: apperrors.Conflict("Rental already completed"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "malformed booking number",
			serviceErr: apperrors.InvalidInput("Malformed booking number"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "precondition failed",
			serviceErr: apperrors.Validation("Return time cannot be before pickup time", nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing calculator",
			serviceErr: apperrors.Configuration("No price calculator for category limousine", nil),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRentalService{
				registerReturnFunc: func(context.Context, string, *model.ReturnRequest) (*model.Rental, error) {
					return nil, tt.serviceErr
				},
			}
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPost,
				"/api/v1/rentals/booking/8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11/return",
				bytes.NewBufferString(`{"return_time": "2026-03-03T10:00:00Z", "return_meter": 1200}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			envelope := decodeEnvelope(t, rec)
			if envelope.Status != tt.wantStatus {
				t.Errorf("expected envelope status %d, got %d", tt.wantStatus, envelope.Status)
			}
		})
	}
}

// ────────────────────────────────────────────────
// Queries
// ────────────────────────────────────────────────

func TestGetByBookingNumberHandler_Found(t *testing.T) {
	svc := &mockRentalService{
		getByBookingNumberFunc: func(context.Context, string) (*model.Rental, error) {
			return completedRental(), nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/rentals/booking/8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetByBookingNumberHandler_Absent(t *testing.T) {
	svc := &mockRentalService{
		getByBookingNumberFunc: func(context.Context, string) (*model.Rental, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals/booking/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "Rental not found" {
		t.Errorf("unexpected error message %q", envelope.Error)
	}
}

func TestGetAllHandler_Paginated(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	svc := &mockRentalService{
		getAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Rental, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Rental{activeRental(), completedRental()}, 7, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals?limit=2&offset=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotLimit != 2 || gotOffset != 3 {
		t.Errorf("expected limit=2 offset=3 passed through, got limit=%d offset=%d", gotLimit, gotOffset)
	}

	var resp struct {
		Data       []RentalResponse `json:"data"`
		TotalCount int64            `json:"total_count"`
		Limit      int              `json:"limit"`
		Offset     int64            `json:"offset"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalCount != 7 {
		t.Errorf("expected total_count 7, got %d", resp.TotalCount)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 rentals, got %d", len(resp.Data))
	}
}

func TestGetAllHandler_InvalidPagination(t *testing.T) {
	router := newTestRouter(&mockRentalService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetActiveHandler(t *testing.T) {
	svc := &mockRentalService{
		getActiveFunc: func(context.Context) ([]*model.Rental, error) {
			return []*model.Rental{activeRental()}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rentals/active", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []RentalResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Status != string(model.StatusActive) {
		t.Errorf("unexpected active list: %+v", resp.Data)
	}
}
