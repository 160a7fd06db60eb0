package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carrental/internal/pricing"
	rentalerrors "carrental/internal/rentals/errors"
	"carrental/internal/rentals/events"
	"carrental/internal/rentals/repository"
	"carrental/internal/rentals/validator"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"
	"carrental/pkg/model"
	"carrental/pkg/sanitizer"

	"github.com/google/uuid"
)

type RentalService interface {
	RegisterPickup(ctx context.Context, req *model.PickupRequest) (*model.Rental, error)
	RegisterReturn(ctx context.Context, bookingNumber string, req *model.ReturnRequest) (*model.Rental, error)
	GetByBookingNumber(ctx context.Context, bookingNumber string) (*model.Rental, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error)
	GetActive(ctx context.Context) ([]*model.Rental, error)
}

type rentalService struct {
	repo      repository.RentalRepository
	validator *validator.RentalValidator
	resolver  *pricing.Resolver
	pricing   pricing.Config
	publisher events.Publisher
	cfg       *config.Config
}

func NewRentalService(
	repo repository.RentalRepository,
	rentalValidator *validator.RentalValidator,
	resolver *pricing.Resolver,
	pricingCfg pricing.Config,
	publisher events.Publisher,
	cfg *config.Config,
) RentalService {
	return &rentalService{
		repo:      repo,
		validator: rentalValidator,
		resolver:  resolver,
		pricing:   pricingCfg,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *rentalService) RegisterPickup(ctx context.Context, req *model.PickupRequest) (*model.Rental, error) {
	s.sanitizePickup(req)

	if err := s.validator.ValidatePickup(req); err != nil {
		s.cfg.Log.Warn("Pickup validation failed", "error", err)
		return nil, apperrors.Validation("Pickup validation failed", map[string]any{"error": err.Error()})
	}

	rental := &model.Rental{
		BookingNumber:      uuid.New().String(),
		RegistrationNumber: req.RegistrationNumber,
		CustomerID:         req.CustomerID,
		Category:           req.Category,
		PickupTime:         req.PickupTime,
		PickupMeter:        req.PickupMeter,
		Status:             model.StatusActive,
		Email:              req.Email,
	}

	if err := s.repo.Insert(ctx, rental); err != nil {
		if errors.Is(err, rentalerrors.ErrDuplicateBookingNumber) {
			// UUID collision; practically unreachable but surfaced honestly.
			return nil, apperrors.Conflict("Booking number already exists")
		}
		s.cfg.Log.Error("Failed to register pickup", "error", err)
		return nil, apperrors.Internal("Failed to register pickup", err)
	}

	s.publishEvent(ctx, s.publisher.PublishPickupRegistered, rental, events.EventPickupRegistered)

	s.cfg.Log.Info("Pickup registered",
		"booking_number", rental.BookingNumber,
		"registration_number", rental.RegistrationNumber,
		"category", rental.Category,
	)
	return rental, nil
}

// RegisterReturn performs the single Active→Completed transition. All
// preconditions are checked before any mutation; the price is computed
// exactly once and persisted together with the return fields in one
// status-guarded write.
func (s *rentalService) RegisterReturn(ctx context.Context, bookingNumber string, req *model.ReturnRequest) (*model.Rental, error) {
	bookingNumber = sanitizer.NormalizeBookingNumber(bookingNumber)

	if err := s.validator.ValidateReturn(req); err != nil {
		s.cfg.Log.Warn("Return validation failed", "booking_number", bookingNumber, "error", err)
		return nil, apperrors.Validation("Return validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := uuid.Parse(bookingNumber); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Malformed booking number: %q", bookingNumber))
	}

	rental, err := s.repo.FindByBookingNumber(ctx, bookingNumber)
	if err != nil {
		if errors.Is(err, rentalerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Rental", bookingNumber)
		}
		return nil, apperrors.Internal("Failed to retrieve rental", err)
	}

	if rental.Status != model.StatusActive {
		return nil, apperrors.Conflict(fmt.Sprintf("Rental %s is already completed", bookingNumber))
	}

	if req.ReturnTime.Before(rental.PickupTime) {
		return nil, apperrors.Validation("Return time cannot be before pickup time", map[string]any{
			"pickup_time": rental.PickupTime,
			"return_time": req.ReturnTime,
		})
	}

	if req.ReturnMeter < rental.PickupMeter {
		return nil, apperrors.Validation("Return meter reading cannot be less than pickup meter reading", map[string]any{
			"pickup_meter": rental.PickupMeter,
			"return_meter": req.ReturnMeter,
		})
	}

	days := pricing.RentalDays(rental.PickupTime, req.ReturnTime)
	km := req.ReturnMeter - rental.PickupMeter

	calculate, err := s.resolver.Resolve(rental.Category)
	if err != nil {
		s.cfg.Log.Error("Price calculator missing", "category", rental.Category, "error", err)
		return nil, apperrors.Configuration(fmt.Sprintf("No price calculator for category %s", rental.Category), err)
	}
	price := calculate(days, km, s.pricing)

	now := time.Now().UTC().Truncate(time.Millisecond)
	returnTime := req.ReturnTime
	returnMeter := req.ReturnMeter

	completed := *rental
	completed.ReturnTime = &returnTime
	completed.ReturnMeter = &returnMeter
	completed.Price = &price
	completed.Status = model.StatusCompleted
	completed.UpdatedAt = &now

	if err := s.repo.CompleteReturn(ctx, &completed); err != nil {
		if errors.Is(err, rentalerrors.ErrAlreadyCompleted) {
			// Lost the race against a concurrent return.
			return nil, apperrors.Conflict(fmt.Sprintf("Rental %s is already completed", bookingNumber))
		}
		s.cfg.Log.Error("Failed to register return", "booking_number", bookingNumber, "error", err)
		return nil, apperrors.Internal("Failed to register return", err)
	}

	s.publishEvent(ctx, s.publisher.PublishReturnRegistered, &completed, events.EventReturnRegistered)

	s.cfg.Log.Info("Return registered",
		"booking_number", bookingNumber,
		"days", days,
		"km", km,
		"price", price.String(),
	)
	return &completed, nil
}

// GetByBookingNumber distinguishes nothing for the caller: a malformed token
// and a missing rental both come back as absent, not as errors.
func (s *rentalService) GetByBookingNumber(ctx context.Context, bookingNumber string) (*model.Rental, error) {
	bookingNumber = sanitizer.NormalizeBookingNumber(bookingNumber)

	if _, err := uuid.Parse(bookingNumber); err != nil {
		return nil, nil
	}

	rental, err := s.repo.FindByBookingNumber(ctx, bookingNumber)
	if err != nil {
		if errors.Is(err, rentalerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to retrieve rental", err)
	}

	return rental, nil
}

func (s *rentalService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var rentals []*model.Rental
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rentals", "error", errCount)
			errCount = apperrors.Internal("Failed to count rentals", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rentals, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rentals", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rentals", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rentals, count, nil
}

func (s *rentalService) GetActive(ctx context.Context) ([]*model.Rental, error) {
	rentals, err := s.repo.FindByStatus(ctx, model.StatusActive)
	if err != nil {
		s.cfg.Log.Error("Failed to list active rentals", "error", err)
		return nil, apperrors.Internal("Failed to retrieve active rentals", err)
	}
	return rentals, nil
}

// --- Helpers ---

func (s *rentalService) sanitizePickup(req *model.PickupRequest) {
	req.RegistrationNumber = sanitizer.NormalizeRegistrationNumber(req.RegistrationNumber)
	req.CustomerID = sanitizer.NormalizeCustomerID(req.CustomerID)
	req.Email = sanitizer.NormalizeEmail(req.Email)
}

// publishEvent is best-effort: the state transition is already committed, so
// a broker failure is logged and never surfaced to the caller.
func (s *rentalService) publishEvent(ctx context.Context, publish func(context.Context, *model.Rental) error, rental *model.Rental, eventType string) {
	if err := publish(ctx, rental); err != nil {
		s.cfg.Log.Warn("Failed to publish rental event",
			"event_type", eventType,
			"booking_number", rental.BookingNumber,
			"error", err,
		)
	}
}
