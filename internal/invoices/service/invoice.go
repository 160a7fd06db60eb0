package service

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/pricing"
	rentalservice "carrental/internal/rentals/service"
	"carrental/pkg/config"
	apperrors "carrental/pkg/errors"

	"github.com/shopspring/decimal"
)

// Invoice is the billing projection of a completed rental handed to the
// document renderer.
type Invoice struct {
	BookingNumber      string
	RegistrationNumber string
	CustomerID         string
	Category           string
	Email              string
	PickupTime         time.Time
	PickupMeter        int64
	ReturnTime         time.Time
	ReturnMeter        int64
	Days               int64
	Km                 int64
	Price              decimal.Decimal
	IssuedAt           time.Time
}

// DocumentRenderer is the rendering collaborator. The service owns the
// invoiceable precondition; the renderer only turns a projection into bytes.
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, invoice *Invoice) ([]byte, error)
	ContentType() string
}

type InvoiceService interface {
	GetInvoiceByBookingNumber(ctx context.Context, bookingNumber string) ([]byte, string, error)
}

type invoiceService struct {
	rentals  rentalservice.RentalService
	renderer DocumentRenderer
	cfg      *config.Config
}

func NewInvoiceService(rentals rentalservice.RentalService, renderer DocumentRenderer, cfg *config.Config) InvoiceService {
	return &invoiceService{
		rentals:  rentals,
		renderer: renderer,
		cfg:      cfg,
	}
}

func (s *invoiceService) GetInvoiceByBookingNumber(ctx context.Context, bookingNumber string) ([]byte, string, error) {
	rental, err := s.rentals.GetByBookingNumber(ctx, bookingNumber)
	if err != nil {
		return nil, "", err
	}
	if rental == nil {
		return nil, "", apperrors.NotFoundWithID("Rental", bookingNumber)
	}

	if !rental.Invoiceable() {
		return nil, "", apperrors.Conflict(fmt.Sprintf("Rental %s is still active and cannot be invoiced", rental.BookingNumber))
	}

	invoice := &Invoice{
		BookingNumber:      rental.BookingNumber,
		RegistrationNumber: rental.RegistrationNumber,
		CustomerID:         rental.CustomerID,
		Category:           string(rental.Category),
		Email:              rental.Email,
		PickupTime:         rental.PickupTime,
		PickupMeter:        rental.PickupMeter,
		ReturnTime:         *rental.ReturnTime,
		ReturnMeter:        *rental.ReturnMeter,
		Days:               pricing.RentalDays(rental.PickupTime, *rental.ReturnTime),
		Km:                 *rental.ReturnMeter - rental.PickupMeter,
		Price:              *rental.Price,
		IssuedAt:           time.Now().UTC(),
	}

	document, err := s.renderer.RenderInvoice(ctx, invoice)
	if err != nil {
		s.cfg.Log.Error("Failed to render invoice", "booking_number", rental.BookingNumber, "error", err)
		return nil, "", apperrors.Internal("Failed to render invoice", err)
	}

	s.cfg.Log.Info("Invoice rendered", "booking_number", rental.BookingNumber, "bytes", len(document))
	return document, s.renderer.ContentType(), nil
}
