package repository

import (
	"testing"
	"time"

	"carrental/pkg/model"

	"github.com/shopspring/decimal"
)

func TestDocumentConversion_ActiveRental(t *testing.T) {
	rental := &model.Rental{
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

	doc, err := toDocument(rental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.ID.IsZero() {
		t.Error("expected storage to own ID assignment for new rentals")
	}
	if doc.Price != nil || doc.ReturnTime != nil || doc.ReturnMeter != nil {
		t.Error("expected return fields to stay absent on an active rental")
	}

	got, err := fromDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BookingNumber != rental.BookingNumber ||
		got.Category != rental.Category ||
		got.Status != rental.Status ||
		got.PickupMeter != rental.PickupMeter {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestDocumentConversion_PriceAsDecimalString(t *testing.T) {
	price := decimal.RequireFromString("4650.50")
	returnTime := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	returnMeter := int64(1800)

	rental := &model.Rental{
		BookingNumber: "8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11",
		Category:      model.CategoryCombi,
		PickupTime:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ReturnTime:    &returnTime,
		ReturnMeter:   &returnMeter,
		Price:         &price,
		Status:        model.StatusCompleted,
	}

	doc, err := toDocument(rental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Price == nil || *doc.Price != "4650.5" {
		t.Errorf("expected price stored as decimal string, got %v", doc.Price)
	}

	got, err := fromDocument(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Price == nil || !got.Price.Equal(price) {
		t.Errorf("expected price %s after round trip, got %v", price, got.Price)
	}
}

func TestToDocument_RejectsMalformedID(t *testing.T) {
	rental := &model.Rental{
		ID:            "not-an-object-id",
		BookingNumber: "8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11",
	}

	if _, err := toDocument(rental); err == nil {
		t.Error("expected error for malformed storage ID")
	}
}

func TestFromDocument_RejectsCorruptPrice(t *testing.T) {
	corrupt := "not-a-number"
	doc := &rentalDocument{
		BookingNumber: "8a2f6f84-62a1-4f7f-9c6d-0b2a5a9d3e11",
		Price:         &corrupt,
	}

	if _, err := fromDocument(doc); err == nil {
		t.Error("expected error for corrupt stored price")
	}
}
