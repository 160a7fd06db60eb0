package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CarCategory string

const (
	CategorySmallCar CarCategory = "small_car"
	CategoryCombi    CarCategory = "combi"
	CategoryTruck    CarCategory = "truck"
)

func (c CarCategory) Valid() bool {
	switch c {
	case CategorySmallCar, CategoryCombi, CategoryTruck:
		return true
	}
	return false
}

type RentalStatus string

const (
	StatusActive    RentalStatus = "active"
	StatusCompleted RentalStatus = "completed"
)

// Rental is the central entity. The storage ID is owned by the repository;
// BookingNumber is the external handle. Return fields and Price stay nil
// while the rental is active and are all set by the single return write.
type Rental struct {
	ID                 string
	BookingNumber      string
	RegistrationNumber string
	CustomerID         string
	Category           CarCategory
	PickupTime         time.Time
	PickupMeter        int64
	ReturnTime         *time.Time
	ReturnMeter        *int64
	Price              *decimal.Decimal
	Status             RentalStatus
	Email              string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// Invoiceable reports whether the rental can be billed. Only completed
// rentals carry a price.
func (r *Rental) Invoiceable() bool {
	return r.Status == StatusCompleted && r.Price != nil
}

type PickupRequest struct {
	RegistrationNumber string      `json:"registration_number" validate:"required,min=1,max=20"`
	CustomerID         string      `json:"customer_id" validate:"required,min=1,max=20"`
	Category           CarCategory `json:"category" validate:"required,oneof=small_car combi truck"`
	PickupTime         time.Time   `json:"pickup_time" validate:"required"`
	PickupMeter        int64       `json:"pickup_meter" validate:"min=0"`
	Email              string      `json:"email" validate:"required,email"`
}

type ReturnRequest struct {
	ReturnTime  time.Time `json:"return_time" validate:"required"`
	ReturnMeter int64     `json:"return_meter" validate:"min=0"`
}
