package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"carrental/pkg/model"

	"github.com/shopspring/decimal"
)

// ErrNoCalculator signals a deployment bug: a car category exists without a
// registered price formula. Never defaulted over.
var ErrNoCalculator = errors.New("no price calculator registered")

// Config holds the two base rates every formula is evaluated against. Both
// are loaded once at startup and stay constant for the process lifetime.
type Config struct {
	BaseDayRate decimal.Decimal
	BaseKmRate  decimal.Decimal
}

// CalcFunc is a pure price formula. Inputs are pre-validated by the caller:
// days and km are non-negative.
type CalcFunc func(days int64, km int64, cfg Config) decimal.Decimal

var (
	combiDayFactor = decimal.RequireFromString("1.3")
	truckFactor    = decimal.RequireFromString("1.5")
)

// calculateSmallCar: baseDayRate * days. Distance is free for small cars.
func calculateSmallCar(days int64, _ int64, cfg Config) decimal.Decimal {
	return cfg.BaseDayRate.Mul(decimal.NewFromInt(days))
}

// calculateCombi: baseDayRate * days * 1.3 + baseKmRate * km
func calculateCombi(days int64, km int64, cfg Config) decimal.Decimal {
	dayPart := cfg.BaseDayRate.Mul(decimal.NewFromInt(days)).Mul(combiDayFactor)
	kmPart := cfg.BaseKmRate.Mul(decimal.NewFromInt(km))
	return dayPart.Add(kmPart)
}

// calculateTruck: baseDayRate * days * 1.5 + baseKmRate * km * 1.5
func calculateTruck(days int64, km int64, cfg Config) decimal.Decimal {
	dayPart := cfg.BaseDayRate.Mul(decimal.NewFromInt(days)).Mul(truckFactor)
	kmPart := cfg.BaseKmRate.Mul(decimal.NewFromInt(km)).Mul(truckFactor)
	return dayPart.Add(kmPart)
}

// Resolver maps a car category to its price formula. The table is closed:
// it is built once from the full variant set and looked up by exact match.
type Resolver struct {
	calculators map[model.CarCategory]CalcFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		calculators: map[model.CarCategory]CalcFunc{
			model.CategorySmallCar: calculateSmallCar,
			model.CategoryCombi:    calculateCombi,
			model.CategoryTruck:    calculateTruck,
		},
	}
}

func (r *Resolver) Resolve(category model.CarCategory) (CalcFunc, error) {
	calc, ok := r.calculators[category]
	if !ok {
		return nil, fmt.Errorf("%w for category %q", ErrNoCalculator, category)
	}
	return calc, nil
}

// RentalDays counts billable days: the ceiling of the real-valued day
// difference, so 25 hours bills as 2 days while exactly 24 hours bills
// as 1. A zero-length rental is 0 days.
func RentalDays(pickup, returned time.Time) int64 {
	return int64(math.Ceil(returned.Sub(pickup).Hours() / 24))
}
