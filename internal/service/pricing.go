package service

import (
	"math"

	"github.com/iliyamo/hotel-room-inventory/internal/model"
)

// Demand thresholds on the booked ratio of a room type over a date
// range.  Below lowCeiling is LOW, below normalCeiling NORMAL, below
// highCeiling HIGH, everything above is PEAK.
const (
	lowCeiling    = 0.4
	normalCeiling = 0.7
	highCeiling   = 0.9
)

// ClassifyDemand maps a booked/total ratio onto the ordered demand
// levels.  A type with no sellable rooms counts as PEAK: nothing can be
// offered, so the classification should never undercut.
func ClassifyDemand(booked, total int) model.DemandLevel {
	if total <= 0 {
		return model.DemandPeak
	}
	if booked < 0 {
		booked = 0
	}
	ratio := float64(booked) / float64(total)
	switch {
	case ratio < lowCeiling:
		return model.DemandLow
	case ratio < normalCeiling:
		return model.DemandNormal
	case ratio < highCeiling:
		return model.DemandHigh
	default:
		return model.DemandPeak
	}
}

// DemandMultiplier returns the price factor for a demand level.
func DemandMultiplier(level model.DemandLevel) float64 {
	switch level {
	case model.DemandLow:
		return 0.9
	case model.DemandHigh:
		return 1.15
	case model.DemandPeak:
		return 1.3
	default:
		return 1.0
	}
}

// CategoryMultiplier returns the hotel-category factor applied on top of
// the demand multiplier.  This is the stateless pricing utility the
// availability calculator and the concurrency guard share.
func CategoryMultiplier(cat model.HotelCategory) float64 {
	switch cat {
	case model.CategoryComfort:
		return 1.05
	case model.CategoryLuxury:
		return 1.2
	default:
		return 1.0
	}
}

// AdjustedPrice computes the demand- and category-adjusted nightly price
// in cents, rounded to the nearest cent.
func AdjustedPrice(baseCents uint32, level model.DemandLevel, cat model.HotelCategory) uint32 {
	adjusted := float64(baseCents) * DemandMultiplier(level) * CategoryMultiplier(cat)
	return uint32(math.Round(adjusted))
}
