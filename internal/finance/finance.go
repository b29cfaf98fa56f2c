// Package finance provides exact decimal arithmetic for money, operating on
// integer cents internally to avoid float64 rounding drift, with float64
// dollar amounts at the public boundary. No decimal library is present
// anywhere in the reference corpus (see DESIGN.md); int64 cents is the
// grounded substitute.
package finance

import "math"

// ToCents converts a dollar float to integer cents, rounding half away from
// zero at the cent boundary.
func ToCents(dollars float64) int64 {
	if dollars >= 0 {
		return int64(math.Floor(dollars*100 + 0.5))
	}
	return -int64(math.Floor(-dollars*100 + 0.5))
}

// ToDollars converts integer cents back to a dollar float.
func ToDollars(cents int64) float64 {
	return float64(cents) / 100
}

// Prorate computes the prorated amount for usedDays out of totalDays.
func Prorate(amountDollars float64, usedDays, totalDays int) float64 {
	if totalDays <= 0 {
		return 0
	}
	cents := ToCents(amountDollars)
	prorated := cents * int64(usedDays) / int64(totalDays)
	return ToDollars(prorated)
}

// EarlyTerminationFee computes a fee as a percentage of the remaining
// contract value, in dollars.
func EarlyTerminationFee(remainingValueDollars, feePct float64) float64 {
	cents := ToCents(remainingValueDollars)
	fee := int64(math.Round(float64(cents) * feePct / 100))
	return ToDollars(fee)
}

// Variance reports whether actual differs from expected, in either
// direction, by more than thresholdPct percent, and the signed percentage
// variance.
type Variance struct {
	Exceeds bool
	PctDiff float64
}

func CheckVariance(expectedDollars, actualDollars, thresholdPct float64) Variance {
	if expectedDollars == 0 {
		return Variance{Exceeds: actualDollars != 0, PctDiff: 0}
	}
	expCents := ToCents(expectedDollars)
	actCents := ToCents(actualDollars)
	pct := float64(actCents-expCents) / float64(expCents) * 100
	abs := pct
	if abs < 0 {
		abs = -abs
	}
	return Variance{Exceeds: abs > thresholdPct, PctDiff: pct}
}

// SLACredit computes the service credit owed for a measured availability
// below the committed SLA, as a percentage of the monthly fee.
func SLACredit(monthlyFeeDollars, committedPct, actualPct, creditPctPerPoint float64) float64 {
	if actualPct >= committedPct {
		return 0
	}
	shortfall := committedPct - actualPct
	creditPct := shortfall * creditPctPerPoint
	if creditPct > 100 {
		creditPct = 100
	}
	feeCents := ToCents(monthlyFeeDollars)
	credit := int64(math.Round(float64(feeCents) * creditPct / 100))
	return ToDollars(credit)
}

// ApplySubLimit caps a claimed amount at a sub-limit, returning the payable
// amount and whether the cap was applied.
func ApplySubLimit(claimedDollars, subLimitDollars float64) (payable float64, capped bool) {
	claimCents := ToCents(claimedDollars)
	limitCents := ToCents(subLimitDollars)
	if claimCents > limitCents {
		return ToDollars(limitCents), true
	}
	return ToDollars(claimCents), false
}

// GiftCardCapacity returns the remaining redeemable balance after existing
// redemptions, floored at zero.
func GiftCardCapacity(faceValueDollars, redeemedDollars float64) float64 {
	remaining := ToCents(faceValueDollars) - ToCents(redeemedDollars)
	if remaining < 0 {
		remaining = 0
	}
	return ToDollars(remaining)
}

// AmortizationRow is one row of a loan amortization schedule.
type AmortizationRow struct {
	Period           int
	PaymentDollars   float64
	PrincipalDollars float64
	InterestDollars  float64
	BalanceDollars   float64
}

// LoanAmortizationSchedule computes a standard fixed-payment amortization
// schedule for a loan at a fixed monthly rate.
func LoanAmortizationSchedule(principalDollars, annualRatePct float64, months int) []AmortizationRow {
	if months <= 0 {
		return nil
	}
	principal := ToCents(principalDollars)
	monthlyRate := annualRatePct / 100 / 12

	var payment float64
	if monthlyRate == 0 {
		payment = float64(principal) / float64(months)
	} else {
		r := monthlyRate
		payment = float64(principal) * r * math.Pow(1+r, float64(months)) / (math.Pow(1+r, float64(months)) - 1)
	}
	paymentCents := int64(math.Round(payment))

	rows := make([]AmortizationRow, 0, months)
	balance := principal
	for p := 1; p <= months; p++ {
		interest := int64(math.Round(float64(balance) * monthlyRate))
		principalPortion := paymentCents - interest
		if p == months {
			principalPortion = balance
			paymentCents = principalPortion + interest
		}
		balance -= principalPortion
		if balance < 0 {
			balance = 0
		}
		rows = append(rows, AmortizationRow{
			Period:           p,
			PaymentDollars:   ToDollars(paymentCents),
			PrincipalDollars: ToDollars(principalPortion),
			InterestDollars:  ToDollars(interest),
			BalanceDollars:   ToDollars(balance),
		})
	}
	return rows
}

// DepreciationRow is one row of a straight-line depreciation schedule.
type DepreciationRow struct {
	Period            int
	DepreciationDollars float64
	BookValueDollars   float64
}

// StraightLineDepreciationSchedule depreciates costDollars to salvageDollars
// evenly over usefulLifePeriods.
func StraightLineDepreciationSchedule(costDollars, salvageDollars float64, usefulLifePeriods int) []DepreciationRow {
	if usefulLifePeriods <= 0 {
		return nil
	}
	cost := ToCents(costDollars)
	salvage := ToCents(salvageDollars)
	depreciable := cost - salvage
	perPeriod := depreciable / int64(usefulLifePeriods)

	rows := make([]DepreciationRow, 0, usefulLifePeriods)
	book := cost
	for p := 1; p <= usefulLifePeriods; p++ {
		dep := perPeriod
		if p == usefulLifePeriods {
			dep = book - salvage
		}
		book -= dep
		rows = append(rows, DepreciationRow{Period: p, DepreciationDollars: ToDollars(dep), BookValueDollars: ToDollars(book)})
	}
	return rows
}

// RevenueRecognitionRow is one period of an ASC606-style ratable revenue
// recognition schedule.
type RevenueRecognitionRow struct {
	Period         int
	RecognizedDollars float64
	RemainingDollars  float64
}

// ASC606RevenueRecognition ratably recognizes totalContractDollars evenly
// over periods (the common straight-line ratable-recognition case).
func ASC606RevenueRecognition(totalContractDollars float64, periods int) []RevenueRecognitionRow {
	if periods <= 0 {
		return nil
	}
	total := ToCents(totalContractDollars)
	perPeriod := total / int64(periods)

	rows := make([]RevenueRecognitionRow, 0, periods)
	remaining := total
	for p := 1; p <= periods; p++ {
		rec := perPeriod
		if p == periods {
			rec = remaining
		}
		remaining -= rec
		rows = append(rows, RevenueRecognitionRow{Period: p, RecognizedDollars: ToDollars(rec), RemainingDollars: ToDollars(remaining)})
	}
	return rows
}

// NetPriceDelta computes the net price change across a set of line-item
// modifications (each a before/after dollar amount) and cancellations
// (amounts removed entirely).
func NetPriceDelta(modifications [][2]float64, cancellations []float64) float64 {
	var delta int64
	for _, m := range modifications {
		delta += ToCents(m[1]) - ToCents(m[0])
	}
	for _, c := range cancellations {
		delta -= ToCents(c)
	}
	return ToDollars(delta)
}
