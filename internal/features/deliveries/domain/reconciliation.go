package domain

import "math"

// amountEpsilon is half a minor currency unit; differences below it are
// treated as an exact match.
const amountEpsilon = 0.005

// ReconciliationOutcome reports how the amount a courier actually collected
// compares to what the record says was collectible. A variance is a recorded
// fact, not an error: couriers may legitimately collect a different amount.
type ReconciliationOutcome struct {
	// ExpectedAmount is the sum of the record's four cost components.
	ExpectedAmount float64 `json:"expected_amount"`
	// CollectedAmount is what the courier reported collecting.
	CollectedAmount float64 `json:"collected_amount"`
	// Variance is collected minus expected, signed.
	Variance float64 `json:"variance"`
	// Matched is true when the variance is within a rounding tolerance.
	Matched bool `json:"matched"`
}

// ExpectedAmount returns the total collectible amount for the record:
// item value + pickup cost + delivery fee + storage cost. Each component is
// clamped at zero, so the result is never negative.
func (r *DeliveryRecord) ExpectedAmount() float64 {
	return clampCost(r.ItemValue) + clampCost(r.PickupCost) + clampCost(r.DeliveryFee) + clampCost(r.StorageCost)
}

// Reconcile compares the collected amount against the record's expected
// amount and returns the outcome. It never fails and never blocks
// completion; callers attach the outcome to the completion result.
func Reconcile(record *DeliveryRecord, collected float64) ReconciliationOutcome {
	expected := record.ExpectedAmount()
	variance := collected - expected
	return ReconciliationOutcome{
		ExpectedAmount:  expected,
		CollectedAmount: collected,
		Variance:        variance,
		Matched:         math.Abs(variance) < amountEpsilon,
	}
}

func clampCost(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// FinancialSummary aggregates the collectible amounts over a set of records,
// for dashboard and export consumers.
type FinancialSummary struct {
	// RecordCount is the number of records aggregated.
	RecordCount int `json:"record_count"`
	// OpenCount is the number of non-terminal records.
	OpenCount int `json:"open_count"`
	// TerminalCount is the number of delivered/collected records.
	TerminalCount int `json:"terminal_count"`
	// TotalExpected is the sum of expected amounts over all records.
	TotalExpected float64 `json:"total_expected"`
	// TotalItemValue, TotalPickupCost, TotalDeliveryFee and TotalStorageCost
	// break the expected total down per cost component.
	TotalItemValue   float64 `json:"total_item_value"`
	TotalPickupCost  float64 `json:"total_pickup_cost"`
	TotalDeliveryFee float64 `json:"total_delivery_fee"`
	TotalStorageCost float64 `json:"total_storage_cost"`
}

// Summarize computes a FinancialSummary over the given records.
func Summarize(records []DeliveryRecord) FinancialSummary {
	s := FinancialSummary{RecordCount: len(records)}
	for i := range records {
		r := &records[i]
		if r.IsTerminal() {
			s.TerminalCount++
		} else {
			s.OpenCount++
		}
		s.TotalItemValue += clampCost(r.ItemValue)
		s.TotalPickupCost += clampCost(r.PickupCost)
		s.TotalDeliveryFee += clampCost(r.DeliveryFee)
		s.TotalStorageCost += clampCost(r.StorageCost)
		s.TotalExpected += r.ExpectedAmount()
	}
	return s
}
