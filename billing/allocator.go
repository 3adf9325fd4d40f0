/*
Package billing splits shared household bills into per-room charges.

PURPOSE:
  One bill per month covers media, energy, internet and shared purchases.
  Each room pays its base price plus its share of the bill:

    price = base + purchases*purchaseMultiplier
                 + (media+energy+internet)*multiplier/100

  multiplier is a percentage, purchaseMultiplier a plain factor.

ROUNDING:
  The persisted price is computed from the unrounded sum and rounded once,
  half-up, to 2 places. Breakdown rounds each component on its own for
  display; the rounded components may not add up to Total by up to 0.01
  per component. Total is always Price.

  Example: media=energy=internet=0.01, multiplier=50

    components: 0.005 -> 0.01 (x3) = 0.03
    Price:      0.015 -> 0.02

KEY CONCEPTS:
  Ingestor:  idempotent bill intake, reconciliation, acceptance toggle
  Payments:  read views of cost entries

SEE ALSO:
  - household/types.go: Bill, CostEntry
  - ingest.go
*/
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/flatmate/household-engine/household"
)

// PricePlaces is the number of fractional digits of persisted prices.
const PricePlaces = 2

var hundred = decimal.NewFromInt(100)

// Price returns what room owes for bill.
func Price(bill household.Bill, room household.Room) decimal.Decimal {
	return room.BasePrice.
		Add(purchaseShare(bill, room)).
		Add(utilityShare(bill.Utilities(), room)).
		Round(PricePlaces)
}

// Breakdown is a priced line item for presentation.
type Breakdown struct {
	Base      decimal.Decimal
	Media     decimal.Decimal
	Energy    decimal.Decimal
	Internet  decimal.Decimal
	Purchases decimal.Decimal
	Total     decimal.Decimal
}

// Allocate returns the independently rounded components and the
// authoritative Total.
func Allocate(bill household.Bill, room household.Room) Breakdown {
	return Breakdown{
		Base:      room.BasePrice.Round(PricePlaces),
		Media:     utilityShare(bill.Media, room).Round(PricePlaces),
		Energy:    utilityShare(bill.Energy, room).Round(PricePlaces),
		Internet:  utilityShare(bill.Internet, room).Round(PricePlaces),
		Purchases: purchaseShare(bill, room).Round(PricePlaces),
		Total:     Price(bill, room),
	}
}

func utilityShare(amount decimal.Decimal, room household.Room) decimal.Decimal {
	return amount.Mul(room.Multiplier).Div(hundred)
}

func purchaseShare(bill household.Bill, room household.Room) decimal.Decimal {
	return bill.Purchases.Mul(room.PurchaseMultiplier)
}

// ValidateBill checks the bill ID and that no amount is negative.
func ValidateBill(codec household.MonthlyCodec, bill household.Bill) error {
	if _, err := codec.Parse(household.PeriodID(bill.ID)); err != nil {
		return err
	}
	for _, amount := range []decimal.Decimal{bill.Media, bill.Energy, bill.Internet, bill.Purchases} {
		if amount.IsNegative() {
			return household.ErrInvalidAmount
		}
	}
	return nil
}
