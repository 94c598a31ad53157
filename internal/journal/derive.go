// Package journal holds the pure domain logic of the trading journal:
// derived-field computation, list query construction and statistics
// aggregation. Nothing in this package touches storage or HTTP, and nothing
// here returns an error for data-shape reasons — degenerate inputs degrade
// to zero/nil outputs and validation belongs to the API boundary.
package journal

import "crypto-journal-go/internal/models"

// Field identifies a Trade attribute for dirty-field tracking on updates.
type Field int

const (
	FieldEntryPrice Field = iota
	FieldExitPrice
	FieldUsdAmount
	FieldQuantity
	FieldTradeType
)

// FieldSet is the set of fields an update actually changed. The repository
// builds it while applying a patch; the derivation engine only consumes it.
type FieldSet map[Field]struct{}

// NewFieldSet builds a set from the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Add marks a field as changed.
func (s FieldSet) Add(f Field) { s[f] = struct{}{} }

// Has reports whether the field changed.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Quantity derives the unit count from invested capital. A non-positive
// entry price yields 0 rather than an error; the engine never divides by
// zero and never rejects input.
func Quantity(usdAmount, entryPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return usdAmount / entryPrice
}

// PnL computes realized profit and loss for a closed position. It returns
// nil when any input is absent or zero-valued: an open or incomplete
// position has no realized P&L, which is not an error.
func PnL(tradeType models.TradeType, entryPrice float64, exitPrice *float64, quantity float64) *float64 {
	if tradeType == "" || entryPrice == 0 || exitPrice == nil || *exitPrice == 0 || quantity == 0 {
		return nil
	}
	var pnl float64
	if tradeType == models.TradeTypeShort {
		pnl = (entryPrice - *exitPrice) * quantity
	} else {
		pnl = (*exitPrice - entryPrice) * quantity
	}
	return &pnl
}

// Recompute refreshes the derived fields of a trade after an update, given
// the set of fields the update changed. Quantity is recomputed when the
// sizing inputs of a capital-sized trade changed; P&L is recomputed when any
// of its inputs (including a freshly derived quantity) changed.
func Recompute(t *models.Trade, dirty FieldSet) {
	quantityChanged := dirty.Has(FieldQuantity)

	if t.SizingMode == models.SizingUSD && (dirty.Has(FieldUsdAmount) || dirty.Has(FieldEntryPrice)) {
		t.Quantity = Quantity(t.UsdAmount, t.EntryPrice)
		quantityChanged = true
	}

	if quantityChanged || dirty.Has(FieldEntryPrice) || dirty.Has(FieldExitPrice) || dirty.Has(FieldTradeType) {
		t.Pnl = PnL(t.TradeType, t.EntryPrice, t.ExitPrice, t.Quantity)
	}
}
