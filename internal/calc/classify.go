package calc

import (
	"github.com/shopspring/decimal"

	"github.com/afoapp/bookkeeper/internal/domain/models"
)

// Outcome is the three-way sign classification of a profit/loss difference.
type Outcome string

const (
	Profit    Outcome = "profit"
	Loss      Outcome = "loss"
	BreakEven Outcome = "break_even"
)

// Classification pairs an outcome with its magnitude. The magnitude is
// always non-negative; for a loss it is the absolute value of the
// difference. How the pair reads to a user is a presentation concern.
type Classification struct {
	Outcome Outcome         `json:"outcome"`
	Amount  decimal.Decimal `json:"amount"`
}

// Classify maps a signed difference onto Profit, Loss, or BreakEven.
func Classify(difference decimal.Decimal) Classification {
	switch difference.Sign() {
	case 1:
		return Classification{Outcome: Profit, Amount: difference}
	case -1:
		return Classification{Outcome: Loss, Amount: difference.Abs()}
	default:
		return Classification{Outcome: BreakEven, Amount: decimal.Zero}
	}
}

// EvaluateStock derives the remaining stock of a product and, when the
// position warrants it, an advisory for the caller to present. The returned
// remaining stock goes negative when more units were sold than stocked; it is
// never clamped. A nil advisory means the position needs no attention.
func EvaluateStock(p models.ProductDraft) (decimal.Decimal, *models.StockAdvisory) {
	initial := CoerceNumber(p.InitialStock)
	sold := CoerceNumber(p.QuantitySold)
	threshold := CoerceNumber(p.LowStockThreshold)
	remaining := initial.Sub(sold)

	switch {
	case remaining.Sign() < 0:
		return remaining, &models.StockAdvisory{
			Kind:           models.StockError,
			ProductName:    p.Name,
			InitialStock:   initial.InexactFloat64(),
			QuantitySold:   sold.InexactFloat64(),
			RemainingStock: remaining.InexactFloat64(),
		}
	case remaining.LessThanOrEqual(threshold) && initial.Sign() > 0 && sold.Sign() > 0:
		return remaining, &models.StockAdvisory{
			Kind:           models.LowStockWarning,
			ProductName:    p.Name,
			InitialStock:   initial.InexactFloat64(),
			QuantitySold:   sold.InexactFloat64(),
			RemainingStock: remaining.InexactFloat64(),
		}
	default:
		return remaining, nil
	}
}
