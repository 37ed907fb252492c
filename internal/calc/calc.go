// Package calc is the derived-value engine shared by the three sheet types.
// Everything here is a pure function over in-memory field collections: no
// I/O, no retained state, cheap enough to re-run on every keystroke.
package calc

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/afoapp/bookkeeper/internal/domain/models"
)

// CoerceNumber parses raw user input into a decimal. Thousands separators
// (commas) are stripped first; empty or unparsable input coerces to zero so
// in-progress edits never fail a computation.
func CoerceNumber(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SumAmounts folds CoerceNumber over the selected raw amounts. An empty
// sequence sums to zero.
func SumAmounts[T any](entries []T, amount func(T) string) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(CoerceNumber(amount(e)))
	}
	return sum
}

// TraderTotals holds the derived figures of a trader sheet.
type TraderTotals struct {
	TotalExpenses decimal.Decimal
	TotalSales    decimal.Decimal
	ProfitOrLoss  decimal.Decimal
}

// Trader computes cost-of-goods plus general expenses against product sales.
func Trader(products []models.ProductDraft, general []models.ExpenseDraft) TraderTotals {
	productCosts := decimal.Zero
	sales := decimal.Zero
	for _, p := range products {
		sold := CoerceNumber(p.QuantitySold)
		productCosts = productCosts.Add(CoerceNumber(p.CostPrice).Mul(sold))
		sales = sales.Add(CoerceNumber(p.SellingPrice).Mul(sold))
	}

	expenses := productCosts.Add(SumAmounts(general, func(e models.ExpenseDraft) string { return e.Amount }))

	return TraderTotals{
		TotalExpenses: expenses,
		TotalSales:    sales,
		ProfitOrLoss:  sales.Sub(expenses),
	}
}

// SalaryTotals holds the derived figures of a salary sheet.
type SalaryTotals struct {
	DailyExpenseTotal decimal.Decimal
	TotalExpenses     decimal.Decimal
	RemainingBalance  decimal.Decimal
}

// Salary computes monthly recurring daily costs plus other expenses against
// the monthly salary.
func Salary(salary, dailyTransport, dailyLunch, workDays string, other []models.ExpenseDraft) SalaryTotals {
	daily := CoerceNumber(dailyTransport).Add(CoerceNumber(dailyLunch)).Mul(CoerceNumber(workDays))
	expenses := daily.Add(SumAmounts(other, func(e models.ExpenseDraft) string { return e.Amount }))

	return SalaryTotals{
		DailyExpenseTotal: daily,
		TotalExpenses:     expenses,
		RemainingBalance:  CoerceNumber(salary).Sub(expenses),
	}
}

// ArtisanTotals holds the derived figures of an artisan sheet.
type ArtisanTotals struct {
	TotalExpenses    decimal.Decimal
	TotalWorkmanship decimal.Decimal
	ProfitOrLoss     decimal.Decimal
}

// Artisan computes workmanship income against fixed-category expenses.
func Artisan(expenses []models.ExpenseDraft, workmanship []models.WorkEntryDraft) ArtisanTotals {
	spent := SumAmounts(expenses, func(e models.ExpenseDraft) string { return e.Amount })
	earned := SumAmounts(workmanship, func(w models.WorkEntryDraft) string { return w.Amount })

	return ArtisanTotals{
		TotalExpenses:    spent,
		TotalWorkmanship: earned,
		ProfitOrLoss:     earned.Sub(spent),
	}
}
