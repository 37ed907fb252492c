package models

import "strconv"

// Draft types hold in-progress form state. Every numeric field keeps the raw
// user-entered text verbatim, malformed input included; coercion to numbers
// happens only inside the calculation engine.

// ProductDraft mirrors Product with raw string fields. CurrentStock is kept
// numeric because it is derived, never typed by the user.
type ProductDraft struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	CostPrice         string  `json:"costPrice"`
	SellingPrice      string  `json:"sellingPrice"`
	InitialStock      string  `json:"initialStock"`
	QuantitySold      string  `json:"quantitySold"`
	LowStockThreshold string  `json:"lowStockThreshold"`
	CurrentStock      float64 `json:"currentStock"`
}

// ExpenseDraft mirrors Expense with a raw amount.
type ExpenseDraft struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// WorkEntryDraft mirrors WorkEntry with a raw amount.
type WorkEntryDraft struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// SheetDraft is the editable state of one sheet of any type. Only the field
// groups matching Type are used.
type SheetDraft struct {
	Title string    `json:"title"`
	Type  SheetType `json:"type"`

	// Trader fields.
	Products        []ProductDraft `json:"products,omitempty"`
	GeneralExpenses []ExpenseDraft `json:"generalExpenses,omitempty"`

	// Salary fields.
	Salary             string         `json:"salary,omitempty"`
	DailyTransportCost string         `json:"dailyTransportCost,omitempty"`
	DailyLunchCost     string         `json:"dailyLunchCost,omitempty"`
	WorkDaysMonthly    string         `json:"workDaysMonthly,omitempty"`
	OtherExpenses      []ExpenseDraft `json:"otherExpenses,omitempty"`

	// Artisan fields.
	Expenses    []ExpenseDraft   `json:"expenses,omitempty"`
	Workmanship []WorkEntryDraft `json:"workmanship,omitempty"`
}

// DraftFromSheet rebuilds editable form state from a persisted record,
// rendering the stored numbers back to plain decimal strings.
func DraftFromSheet(s *Sheet) SheetDraft {
	draft := SheetDraft{Title: s.Title, Type: s.Type}

	switch {
	case s.Trader != nil:
		for _, p := range s.Trader.Products {
			draft.Products = append(draft.Products, ProductDraft{
				ID:                p.ID,
				Name:              p.Name,
				CostPrice:         formatAmount(p.CostPrice),
				SellingPrice:      formatAmount(p.SellingPrice),
				InitialStock:      formatAmount(p.InitialStock),
				QuantitySold:      formatAmount(p.QuantitySold),
				LowStockThreshold: formatAmount(p.LowStockThreshold),
				CurrentStock:      p.CurrentStock,
			})
		}
		draft.GeneralExpenses = expenseDrafts(s.Trader.GeneralExpenses)
	case s.Salary != nil:
		draft.Salary = formatAmount(s.Salary.Salary)
		draft.DailyTransportCost = formatAmount(s.Salary.DailyTransportCost)
		draft.DailyLunchCost = formatAmount(s.Salary.DailyLunchCost)
		draft.WorkDaysMonthly = formatAmount(s.Salary.WorkDaysMonthly)
		draft.OtherExpenses = expenseDrafts(s.Salary.OtherExpenses)
	case s.Artisan != nil:
		draft.Expenses = expenseDrafts(s.Artisan.Expenses)
		for _, w := range s.Artisan.Workmanship {
			draft.Workmanship = append(draft.Workmanship, WorkEntryDraft{
				ID:          w.ID,
				Description: w.Description,
				Amount:      formatAmount(w.Amount),
			})
		}
	}

	return draft
}

func expenseDrafts(expenses []Expense) []ExpenseDraft {
	drafts := make([]ExpenseDraft, 0, len(expenses))
	for _, e := range expenses {
		drafts = append(drafts, ExpenseDraft{ID: e.ID, Name: e.Name, Amount: formatAmount(e.Amount)})
	}
	return drafts
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
