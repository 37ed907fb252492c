package models

import (
	"fmt"
	"time"
)

const titleDateLayout = "02 Jan 2006"

// DefaultDraft seeds the fixed placeholder line items for a fresh sheet of
// the given type. Line-item identifiers come from newID except for the fixed
// expense categories, which keep stable ids.
func DefaultDraft(t SheetType, now time.Time, newID func() string) SheetDraft {
	draft := SheetDraft{Type: t}

	switch t {
	case SheetTrader:
		draft.Title = defaultTitle("Trader", now)
		draft.Products = []ProductDraft{{ID: newID(), LowStockThreshold: "5"}}
		draft.GeneralExpenses = []ExpenseDraft{
			{ID: "light", Name: "Light Bills"},
			{ID: "repairs", Name: "Repairs"},
			{ID: "utility", Name: "Utility Bills"},
			{ID: "wages", Name: "Staff Wages"},
		}
	case SheetSalary:
		draft.Title = defaultTitle("Salary", now)
		draft.OtherExpenses = []ExpenseDraft{
			{ID: "rent", Name: "Rent"},
			{ID: "subscriptions", Name: "Subscriptions"},
		}
	case SheetArtisan:
		draft.Title = defaultTitle("Artisan", now)
		draft.Expenses = []ExpenseDraft{
			{ID: "logistics", Name: "Logistics"},
			{ID: "phone", Name: "Phone Calls"},
			{ID: "feeding", Name: "Feeding"},
		}
		draft.Workmanship = []WorkEntryDraft{{ID: newID()}}
	}

	return draft
}

func defaultTitle(kind string, now time.Time) string {
	return fmt.Sprintf("New %s Sheet - %s", kind, now.Format(titleDateLayout))
}
