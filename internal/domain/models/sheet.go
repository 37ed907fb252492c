package models

import (
	"fmt"
	"time"
)

// SheetType discriminates the three supported ledger kinds.
type SheetType string

const (
	SheetTrader  SheetType = "trader"
	SheetSalary  SheetType = "salary"
	SheetArtisan SheetType = "artisan"
)

// ParseSheetType validates a raw type string coming from the outside.
func ParseSheetType(raw string) (SheetType, error) {
	switch SheetType(raw) {
	case SheetTrader, SheetSalary, SheetArtisan:
		return SheetType(raw), nil
	default:
		return "", fmt.Errorf("unknown sheet type %q", raw)
	}
}

// Product is one traded item line on a trader sheet. Monetary and quantity
// fields hold the coerced numeric values; CurrentStock may be negative when
// more units were sold than stocked (the advisory is surfaced at edit time,
// the value is persisted unclamped).
type Product struct {
	ID                string  `json:"id" bson:"id"`
	Name              string  `json:"name" bson:"name"`
	CostPrice         float64 `json:"costPrice" bson:"cost_price"`
	SellingPrice      float64 `json:"sellingPrice" bson:"selling_price"`
	InitialStock      float64 `json:"initialStock" bson:"initial_stock"`
	QuantitySold      float64 `json:"quantitySold" bson:"quantity_sold"`
	LowStockThreshold float64 `json:"lowStockThreshold" bson:"low_stock_threshold"`
	CurrentStock      float64 `json:"currentStock" bson:"current_stock"`
}

// Expense is a named amount line (general, other, or fixed-category expenses).
type Expense struct {
	ID     string  `json:"id" bson:"id"`
	Name   string  `json:"name" bson:"name"`
	Amount float64 `json:"amount" bson:"amount"`
}

// WorkEntry is one workmanship income line on an artisan sheet.
type WorkEntry struct {
	ID          string  `json:"id" bson:"id"`
	Description string  `json:"description" bson:"description"`
	Amount      float64 `json:"amount" bson:"amount"`
}

// TraderData is the trader-specific sheet payload.
type TraderData struct {
	Products        []Product `json:"products" bson:"products"`
	GeneralExpenses []Expense `json:"generalExpenses" bson:"general_expenses"`
}

// SalaryData is the salary-earner-specific sheet payload.
type SalaryData struct {
	Salary             float64   `json:"salary" bson:"salary"`
	DailyTransportCost float64   `json:"dailyTransportCost" bson:"daily_transport_cost"`
	DailyLunchCost     float64   `json:"dailyLunchCost" bson:"daily_lunch_cost"`
	WorkDaysMonthly    float64   `json:"workDaysMonthly" bson:"work_days_monthly"`
	OtherExpenses      []Expense `json:"otherExpenses" bson:"other_expenses"`
}

// ArtisanData is the artisan-specific sheet payload.
type ArtisanData struct {
	Expenses    []Expense   `json:"expenses" bson:"expenses"`
	Workmanship []WorkEntry `json:"workmanship" bson:"workmanship"`
}

// Sheet is the persisted ledger record. Exactly one of the per-type payloads
// is populated, matching Type. The three totals are a snapshot computed at
// save time; they are never recomputed on read.
type Sheet struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Type      SheetType `json:"type" bson:"type"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`

	TotalIncome   float64 `json:"totalIncome" bson:"total_income"`
	TotalExpenses float64 `json:"totalExpenses" bson:"total_expenses"`
	ProfitOrLoss  float64 `json:"profitOrLoss" bson:"profit_or_loss"`

	Trader  *TraderData  `json:"trader,omitempty" bson:"trader,omitempty"`
	Salary  *SalaryData  `json:"salary,omitempty" bson:"salary,omitempty"`
	Artisan *ArtisanData `json:"artisan,omitempty" bson:"artisan,omitempty"`
}

// Summary is the listing projection of a sheet.
type Summary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Type          SheetType `json:"type"`
	TotalIncome   float64   `json:"totalIncome"`
	TotalExpenses float64   `json:"totalExpenses"`
	ProfitOrLoss  float64   `json:"profitOrLoss"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Summarize projects the sheet onto its listing form.
func (s *Sheet) Summarize() Summary {
	return Summary{
		ID:            s.ID,
		Title:         s.Title,
		Type:          s.Type,
		TotalIncome:   s.TotalIncome,
		TotalExpenses: s.TotalExpenses,
		ProfitOrLoss:  s.ProfitOrLoss,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// SheetPatch carries the fields a save overwrites on a sheet record. Nil
// fields are left untouched; the merge is explicit per field rather than a
// dynamic map merge so each record shape stays typed.
type SheetPatch struct {
	Title         *string
	Type          *SheetType
	TotalIncome   *float64
	TotalExpenses *float64
	ProfitOrLoss  *float64
	Trader        *TraderData
	Salary        *SalaryData
	Artisan       *ArtisanData
}

// Apply merges the patch over the sheet, field by field.
func (p SheetPatch) Apply(s *Sheet) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.TotalIncome != nil {
		s.TotalIncome = *p.TotalIncome
	}
	if p.TotalExpenses != nil {
		s.TotalExpenses = *p.TotalExpenses
	}
	if p.ProfitOrLoss != nil {
		s.ProfitOrLoss = *p.ProfitOrLoss
	}
	if p.Trader != nil {
		s.Trader = p.Trader
	}
	if p.Salary != nil {
		s.Salary = p.Salary
	}
	if p.Artisan != nil {
		s.Artisan = p.Artisan
	}
}
