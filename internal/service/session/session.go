// Package session bridges user form input to the calculation engine and the
// sheet repository for one sheet at a time. It keeps every numeric field as
// the raw entered text so in-progress or malformed input is never lost, and
// only coerces to numbers when deriving totals or saving.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/afoapp/bookkeeper/internal/calc"
	"github.com/afoapp/bookkeeper/internal/domain/models"
	"github.com/afoapp/bookkeeper/internal/repository"
)

// Section identifies a field group on the sheet form.
type Section string

const (
	SectionTitle           Section = "title"
	SectionProducts        Section = "products"
	SectionGeneralExpenses Section = "generalExpenses"
	SectionSalary          Section = "salary"
	SectionOtherExpenses   Section = "otherExpenses"
	SectionExpenses        Section = "expenses"
	SectionWorkmanship     Section = "workmanship"
)

// FieldRef addresses one editable field: a section, the line item within it
// (empty for scalar sections), and the field name on that item.
type FieldRef struct {
	Section Section
	ItemID  string
	Field   string
}

// ErrUnknownField indicates the field reference does not resolve on this
// sheet type.
var ErrUnknownField = errors.New("unknown field")

// ErrUnknownLineItem indicates the referenced line item does not exist.
var ErrUnknownLineItem = errors.New("unknown line item")

// ErrNotRemovable indicates the section does not support removing line items
// on this sheet type.
var ErrNotRemovable = errors.New("line item removal not supported")

// ErrNotAppendable indicates the section does not support adding line items
// on this sheet type.
var ErrNotAppendable = errors.New("line item append not supported")

// Snapshot is the derived numeric state of the form, recomputed from the raw
// fields on demand.
type Snapshot struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	ProfitOrLoss  decimal.Decimal
}

// Session is the editing state of one sheet.
type Session struct {
	repo       repository.SheetRepository
	logger     *zap.Logger
	draft      models.SheetDraft
	existingID string
	symbol     string
	now        func() time.Time
	newID      func() string
}

// New starts a fresh session of the given type, seeded with the fixed
// default line items and a dated title.
func New(repo repository.SheetRepository, sheetType models.SheetType, symbol string, logger *zap.Logger) *Session {
	s := newSession(repo, symbol, logger)
	s.draft = models.DefaultDraft(sheetType, s.now(), s.newID)
	return s
}

// FromDraft starts a fresh session over externally supplied form state, as
// submitted by a client in one piece.
func FromDraft(repo repository.SheetRepository, draft models.SheetDraft, symbol string, logger *zap.Logger) (*Session, error) {
	if _, err := models.ParseSheetType(string(draft.Type)); err != nil {
		return nil, err
	}
	s := newSession(repo, symbol, logger)
	s.draft = draft
	return s, nil
}

// Load opens a session over an existing sheet. A missing record surfaces as
// repository.ErrNotFound; a corrupt record is logged and reported the same
// way so the caller can offer a fresh start.
func Load(ctx context.Context, repo repository.SheetRepository, id, symbol string, logger *zap.Logger) (*Session, error) {
	s := newSession(repo, symbol, logger)

	sheet, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCorrupt) {
			s.logger.Warn("sheet record corrupt, treating as missing", zap.String("id", id), zap.Error(err))
			return nil, fmt.Errorf("sheet %s: %w", id, repository.ErrNotFound)
		}
		return nil, err
	}

	s.draft = models.DraftFromSheet(sheet)
	s.existingID = id
	return s, nil
}

func newSession(repo repository.SheetRepository, symbol string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		repo:   repo,
		logger: logger,
		symbol: symbol,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Draft returns a copy of the current form state.
func (s *Session) Draft() models.SheetDraft { return s.draft }

// ID returns the persisted sheet id, empty while the sheet is still new.
func (s *Session) ID() string { return s.existingID }

// IsExisting reports whether Save will update rather than create.
func (s *Session) IsExisting() bool { return s.existingID != "" }

// CurrencySymbol returns the display symbol resolved at session start.
func (s *Session) CurrencySymbol() string { return s.symbol }

// ReplaceDraft swaps in newly submitted form state for an already loaded
// sheet, keeping the persisted type.
func (s *Session) ReplaceDraft(draft models.SheetDraft) error {
	if draft.Type != "" && draft.Type != s.draft.Type {
		return fmt.Errorf("sheet type is fixed at creation: have %s, got %s", s.draft.Type, draft.Type)
	}
	draft.Type = s.draft.Type
	s.draft = draft
	return nil
}

// UpdateField stores the raw text for the referenced field. When the change
// participates in stock evaluation the advisory (if any) is returned; it
// never blocks the update.
func (s *Session) UpdateField(ref FieldRef, raw string) (*models.StockAdvisory, error) {
	switch ref.Section {
	case SectionTitle:
		s.draft.Title = raw
		return nil, nil
	case SectionProducts:
		return s.updateProductField(ref, raw)
	case SectionGeneralExpenses:
		return nil, s.updateExpenseField(s.draft.GeneralExpenses, models.SheetTrader, ref, raw)
	case SectionSalary:
		return nil, s.updateSalaryField(ref, raw)
	case SectionOtherExpenses:
		return nil, s.updateExpenseField(s.draft.OtherExpenses, models.SheetSalary, ref, raw)
	case SectionExpenses:
		return nil, s.updateExpenseField(s.draft.Expenses, models.SheetArtisan, ref, raw)
	case SectionWorkmanship:
		return nil, s.updateWorkmanshipField(ref, raw)
	default:
		return nil, fmt.Errorf("%w: section %q", ErrUnknownField, ref.Section)
	}
}

func (s *Session) updateProductField(ref FieldRef, raw string) (*models.StockAdvisory, error) {
	if s.draft.Type != models.SheetTrader {
		return nil, fmt.Errorf("%w: %s sheets have no products", ErrUnknownField, s.draft.Type)
	}

	var product *models.ProductDraft
	for i := range s.draft.Products {
		if s.draft.Products[i].ID == ref.ItemID {
			product = &s.draft.Products[i]
			break
		}
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %q", ErrUnknownLineItem, ref.ItemID)
	}

	stockRelevant := false
	switch ref.Field {
	case "name":
		product.Name = raw
	case "costPrice":
		product.CostPrice = raw
	case "sellingPrice":
		product.SellingPrice = raw
	case "initialStock":
		product.InitialStock = raw
		stockRelevant = true
	case "quantitySold":
		product.QuantitySold = raw
		stockRelevant = true
	case "lowStockThreshold":
		product.LowStockThreshold = raw
		stockRelevant = true
	default:
		return nil, fmt.Errorf("%w: product field %q", ErrUnknownField, ref.Field)
	}

	if !stockRelevant {
		return nil, nil
	}

	remaining, advisory := calc.EvaluateStock(*product)
	product.CurrentStock = remaining.InexactFloat64()
	return advisory, nil
}

func (s *Session) updateExpenseField(expenses []models.ExpenseDraft, wantType models.SheetType, ref FieldRef, raw string) error {
	if s.draft.Type != wantType {
		return fmt.Errorf("%w: section %q not on %s sheets", ErrUnknownField, ref.Section, s.draft.Type)
	}

	for i := range expenses {
		if expenses[i].ID != ref.ItemID {
			continue
		}
		switch ref.Field {
		case "name":
			expenses[i].Name = raw
		case "amount":
			expenses[i].Amount = raw
		default:
			return fmt.Errorf("%w: expense field %q", ErrUnknownField, ref.Field)
		}
		return nil
	}
	return fmt.Errorf("%w: expense %q", ErrUnknownLineItem, ref.ItemID)
}

func (s *Session) updateSalaryField(ref FieldRef, raw string) error {
	if s.draft.Type != models.SheetSalary {
		return fmt.Errorf("%w: salary fields not on %s sheets", ErrUnknownField, s.draft.Type)
	}

	switch ref.Field {
	case "salary":
		s.draft.Salary = raw
	case "dailyTransportCost":
		s.draft.DailyTransportCost = raw
	case "dailyLunchCost":
		s.draft.DailyLunchCost = raw
	case "workDaysMonthly":
		s.draft.WorkDaysMonthly = raw
	default:
		return fmt.Errorf("%w: salary field %q", ErrUnknownField, ref.Field)
	}
	return nil
}

func (s *Session) updateWorkmanshipField(ref FieldRef, raw string) error {
	if s.draft.Type != models.SheetArtisan {
		return fmt.Errorf("%w: workmanship not on %s sheets", ErrUnknownField, s.draft.Type)
	}

	for i := range s.draft.Workmanship {
		if s.draft.Workmanship[i].ID != ref.ItemID {
			continue
		}
		switch ref.Field {
		case "description":
			s.draft.Workmanship[i].Description = raw
		case "amount":
			s.draft.Workmanship[i].Amount = raw
		default:
			return fmt.Errorf("%w: work entry field %q", ErrUnknownField, ref.Field)
		}
		return nil
	}
	return fmt.Errorf("%w: work entry %q", ErrUnknownLineItem, ref.ItemID)
}

// AddLineItem appends a blank entry to the section and returns its generated
// id. Ordering is append-only. Each type exposes exactly one growable
// section, matching the forms: products, other expenses, or work entries.
func (s *Session) AddLineItem(section Section) (string, error) {
	id := s.newID()

	switch {
	case section == SectionProducts && s.draft.Type == models.SheetTrader:
		s.draft.Products = append(s.draft.Products, models.ProductDraft{ID: id, LowStockThreshold: "5"})
	case section == SectionOtherExpenses && s.draft.Type == models.SheetSalary:
		s.draft.OtherExpenses = append(s.draft.OtherExpenses, models.ExpenseDraft{ID: id})
	case section == SectionWorkmanship && s.draft.Type == models.SheetArtisan:
		s.draft.Workmanship = append(s.draft.Workmanship, models.WorkEntryDraft{ID: id})
	default:
		return "", fmt.Errorf("%w: section %q on %s sheets", ErrNotAppendable, section, s.draft.Type)
	}
	return id, nil
}

// RemoveLineItem removes an entry by id. Only the salary sheet's other
// expenses expose removal; it is a per-type capability, not a universal one.
func (s *Session) RemoveLineItem(section Section, id string) error {
	if section != SectionOtherExpenses || s.draft.Type != models.SheetSalary {
		return fmt.Errorf("%w: section %q on %s sheets", ErrNotRemovable, section, s.draft.Type)
	}

	for i := range s.draft.OtherExpenses {
		if s.draft.OtherExpenses[i].ID == id {
			s.draft.OtherExpenses = append(s.draft.OtherExpenses[:i], s.draft.OtherExpenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: expense %q", ErrUnknownLineItem, id)
}

// Totals recomputes the derived numeric state from the raw fields.
func (s *Session) Totals() Snapshot {
	switch s.draft.Type {
	case models.SheetTrader:
		t := calc.Trader(s.draft.Products, s.draft.GeneralExpenses)
		return Snapshot{TotalIncome: t.TotalSales, TotalExpenses: t.TotalExpenses, ProfitOrLoss: t.ProfitOrLoss}
	case models.SheetSalary:
		t := calc.Salary(s.draft.Salary, s.draft.DailyTransportCost, s.draft.DailyLunchCost, s.draft.WorkDaysMonthly, s.draft.OtherExpenses)
		return Snapshot{TotalIncome: calc.CoerceNumber(s.draft.Salary), TotalExpenses: t.TotalExpenses, ProfitOrLoss: t.RemainingBalance}
	case models.SheetArtisan:
		t := calc.Artisan(s.draft.Expenses, s.draft.Workmanship)
		return Snapshot{TotalIncome: t.TotalWorkmanship, TotalExpenses: t.TotalExpenses, ProfitOrLoss: t.ProfitOrLoss}
	default:
		return Snapshot{TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero, ProfitOrLoss: decimal.Zero}
	}
}

// StockAdvisories evaluates every product's stock position, for callers that
// submit a whole form at once instead of editing field by field.
func (s *Session) StockAdvisories() []models.StockAdvisory {
	var advisories []models.StockAdvisory
	for _, p := range s.draft.Products {
		if _, advisory := calc.EvaluateStock(p); advisory != nil {
			advisories = append(advisories, *advisory)
		}
	}
	return advisories
}

// Save computes the final numeric snapshot and persists it, creating or
// updating depending on how the session started. The classification is
// returned for presentation; only the numbers are stored. On failure the
// draft state is untouched so the caller can retry.
func (s *Session) Save(ctx context.Context) (string, calc.Classification, error) {
	snapshot := s.Totals()
	patch := s.buildPatch(snapshot)

	var (
		id  string
		err error
	)
	if s.IsExisting() {
		id, err = s.repo.Update(ctx, s.existingID, patch)
	} else {
		id, err = s.repo.Create(ctx, s.draft.Type, patch)
	}
	if err != nil {
		s.logger.Error("failed to save sheet", zap.String("type", string(s.draft.Type)), zap.Error(err))
		return "", calc.Classification{}, fmt.Errorf("save sheet: %w", err)
	}

	s.existingID = id
	s.logger.Info("sheet saved",
		zap.String("id", id),
		zap.String("type", string(s.draft.Type)),
		zap.Float64("profit_or_loss", snapshot.ProfitOrLoss.InexactFloat64()))

	return id, calc.Classify(snapshot.ProfitOrLoss), nil
}

func (s *Session) buildPatch(snapshot Snapshot) models.SheetPatch {
	title := s.draft.Title
	sheetType := s.draft.Type
	income := snapshot.TotalIncome.InexactFloat64()
	expenses := snapshot.TotalExpenses.InexactFloat64()
	profit := snapshot.ProfitOrLoss.InexactFloat64()

	patch := models.SheetPatch{
		Title:         &title,
		Type:          &sheetType,
		TotalIncome:   &income,
		TotalExpenses: &expenses,
		ProfitOrLoss:  &profit,
	}

	switch sheetType {
	case models.SheetTrader:
		patch.Trader = s.buildTraderData()
	case models.SheetSalary:
		patch.Salary = s.buildSalaryData()
	case models.SheetArtisan:
		patch.Artisan = s.buildArtisanData()
	}
	return patch
}

func (s *Session) buildTraderData() *models.TraderData {
	data := &models.TraderData{
		Products:        make([]models.Product, 0, len(s.draft.Products)),
		GeneralExpenses: coerceExpenses(s.draft.GeneralExpenses),
	}
	for _, p := range s.draft.Products {
		remaining, _ := calc.EvaluateStock(p)
		data.Products = append(data.Products, models.Product{
			ID:                p.ID,
			Name:              p.Name,
			CostPrice:         calc.CoerceNumber(p.CostPrice).InexactFloat64(),
			SellingPrice:      calc.CoerceNumber(p.SellingPrice).InexactFloat64(),
			InitialStock:      calc.CoerceNumber(p.InitialStock).InexactFloat64(),
			QuantitySold:      calc.CoerceNumber(p.QuantitySold).InexactFloat64(),
			LowStockThreshold: calc.CoerceNumber(p.LowStockThreshold).InexactFloat64(),
			CurrentStock:      remaining.InexactFloat64(),
		})
	}
	return data
}

func (s *Session) buildSalaryData() *models.SalaryData {
	return &models.SalaryData{
		Salary:             calc.CoerceNumber(s.draft.Salary).InexactFloat64(),
		DailyTransportCost: calc.CoerceNumber(s.draft.DailyTransportCost).InexactFloat64(),
		DailyLunchCost:     calc.CoerceNumber(s.draft.DailyLunchCost).InexactFloat64(),
		WorkDaysMonthly:    calc.CoerceNumber(s.draft.WorkDaysMonthly).InexactFloat64(),
		OtherExpenses:      coerceExpenses(s.draft.OtherExpenses),
	}
}

func (s *Session) buildArtisanData() *models.ArtisanData {
	data := &models.ArtisanData{
		Expenses:    coerceExpenses(s.draft.Expenses),
		Workmanship: make([]models.WorkEntry, 0, len(s.draft.Workmanship)),
	}
	for _, w := range s.draft.Workmanship {
		data.Workmanship = append(data.Workmanship, models.WorkEntry{
			ID:          w.ID,
			Description: w.Description,
			Amount:      calc.CoerceNumber(w.Amount).InexactFloat64(),
		})
	}
	return data
}

func coerceExpenses(drafts []models.ExpenseDraft) []models.Expense {
	expenses := make([]models.Expense, 0, len(drafts))
	for _, e := range drafts {
		expenses = append(expenses, models.Expense{
			ID:     e.ID,
			Name:   e.Name,
			Amount: calc.CoerceNumber(e.Amount).InexactFloat64(),
		})
	}
	return expenses
}

// WithClock overrides the timestamp source, for tests.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// WithIDGenerator overrides the id source, for tests.
func (s *Session) WithIDGenerator(newID func() string) *Session {
	s.newID = newID
	return s
}
