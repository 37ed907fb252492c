package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afoapp/bookkeeper/internal/calc"
	"github.com/afoapp/bookkeeper/internal/domain/models"
	"github.com/afoapp/bookkeeper/internal/kvstore"
	"github.com/afoapp/bookkeeper/internal/repository"
	"github.com/afoapp/bookkeeper/internal/repository/localkv"
)

func newFixture(t *testing.T) (*localkv.SheetRepository, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	repo := localkv.NewSheetRepository(store, nil).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	return repo, store
}

func TestNewSeedsTraderDefaults(t *testing.T) {
	repo, _ := newFixture(t)
	s := New(repo, models.SheetTrader, "₦", nil)

	draft := s.Draft()
	assert.True(t, strings.HasPrefix(draft.Title, "New Trader Sheet - "), draft.Title)
	require.Len(t, draft.Products, 1)
	assert.Equal(t, "5", draft.Products[0].LowStockThreshold)
	require.Len(t, draft.GeneralExpenses, 4)
	assert.Equal(t, "Light Bills", draft.GeneralExpenses[0].Name)
	assert.False(t, s.IsExisting())
	assert.Equal(t, "₦", s.CurrencySymbol())
}

func TestNewSeedsSalaryAndArtisanDefaults(t *testing.T) {
	repo, _ := newFixture(t)

	salary := New(repo, models.SheetSalary, "₦", nil).Draft()
	require.Len(t, salary.OtherExpenses, 2)
	assert.Equal(t, "Rent", salary.OtherExpenses[0].Name)
	assert.Equal(t, "Subscriptions", salary.OtherExpenses[1].Name)

	artisan := New(repo, models.SheetArtisan, "₦", nil).Draft()
	require.Len(t, artisan.Expenses, 3)
	assert.Equal(t, []string{"Logistics", "Phone Calls", "Feeding"},
		[]string{artisan.Expenses[0].Name, artisan.Expenses[1].Name, artisan.Expenses[2].Name})
	require.Len(t, artisan.Workmanship, 1)
	assert.NotEmpty(t, artisan.Workmanship[0].ID)
}

func TestUpdateFieldKeepsRawText(t *testing.T) {
	repo, _ := newFixture(t)
	s := New(repo, models.SheetTrader, "₦", nil)
	productID := s.Draft().Products[0].ID

	advisory, err := s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: "costPrice"}, "12abc")
	require.NoError(t, err)
	assert.Nil(t, advisory)
	assert.Equal(t, "12abc", s.Draft().Products[0].CostPrice)

	// Malformed input coerces to zero in totals without being lost.
	assert.True(t, s.Totals().TotalExpenses.IsZero())
}

func TestUpdateFieldEmitsStockAdvisories(t *testing.T) {
	repo, _ := newFixture(t)
	s := New(repo, models.SheetTrader, "₦", nil)
	productID := s.Draft().Products[0].ID

	_, err := s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: "name"}, "Rice")
	require.NoError(t, err)
	_, err = s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: "initialStock"}, "10")
	require.NoError(t, err)

	advisory, err := s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: "quantitySold"}, "12")
	require.NoError(t, err)
	require.NotNil(t, advisory)
	assert.Equal(t, models.StockError, advisory.Kind)
	assert.Equal(t, "Rice", advisory.ProductName)
	// The negative value is written through, not clamped.
	assert.Equal(t, -2.0, s.Draft().Products[0].CurrentStock)

	advisory, err = s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: "quantitySold"}, "9")
	require.NoError(t, err)
	require.NotNil(t, advisory)
	assert.Equal(t, models.LowStockWarning, advisory.Kind)
	assert.Equal(t, 1.0, advisory.RemainingStock)

	advisory, err = s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: "quantitySold"}, "2")
	require.NoError(t, err)
	assert.Nil(t, advisory)
	assert.Equal(t, 8.0, s.Draft().Products[0].CurrentStock)
}

func TestUpdateFieldRejectsWrongSection(t *testing.T) {
	repo, _ := newFixture(t)
	s := New(repo, models.SheetSalary, "₦", nil)

	_, err := s.UpdateField(FieldRef{Section: SectionProducts, ItemID: "x", Field: "name"}, "y")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = s.UpdateField(FieldRef{Section: SectionOtherExpenses, ItemID: "ghost", Field: "amount"}, "5")
	assert.ErrorIs(t, err, ErrUnknownLineItem)
}

func TestAddLineItemPerType(t *testing.T) {
	repo, _ := newFixture(t)

	trader := New(repo, models.SheetTrader, "₦", nil)
	id, err := trader.AddLineItem(SectionProducts)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, trader.Draft().Products, 2)
	// Appended, never reordered.
	assert.Equal(t, id, trader.Draft().Products[1].ID)

	_, err = trader.AddLineItem(SectionGeneralExpenses)
	assert.ErrorIs(t, err, ErrNotAppendable)

	salary := New(repo, models.SheetSalary, "₦", nil)
	_, err = salary.AddLineItem(SectionOtherExpenses)
	require.NoError(t, err)
	assert.Len(t, salary.Draft().OtherExpenses, 3)

	artisan := New(repo, models.SheetArtisan, "₦", nil)
	_, err = artisan.AddLineItem(SectionWorkmanship)
	require.NoError(t, err)
	assert.Len(t, artisan.Draft().Workmanship, 2)
}

func TestRemoveLineItemIsSalaryOnly(t *testing.T) {
	repo, _ := newFixture(t)

	salary := New(repo, models.SheetSalary, "₦", nil)
	require.NoError(t, salary.RemoveLineItem(SectionOtherExpenses, "rent"))
	assert.Len(t, salary.Draft().OtherExpenses, 1)
	assert.ErrorIs(t, salary.RemoveLineItem(SectionOtherExpenses, "rent"), ErrUnknownLineItem)

	trader := New(repo, models.SheetTrader, "₦", nil)
	productID := trader.Draft().Products[0].ID
	assert.ErrorIs(t, trader.RemoveLineItem(SectionProducts, productID), ErrNotRemovable)

	artisan := New(repo, models.SheetArtisan, "₦", nil)
	assert.ErrorIs(t, artisan.RemoveLineItem(SectionWorkmanship, artisan.Draft().Workmanship[0].ID), ErrNotRemovable)
}

func TestSaveTraderComputesSnapshotAndClassifies(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	s := New(repo, models.SheetTrader, "₦", nil)
	productID := s.Draft().Products[0].ID

	for field, value := range map[string]string{
		"name":         "Rice",
		"costPrice":    "10",
		"sellingPrice": "15",
		"initialStock": "10",
		"quantitySold": "2",
	} {
		_, err := s.UpdateField(FieldRef{Section: SectionProducts, ItemID: productID, Field: field}, value)
		require.NoError(t, err)
	}
	_, err := s.UpdateField(FieldRef{Section: SectionGeneralExpenses, ItemID: "light", Field: "amount"}, "5")
	require.NoError(t, err)

	id, cls, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, calc.Profit, cls.Outcome)
	assert.True(t, cls.Amount.Equal(decimal.NewFromInt(5)), "amount %s", cls.Amount)
	assert.True(t, s.IsExisting())

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stored.TotalIncome)
	assert.Equal(t, 25.0, stored.TotalExpenses)
	assert.Equal(t, 5.0, stored.ProfitOrLoss)
	require.NotNil(t, stored.Trader)
	require.Len(t, stored.Trader.Products, 1)
	assert.Equal(t, 8.0, stored.Trader.Products[0].CurrentStock)
	require.Len(t, stored.Trader.GeneralExpenses, 4)
	assert.Equal(t, 5.0, stored.Trader.GeneralExpenses[0].Amount)
}

func TestSaveSalarySnapshot(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()
	s := New(repo, models.SheetSalary, "₦", nil)

	for field, value := range map[string]string{
		"salary":             "1000",
		"dailyTransportCost": "10",
		"dailyLunchCost":     "5",
		"workDaysMonthly":    "20",
	} {
		_, err := s.UpdateField(FieldRef{Section: SectionSalary, Field: field}, value)
		require.NoError(t, err)
	}
	_, err := s.UpdateField(FieldRef{Section: SectionOtherExpenses, ItemID: "rent", Field: "amount"}, "50")
	require.NoError(t, err)

	id, cls, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, calc.Profit, cls.Outcome)
	assert.True(t, cls.Amount.Equal(decimal.NewFromInt(650)))

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.TotalIncome)
	assert.Equal(t, 350.0, stored.TotalExpenses)
	assert.Equal(t, 650.0, stored.ProfitOrLoss)
	require.NotNil(t, stored.Salary)
	assert.Equal(t, 20.0, stored.Salary.WorkDaysMonthly)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	repo, _ := newFixture(t)
	ctx := context.Background()

	s := New(repo, models.SheetArtisan, "₦", nil)
	_, err := s.UpdateField(FieldRef{Section: SectionExpenses, ItemID: "logistics", Field: "amount"}, "200")
	require.NoError(t, err)
	workID := s.Draft().Workmanship[0].ID
	_, err = s.UpdateField(FieldRef{Section: SectionWorkmanship, ItemID: workID, Field: "amount"}, "250")
	require.NoError(t, err)

	id, _, err := s.Save(ctx)
	require.NoError(t, err)

	loaded, err := Load(ctx, repo, id, "₦", nil)
	require.NoError(t, err)
	assert.True(t, loaded.IsExisting())
	draft := loaded.Draft()
	assert.Equal(t, models.SheetArtisan, draft.Type)
	require.Len(t, draft.Expenses, 3)
	assert.Equal(t, "200", draft.Expenses[0].Amount)
	require.Len(t, draft.Workmanship, 1)
	assert.Equal(t, "250", draft.Workmanship[0].Amount)

	// Saving again updates in place.
	_, err = loaded.UpdateField(FieldRef{Section: SectionTitle}, "Reworked")
	require.NoError(t, err)
	sameID, _, err := loaded.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, sameID)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Reworked", stored.Title)
}

func TestLoadMissingSheet(t *testing.T) {
	repo, _ := newFixture(t)

	_, err := Load(context.Background(), repo, "ghost", "₦", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoadCorruptSheetReportsNotFound(t *testing.T) {
	repo, store := newFixture(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sheets:item:rotten", "not json"))

	_, err := Load(ctx, repo, "rotten", "₦", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveFailureKeepsDraftForRetry(t *testing.T) {
	repo, store := newFixture(t)
	ctx := context.Background()
	boom := errors.New("quota exceeded")

	s := New(repo, models.SheetSalary, "₦", nil)
	_, err := s.UpdateField(FieldRef{Section: SectionSalary, Field: "salary"}, "1000")
	require.NoError(t, err)

	store.FailWrites(boom)
	_, _, err = s.Save(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.IsExisting())
	// The form state survives for a retry.
	assert.Equal(t, "1000", s.Draft().Salary)

	store.FailWrites(nil)
	id, cls, err := s.Save(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, calc.Profit, cls.Outcome)
}

func TestFromDraftValidatesType(t *testing.T) {
	repo, _ := newFixture(t)

	_, err := FromDraft(repo, models.SheetDraft{Type: "budget"}, "₦", nil)
	assert.Error(t, err)

	s, err := FromDraft(repo, models.SheetDraft{Type: models.SheetTrader, Title: "T"}, "₦", nil)
	require.NoError(t, err)
	assert.Equal(t, "T", s.Draft().Title)
}

func TestStockAdvisoriesOverWholeDraft(t *testing.T) {
	repo, _ := newFixture(t)
	draft := models.SheetDraft{
		Type: models.SheetTrader,
		Products: []models.ProductDraft{
			{ID: "a", Name: "Rice", InitialStock: "10", QuantitySold: "12"},
			{ID: "b", Name: "Beans", InitialStock: "10", QuantitySold: "2", LowStockThreshold: "5"},
			{ID: "c", Name: "Garri", InitialStock: "10", QuantitySold: "9", LowStockThreshold: "5"},
		},
	}

	s, err := FromDraft(repo, draft, "₦", nil)
	require.NoError(t, err)

	advisories := s.StockAdvisories()
	require.Len(t, advisories, 2)
	assert.Equal(t, models.StockError, advisories[0].Kind)
	assert.Equal(t, "Rice", advisories[0].ProductName)
	assert.Equal(t, models.LowStockWarning, advisories[1].Kind)
	assert.Equal(t, "Garri", advisories[1].ProductName)
}
