package localkv

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afoapp/bookkeeper/internal/domain/models"
	"github.com/afoapp/bookkeeper/internal/kvstore"
	"github.com/afoapp/bookkeeper/internal/repository"
)

func newTestRepo(t *testing.T) (*SheetRepository, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	seq := 0
	repo := NewSheetRepository(store, nil).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }).
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("sheet-%d", seq)
		})
	return repo, store
}

func strPtr(s string) *string { return &s }

func traderPatch(title string) models.SheetPatch {
	return models.SheetPatch{
		Title: strPtr(title),
		Trader: &models.TraderData{
			Products: []models.Product{
				{ID: "p1", Name: "Rice", CostPrice: 10, SellingPrice: 15, InitialStock: 10, QuantitySold: 2, LowStockThreshold: 5, CurrentStock: 8},
			},
			GeneralExpenses: []models.Expense{{ID: "light", Name: "Light Bills", Amount: 5}},
		},
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.SheetTrader, traderPatch("June sales"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "June sales", got.Title)
	assert.Equal(t, models.SheetTrader, got.Type)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.False(t, got.CreatedAt.IsZero())
	require.NotNil(t, got.Trader)
	require.Len(t, got.Trader.Products, 1)
	assert.Equal(t, "Rice", got.Trader.Products[0].Name)
	assert.Equal(t, 8.0, got.Trader.Products[0].CurrentStock)
}

func TestListIDsInsertionOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, models.SheetTrader, traderPatch("first"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, models.SheetArtisan, models.SheetPatch{Title: strPtr("second")})
	require.NoError(t, err)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, ids)
}

func TestListIDsEmptyAndCorruptIndex(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Set(ctx, "sheets:index", "{not json"))
	ids, err = repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetByIDNotFoundAndCorrupt(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Set(ctx, "sheets:item:bad", "][garbage"))
	_, err = repo.GetByID(ctx, "bad")
	assert.ErrorIs(t, err, repository.ErrCorrupt)
}

func TestUpdateExistingSheet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.SheetTrader, traderPatch("before"))
	require.NoError(t, err)

	returned, err := repo.Update(ctx, id, models.SheetPatch{Title: strPtr("after")})
	require.NoError(t, err)
	assert.Equal(t, id, returned)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	// Untouched fields survive the merge.
	require.NotNil(t, got.Trader)
	assert.Len(t, got.Trader.Products, 1)
}

func TestUpdateUnknownIDCreates(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	returned, err := repo.Update(ctx, "ghost", models.SheetPatch{Title: strPtr("X")})
	require.NoError(t, err)
	assert.Equal(t, "ghost", returned)

	got, err := repo.GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", got.ID)
	assert.Equal(t, "X", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "ghost")
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.SheetSalary, models.SheetPatch{Title: strPtr("pay")})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, id)

	// Second delete of the same id must not error.
	require.NoError(t, repo.Delete(ctx, id))
}

func TestClearAllSweepsRecords(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, models.SheetTrader, traderPatch("a"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.SheetArtisan, models.SheetPatch{Title: strPtr("b")})
	require.NoError(t, err)

	require.NoError(t, repo.ClearAll(ctx))

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	// Record blobs are swept, not orphaned.
	assert.Equal(t, 0, store.Len())
}

func TestListSkipsUnresolvableEntries(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()

	keep, err := repo.Create(ctx, models.SheetTrader, traderPatch("keep"))
	require.NoError(t, err)
	orphan, err := repo.Create(ctx, models.SheetTrader, traderPatch("orphan"))
	require.NoError(t, err)

	// Simulate a crash after the index write: the record blob vanishes.
	require.NoError(t, store.Remove(ctx, "sheets:item:"+orphan))
	// And a record that rotted on disk.
	corrupt, err := repo.Create(ctx, models.SheetTrader, traderPatch("corrupt"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "sheets:item:"+corrupt, "oops"))

	sheets, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, keep, sheets[0].ID)
}

func TestWriteFailuresPropagate(t *testing.T) {
	repo, store := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("disk full")

	store.FailWrites(boom)
	_, err := repo.Create(ctx, models.SheetTrader, traderPatch("x"))
	assert.ErrorIs(t, err, boom)

	store.FailWrites(nil)
	id, err := repo.Create(ctx, models.SheetTrader, traderPatch("x"))
	require.NoError(t, err)

	store.FailWrites(boom)
	_, err = repo.Update(ctx, id, models.SheetPatch{Title: strPtr("y")})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, repo.Delete(ctx, id), boom)
	assert.ErrorIs(t, repo.ClearAll(ctx), boom)
}
