// Package localkv implements the sheet repository over the key-value
// substrate: one index key holding the ordered id list, one record key per
// sheet. The two writes are not atomic with each other, so read paths
// tolerate orphaned index entries and unindexed records.
package localkv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afoapp/bookkeeper/internal/domain/models"
	"github.com/afoapp/bookkeeper/internal/kvstore"
	"github.com/afoapp/bookkeeper/internal/repository"
)

const (
	indexKey        = "sheets:index"
	recordKeyPrefix = "sheets:item:"
)

func recordKey(id string) string { return recordKeyPrefix + id }

// SheetRepository is the local key-value backed implementation of
// repository.SheetRepository.
type SheetRepository struct {
	store  kvstore.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

var _ repository.SheetRepository = (*SheetRepository)(nil)

// NewSheetRepository builds a repository over the provided store.
func NewSheetRepository(store kvstore.Store, logger *zap.Logger) *SheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ListIDs reads the id index. A missing or corrupt index is treated as empty;
// only substrate I/O failures propagate.
func (r *SheetRepository) ListIDs(ctx context.Context) ([]string, error) {
	raw, err := r.store.Get(ctx, indexKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read sheet index: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		r.logger.Warn("sheet index corrupt, treating as empty", zap.Error(err))
		return []string{}, nil
	}
	return ids, nil
}

// List resolves the index to full records, skipping entries whose record is
// missing or corrupt so one bad blob never breaks the listing.
func (r *SheetRepository) List(ctx context.Context) ([]models.Sheet, error) {
	ids, err := r.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	sheets := make([]models.Sheet, 0, len(ids))
	for _, id := range ids {
		sheet, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrCorrupt) {
				r.logger.Warn("skipping unresolvable sheet id", zap.String("id", id), zap.Error(err))
				continue
			}
			return nil, err
		}
		sheets = append(sheets, *sheet)
	}
	return sheets, nil
}

// GetByID reads and decodes one record.
func (r *SheetRepository) GetByID(ctx context.Context, id string) (*models.Sheet, error) {
	raw, err := r.store.Get(ctx, recordKey(id))
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, fmt.Errorf("sheet %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("read sheet %s: %w", id, err)
	}

	var sheet models.Sheet
	if err := json.Unmarshal([]byte(raw), &sheet); err != nil {
		return nil, fmt.Errorf("sheet %s: %w: %v", id, repository.ErrCorrupt, err)
	}
	return &sheet, nil
}

// Create persists a fresh record under a generated id.
func (r *SheetRepository) Create(ctx context.Context, sheetType models.SheetType, fields models.SheetPatch) (string, error) {
	now := r.now()
	sheet := models.Sheet{
		ID:        r.newID(),
		Type:      sheetType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(&sheet)
	// The patch never reassigns the discriminator chosen at creation.
	sheet.Type = sheetType

	if err := r.upsert(ctx, &sheet); err != nil {
		return "", err
	}

	r.logger.Debug("sheet created", zap.String("id", sheet.ID), zap.String("type", string(sheetType)))
	return sheet.ID, nil
}

// Update merges fields over the stored record, or over a fresh base when the
// record is missing or corrupt (update-or-create).
func (r *SheetRepository) Update(ctx context.Context, id string, fields models.SheetPatch) (string, error) {
	sheet, err := r.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrCorrupt) {
			return "", err
		}
		if errors.Is(err, repository.ErrCorrupt) {
			r.logger.Warn("overwriting corrupt sheet record", zap.String("id", id))
		}
		sheet = &models.Sheet{ID: id, CreatedAt: r.now()}
	}

	fields.Apply(sheet)
	sheet.ID = id
	sheet.UpdatedAt = r.now()

	if err := r.upsert(ctx, sheet); err != nil {
		return "", err
	}

	r.logger.Debug("sheet updated", zap.String("id", id))
	return id, nil
}

// Delete removes the index entry (no-op if absent) and the record blob.
func (r *SheetRepository) Delete(ctx context.Context, id string) error {
	ids, err := r.ListIDs(ctx)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) != len(ids) {
		if err := r.writeIndex(ctx, kept); err != nil {
			return err
		}
	}

	if err := r.store.Remove(ctx, recordKey(id)); err != nil {
		return fmt.Errorf("remove sheet %s: %w", id, err)
	}
	return nil
}

// ClearAll sweeps every record blob before removing the index so no orphans
// are left behind.
func (r *SheetRepository) ClearAll(ctx context.Context) error {
	ids, err := r.ListIDs(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := r.store.Remove(ctx, recordKey(id)); err != nil {
			return fmt.Errorf("remove sheet %s: %w", id, err)
		}
	}

	if err := r.store.Remove(ctx, indexKey); err != nil {
		return fmt.Errorf("remove sheet index: %w", err)
	}

	r.logger.Info("all sheets cleared", zap.Int("count", len(ids)))
	return nil
}

// upsert appends the id to the index when absent, then writes the record.
func (r *SheetRepository) upsert(ctx context.Context, sheet *models.Sheet) error {
	ids, err := r.ListIDs(ctx)
	if err != nil {
		return err
	}

	indexed := false
	for _, existing := range ids {
		if existing == sheet.ID {
			indexed = true
			break
		}
	}
	if !indexed {
		if err := r.writeIndex(ctx, append(ids, sheet.ID)); err != nil {
			return err
		}
	}

	data, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("encode sheet %s: %w", sheet.ID, err)
	}
	if err := r.store.Set(ctx, recordKey(sheet.ID), string(data)); err != nil {
		return fmt.Errorf("write sheet %s: %w", sheet.ID, err)
	}
	return nil
}

func (r *SheetRepository) writeIndex(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode sheet index: %w", err)
	}
	if err := r.store.Set(ctx, indexKey, string(data)); err != nil {
		return fmt.Errorf("write sheet index: %w", err)
	}
	return nil
}

// WithClock overrides the timestamp source, for tests.
func (r *SheetRepository) WithClock(now func() time.Time) *SheetRepository {
	r.now = now
	return r
}

// WithIDGenerator overrides the id source, for tests.
func (r *SheetRepository) WithIDGenerator(newID func() string) *SheetRepository {
	r.newID = newID
	return r
}
