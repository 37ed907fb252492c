// Package repository defines the persistence contract for sheet records,
// satisfied interchangeably by the local key-value backend and the remote
// document store backend.
package repository

import (
	"context"
	"errors"

	"github.com/afoapp/bookkeeper/internal/domain/models"
)

// ErrNotFound indicates the requested sheet id has no record.
var ErrNotFound = errors.New("sheet not found")

// ErrCorrupt indicates a record exists but could not be decoded. Callers may
// degrade it to ErrNotFound after logging.
var ErrCorrupt = errors.New("sheet record corrupt")

// ErrUnauthenticated indicates the remote backend has no user identity to
// scope documents by.
var ErrUnauthenticated = errors.New("no authenticated user")

// SheetRepository is the durable CRUD surface over sheet records.
type SheetRepository interface {
	// ListIDs returns every known sheet id in insertion order. A corrupt or
	// missing index degrades to an empty list rather than failing the caller.
	ListIDs(ctx context.Context) ([]string, error)
	// List resolves ListIDs to full records, skipping ids whose record is
	// missing or corrupt.
	List(ctx context.Context) ([]models.Sheet, error)
	// GetByID returns the full record, ErrNotFound, or ErrCorrupt.
	GetByID(ctx context.Context, id string) (*models.Sheet, error)
	// Create generates a fresh id, stamps createdAt/updatedAt, applies the
	// initial fields and persists the record. Returns the new id.
	Create(ctx context.Context, sheetType models.SheetType, fields models.SheetPatch) (string, error)
	// Update merges fields over the current record and stamps updatedAt. A
	// missing record is treated as a fresh base carrying only the id and a
	// new createdAt (update-or-create).
	Update(ctx context.Context, id string, fields models.SheetPatch) (string, error)
	// Delete removes the record and its index entry. Idempotent.
	Delete(ctx context.Context, id string) error
	// ClearAll removes every record and the index itself.
	ClearAll(ctx context.Context) error
}
