// Package mongodb implements the sheet repository over a remote per-user
// document collection. Documents are scoped by user id; no operation runs
// without an authenticated identity.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/afoapp/bookkeeper/internal/domain/models"
	"github.com/afoapp/bookkeeper/internal/repository"
)

const collectionName = "sheets"

// sheetDocument wraps the canonical record with its owning user.
type sheetDocument struct {
	UserID string       `bson:"user_id"`
	Sheet  models.Sheet `bson:"sheet"`
}

// SheetRepository is the document-store implementation of
// repository.SheetRepository.
type SheetRepository struct {
	client *mongo.Client
	dbName string
	userID string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

var _ repository.SheetRepository = (*SheetRepository)(nil)

// NewSheetRepository connects to MongoDB and verifies the connection. The
// user id scopes every document and must be present.
func NewSheetRepository(ctx context.Context, uri, dbName, userID string, logger *zap.Logger) (*SheetRepository, error) {
	if userID == "" {
		return nil, repository.ErrUnauthenticated
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &SheetRepository{
		client: client,
		dbName: dbName,
		userID: userID,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Close closes the MongoDB connection.
func (r *SheetRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *SheetRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(collectionName)
}

func (r *SheetRepository) filter(id string) bson.M {
	return bson.M{"user_id": r.userID, "sheet.id": id}
}

// ListIDs returns the user's sheet ids in creation order.
func (r *SheetRepository) ListIDs(ctx context.Context) ([]string, error) {
	sheets, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sheets))
	for _, s := range sheets {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// List returns the user's full records in creation order, skipping documents
// that fail to decode.
func (r *SheetRepository) List(ctx context.Context) ([]models.Sheet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sheet.created_at", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{"user_id": r.userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var sheets []models.Sheet
	for cursor.Next(ctx) {
		var doc sheetDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Warn("skipping undecodable sheet document", zap.Error(err))
			continue
		}
		sheets = append(sheets, doc.Sheet)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheets: %w", err)
	}
	if sheets == nil {
		sheets = []models.Sheet{}
	}
	return sheets, nil
}

// GetByID returns the full record or ErrNotFound. A document that fails to
// decode surfaces as ErrCorrupt.
func (r *SheetRepository) GetByID(ctx context.Context, id string) (*models.Sheet, error) {
	res := r.collection().FindOne(ctx, r.filter(id))
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("sheet %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("read sheet %s: %w", id, err)
	}

	var doc sheetDocument
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("sheet %s: %w: %v", id, repository.ErrCorrupt, err)
	}
	return &doc.Sheet, nil
}

// Create inserts a fresh record under a generated id.
func (r *SheetRepository) Create(ctx context.Context, sheetType models.SheetType, fields models.SheetPatch) (string, error) {
	now := r.now()
	sheet := models.Sheet{
		ID:        r.newID(),
		Type:      sheetType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(&sheet)
	sheet.Type = sheetType

	doc := sheetDocument{UserID: r.userID, Sheet: sheet}
	if _, err := r.collection().InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert sheet: %w", err)
	}

	r.logger.Debug("sheet created", zap.String("id", sheet.ID), zap.String("type", string(sheetType)))
	return sheet.ID, nil
}

// Update merges fields over the stored record, creating it when absent
// (update-or-create, same contract as the local backend).
func (r *SheetRepository) Update(ctx context.Context, id string, fields models.SheetPatch) (string, error) {
	sheet, err := r.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrCorrupt) {
			return "", err
		}
		sheet = &models.Sheet{ID: id, CreatedAt: r.now()}
	}

	fields.Apply(sheet)
	sheet.ID = id
	sheet.UpdatedAt = r.now()

	doc := sheetDocument{UserID: r.userID, Sheet: *sheet}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection().ReplaceOne(ctx, r.filter(id), doc, opts); err != nil {
		return "", fmt.Errorf("replace sheet %s: %w", id, err)
	}

	r.logger.Debug("sheet updated", zap.String("id", id))
	return id, nil
}

// Delete removes the record. Deleting an absent record is a no-op.
func (r *SheetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection().DeleteOne(ctx, r.filter(id)); err != nil {
		return fmt.Errorf("delete sheet %s: %w", id, err)
	}
	return nil
}

// ClearAll removes every record belonging to the user.
func (r *SheetRepository) ClearAll(ctx context.Context) error {
	result, err := r.collection().DeleteMany(ctx, bson.M{"user_id": r.userID})
	if err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}

	r.logger.Info("all sheets cleared", zap.Int64("count", result.DeletedCount))
	return nil
}
