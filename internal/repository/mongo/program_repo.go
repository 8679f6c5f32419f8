// internal/repository/mongo/program_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository.
// Document IDs are strings rather than ObjectIDs because migrated legacy
// rows carry deterministic "legacy-<rowID>" identifiers.
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new program repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program document, minting an ID when none is set.
func (r *mongoProgramRepository) Create(ctx context.Context, doc *domain.ProgramDocument) (string, error) {
	if doc.UserID == "" || doc.Name == "" {
		return "", errors.New("program requires userId and name")
	}
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Upsert writes the document under its own ID, replacing any existing copy.
// Migration relies on this: re-running it lands on the same documents.
func (r *mongoProgramRepository) Upsert(ctx context.Context, doc *domain.ProgramDocument) error {
	if doc.ID == "" || doc.UserID == "" {
		return errors.New("program upsert requires id and userId")
	}

	filter := bson.M{"_id": doc.ID}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, doc, opts)
	return err
}

// GetByID retrieves a single program document.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id string) (*domain.ProgramDocument, error) {
	var doc domain.ProgramDocument
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// GetByUserID retrieves all program documents of one user, newest first.
func (r *mongoProgramRepository) GetByUserID(ctx context.Context, userID string) ([]domain.ProgramDocument, error) {
	var docs []domain.ProgramDocument
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Empty slice when the user has no programs yet.
	return docs, nil
}

// Update rewrites the mutable fields of an existing document. The owner
// filter keeps one user from editing another's program.
func (r *mongoProgramRepository) Update(ctx context.Context, doc *domain.ProgramDocument) error {
	if doc.ID == "" || doc.UserID == "" {
		return errors.New("program ID and user ID are required for update")
	}

	filter := bson.M{"_id": doc.ID, "userId": doc.UserID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":        doc.Name,
			"description": doc.Description,
			"program":     doc.Program,
			"isPublic":    doc.IsPublic,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes one program, enforcing ownership in the filter.
func (r *mongoProgramRepository) Delete(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return errors.New("program ID and user ID are required for deletion")
	}

	filter := bson.M{"_id": id, "userId": userID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Program not found OR owned by someone else.
		return repository.ErrNotFound
	}
	return nil
}

// CountByUserID counts a user's stored programs; the free-tier quota check
// reads this number.
func (r *mongoProgramRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	filter := bson.M{"userId": userID}
	return r.collection.CountDocuments(ctx, filter)
}

// EnsureProgramIndexes creates necessary indexes. Call during startup.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "isPublic", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
