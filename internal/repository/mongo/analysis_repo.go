// internal/repository/mongo/analysis_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const analysisCollectionName = "form_analyses"

// mongoAnalysisRepository implements repository.AnalysisRepository
type mongoAnalysisRepository struct {
	collection *mongo.Collection
}

// NewMongoAnalysisRepository creates a new form-analysis repository backed by MongoDB.
func NewMongoAnalysisRepository(db *mongo.Database) repository.AnalysisRepository {
	return &mongoAnalysisRepository{
		collection: db.Collection(analysisCollectionName),
	}
}

// Create inserts a new analysis record in status pending.
func (r *mongoAnalysisRepository) Create(ctx context.Context, analysis *domain.FormAnalysis) (string, error) {
	if analysis.UserID == primitive.NilObjectID || analysis.ExerciseName == "" || analysis.ObjectKey == "" {
		return "", errors.New("analysis requires userId, exerciseName, and objectKey")
	}

	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	if analysis.Status == "" {
		analysis.Status = domain.AnalysisPending
	}
	now := time.Now().UTC()
	analysis.CreatedAt = now
	analysis.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, analysis); err != nil {
		return "", err
	}
	return analysis.ID, nil
}

// GetByID retrieves one analysis record.
func (r *mongoAnalysisRepository) GetByID(ctx context.Context, id string) (*domain.FormAnalysis, error) {
	var analysis domain.FormAnalysis
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&analysis)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &analysis, nil
}

// GetByUserID retrieves a user's analyses, newest first.
func (r *mongoAnalysisRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error) {
	var analyses []domain.FormAnalysis
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &analyses); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return analyses, nil
}

// Update rewrites the record's lifecycle fields: status, report, extracted
// scores, and failure reason.
func (r *mongoAnalysisRepository) Update(ctx context.Context, analysis *domain.FormAnalysis) error {
	if analysis.ID == "" {
		return errors.New("analysis ID is required for update")
	}

	filter := bson.M{"_id": analysis.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":          analysis.Status,
			"report":          analysis.Report,
			"scores":          analysis.Scores,
			"faults":          analysis.Faults,
			"recommendations": analysis.Recommendations,
			"failureReason":   analysis.FailureReason,
			"contentType":     analysis.ContentType,
			"fileName":        analysis.FileName,
			"fileSize":        analysis.FileSize,
			"updatedAt":       time.Now().UTC(),
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

// EnsureAnalysisIndexes creates necessary indexes for the analyses collection.
func EnsureAnalysisIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "objectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
