package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalysisStatus tracks a form-analysis record through its lifecycle.
type AnalysisStatus string

const (
	AnalysisPending  AnalysisStatus = "pending"  // upload URL issued, object not confirmed
	AnalysisUploaded AnalysisStatus = "uploaded" // video confirmed in object storage
	AnalysisComplete AnalysisStatus = "complete" // report and structured scores available
	AnalysisFailed   AnalysisStatus = "failed"   // analysis ran and could not produce a result
)

// DefaultFormScore fills score aspects the extraction stage omitted, so a
// partial model response still renders a complete chart.
const DefaultFormScore = 50.0

// FormAnalysis is one exercise-form video analysis: the uploaded object's
// metadata plus the two-stage result (free-text report, then structured
// scores/faults/recommendations extracted from it).
type FormAnalysis struct {
	ID           string             `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	ExerciseName string             `bson:"exerciseName" json:"exerciseName"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`

	ObjectKey   string `bson:"objectKey" json:"objectKey"`
	ContentType string `bson:"contentType,omitempty" json:"contentType,omitempty"`
	FileName    string `bson:"fileName,omitempty" json:"fileName,omitempty"`
	FileSize    int64  `bson:"fileSize,omitempty" json:"fileSize,omitempty"`

	Status          AnalysisStatus     `bson:"status" json:"status"`
	Report          string             `bson:"report,omitempty" json:"report,omitempty"`
	Scores          map[string]float64 `bson:"scores,omitempty" json:"scores,omitempty"`
	Faults          []string           `bson:"faults,omitempty" json:"faults,omitempty"`
	Recommendations []string           `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	FailureReason   string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
