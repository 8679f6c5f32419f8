// internal/domain/exercise.go
package domain

// Exercise is a single entry in the exercise library. The JSON shape matches
// the catalog export consumed by the apps (snake_case keys); BSON keys follow
// the document-store convention.
type Exercise struct {
	ID               string   `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string   `bson:"name" json:"name"`
	VideoURL         string   `bson:"videoUrl,omitempty" json:"video_url,omitempty"`
	Images           []string `bson:"images,omitempty" json:"images,omitempty"`
	Instructions     []string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	PrimaryMuscles   []string `bson:"primaryMuscles,omitempty" json:"primary_muscles,omitempty"`
	SecondaryMuscles []string `bson:"secondaryMuscles,omitempty" json:"secondary_muscles,omitempty"`
	Equipment        []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Type             []string `bson:"type,omitempty" json:"type,omitempty"`
	MechanicsType    []string `bson:"mechanicsType,omitempty" json:"mechanics_type,omitempty"`
}

// UsesEquipment reports whether the exercise lists the given equipment.
// Matching is exact; callers normalize case before filtering.
func (e Exercise) UsesEquipment(equipment string) bool {
	for _, item := range e.Equipment {
		if item == equipment {
			return true
		}
	}
	return false
}
