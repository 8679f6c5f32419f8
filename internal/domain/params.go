package domain

// Bounds for the numeric generation parameters. The UI controls clamp to
// these before submission; the request builder does not re-validate.
const (
	MinNumberOfDays   = 1
	MaxNumberOfDays   = 7
	MinNumberOfCycles = 1
	MaxNumberOfCycles = 4
)

// Fitness levels accepted by the generation endpoint.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// GenerationParams is the payload sent to the generation endpoint. Absent
// optional fields mean "no constraint". The JSON field names are the
// endpoint's wire contract.
type GenerationParams struct {
	PromptText          string     `json:"prompt"`
	WeatherContext      string     `json:"weatherPrompt,omitempty"`
	SelectedEquipment   []Exercise `json:"selectedExercises,omitempty"`
	FitnessLevel        string     `json:"fitnessLevel"`
	PrescribedExercises string     `json:"prescribedExercises,omitempty"`
	Injuries            string     `json:"injuries,omitempty"`
	NumberOfDays        int        `json:"numberOfDays"`
	NumberOfCycles      int        `json:"numberOfCycles"`
}
