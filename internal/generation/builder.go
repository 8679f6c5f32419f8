// internal/generation/builder.go
package generation

import (
	"fmt"
	"strings"

	"strengthlab/fitness-app/internal/domain"
)

// FormInput mirrors the generator form fields exactly as the user entered
// them. Numeric ranges are the input controls' responsibility; the builder
// does not re-validate them.
type FormInput struct {
	Prompt              string
	WeatherContext      string
	SelectedExercises   []domain.Exercise
	FitnessLevel        string
	PrescribedExercises string
	Injuries            string
	NumberOfDays        int
	NumberOfCycles      int
}

// BuildParams is a pure projection from form fields to the wire parameter
// object. No network or storage access, no blocking on missing optionals.
func BuildParams(in FormInput) domain.GenerationParams {
	return domain.GenerationParams{
		PromptText:          strings.TrimSpace(in.Prompt),
		WeatherContext:      strings.TrimSpace(in.WeatherContext),
		SelectedEquipment:   in.SelectedExercises,
		FitnessLevel:        strings.TrimSpace(in.FitnessLevel),
		PrescribedExercises: strings.TrimSpace(in.PrescribedExercises),
		Injuries:            strings.TrimSpace(in.Injuries),
		NumberOfDays:        in.NumberOfDays,
		NumberOfCycles:      in.NumberOfCycles,
	}
}

// Advisories reports soft problems with the input. Callers may show these
// to the user but must not block submission on them.
func Advisories(in FormInput) []string {
	var notes []string
	if strings.TrimSpace(in.FitnessLevel) == "" {
		notes = append(notes, "no fitness level selected; the generator will assume a general audience")
	}
	if in.NumberOfDays < domain.MinNumberOfDays || in.NumberOfDays > domain.MaxNumberOfDays {
		notes = append(notes, fmt.Sprintf("numberOfDays %d is outside %d-%d", in.NumberOfDays, domain.MinNumberOfDays, domain.MaxNumberOfDays))
	}
	if in.NumberOfCycles < domain.MinNumberOfCycles || in.NumberOfCycles > domain.MaxNumberOfCycles {
		notes = append(notes, fmt.Sprintf("numberOfCycles %d is outside %d-%d", in.NumberOfCycles, domain.MinNumberOfCycles, domain.MaxNumberOfCycles))
	}
	return notes
}
