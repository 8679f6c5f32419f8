package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/llm"
	"strengthlab/fitness-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrWorkoutLimitExceeded    = errors.New("workout limit exceeded")
	ErrProgramNotFound         = errors.New("program not found")
	ErrProgramAccessDenied     = errors.New("access denied to this program")
	ErrInvalidGenerationParams = errors.New("generation parameters out of range")
	ErrEmptyGeneration         = errors.New("model returned an empty program")
)

// ChatClient is the slice of the model client the generation pipeline needs.
type ChatClient interface {
	SimpleChat(ctx context.Context, systemPrompt, userMessage string) (string, llm.Usage, error)
}

// QuotaStatus reports generation usage against the free-tier cap.
type QuotaStatus struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Unlimited bool  `json:"unlimited"`
}

// --- Service Interface ---
type ProgramService interface {
	// Generate runs the full pipeline: quota check, model call, JSON
	// extraction, persistence. The returned debug info is never persisted;
	// the handler decides whether to expose it.
	Generate(ctx context.Context, userID primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error)
	GetProgram(ctx context.Context, userID primitive.ObjectID, programID string) (*domain.ProgramDocument, error)
	ListPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramDocument, error)
	UpdateDay(ctx context.Context, userID primitive.ObjectID, programID, cycleKey, dayKey string, day domain.WorkoutDay) (*domain.ProgramDocument, error)
	SetPublic(ctx context.Context, userID primitive.ObjectID, programID string, public bool) (*domain.ProgramDocument, error)
	DeleteProgram(ctx context.Context, userID primitive.ObjectID, programID string) error
	Quota(ctx context.Context, userID primitive.ObjectID) (QuotaStatus, error)
}

// --- Service Implementation ---

// programService implements the ProgramService interface.
type programService struct {
	userRepo      repository.UserRepository
	programRepo   repository.ProgramRepository
	chat          ChatClient
	freeTierLimit int64
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	userRepo repository.UserRepository,
	programRepo repository.ProgramRepository,
	chat ChatClient,
	freeTierLimit int64,
) ProgramService {
	if freeTierLimit <= 0 {
		freeTierLimit = 3
	}
	return &programService{
		userRepo:      userRepo,
		programRepo:   programRepo,
		chat:          chat,
		freeTierLimit: freeTierLimit,
	}
}

// === Generation ===

// Generate produces, persists and returns a new program for the user.
func (s *programService) Generate(ctx context.Context, userID primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
	// 1. Validate Inputs. The client clamps these before submission, so an
	// out-of-range value here means a broken or hostile caller.
	if userID == primitive.NilObjectID {
		return nil, nil, errors.New("user ID is required")
	}
	if params.NumberOfDays < domain.MinNumberOfDays || params.NumberOfDays > domain.MaxNumberOfDays {
		return nil, nil, fmt.Errorf("%w: numberOfDays %d", ErrInvalidGenerationParams, params.NumberOfDays)
	}
	if params.NumberOfCycles < domain.MinNumberOfCycles || params.NumberOfCycles > domain.MaxNumberOfCycles {
		return nil, nil, fmt.Errorf("%w: numberOfCycles %d", ErrInvalidGenerationParams, params.NumberOfCycles)
	}

	// 2. Load the user. Tier comes from the database, not the token, so an
	// upgrade takes effect without waiting for re-login.
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	// 3. Enforce the free-tier quota before spending model tokens.
	if !user.IsPro() {
		used, err := s.programRepo.CountByUserID(ctx, userID.Hex())
		if err != nil {
			return nil, nil, err
		}
		if used >= s.freeTierLimit {
			return nil, nil, ErrWorkoutLimitExceeded
		}
	}

	// 4. Call the model.
	start := time.Now()
	reply, usage, err := s.chat.SimpleChat(ctx, generationSystemPrompt, buildGenerationPrompt(params))
	if err != nil {
		return nil, nil, fmt.Errorf("model call failed: %w", err)
	}

	// 5. Extract the program from the reply.
	var workout domain.WeeklyWorkout
	if err := llm.ExtractJSON(reply, &workout); err != nil {
		return nil, nil, fmt.Errorf("model reply was not a usable program: %w", err)
	}
	if workout.IsEmpty() {
		return nil, nil, ErrEmptyGeneration
	}

	// 6. Persist the document.
	title := workout.Title()
	if title == "" {
		title = "Custom Workout Program"
	}
	doc := &domain.ProgramDocument{
		UserID:      userID.Hex(),
		Name:        title,
		Description: workout.Summary(),
		Program:     workout,
	}
	docID, err := s.programRepo.Create(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	doc.ID = docID

	debug := &domain.DebugInfo{
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		ElapsedMS:        time.Since(start).Milliseconds(),
	}
	return doc, debug, nil
}

// Quota reports how many generations the user has spent. Pro users are
// unlimited; Used is still reported for display.
func (s *programService) Quota(ctx context.Context, userID primitive.ObjectID) (QuotaStatus, error) {
	if userID == primitive.NilObjectID {
		return QuotaStatus{}, errors.New("user ID is required")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return QuotaStatus{}, ErrUserNotFound
		}
		return QuotaStatus{}, err
	}
	used, err := s.programRepo.CountByUserID(ctx, userID.Hex())
	if err != nil {
		return QuotaStatus{}, err
	}
	return QuotaStatus{
		Used:      used,
		Limit:     s.freeTierLimit,
		Unlimited: user.IsPro(),
	}, nil
}

// === Program Access ===

// GetProgram fetches one program. Public programs are readable by anyone;
// private ones only by their owner.
func (s *programService) GetProgram(ctx context.Context, userID primitive.ObjectID, programID string) (*domain.ProgramDocument, error) {
	if programID == "" {
		return nil, errors.New("program ID is required")
	}
	doc, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if doc.UserID != userID.Hex() && !doc.IsPublic {
		return nil, ErrProgramAccessDenied
	}
	return doc, nil
}

// ListPrograms returns the user's programs, newest first.
func (s *programService) ListPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramDocument, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	return s.programRepo.GetByUserID(ctx, userID.Hex())
}

// UpdateDay replaces a single day inside the program. Other days and other
// cycles are left untouched.
func (s *programService) UpdateDay(ctx context.Context, userID primitive.ObjectID, programID, cycleKey, dayKey string, day domain.WorkoutDay) (*domain.ProgramDocument, error) {
	if cycleKey == "" || dayKey == "" {
		return nil, errors.New("cycle key and day key are required")
	}
	doc, err := s.ownedProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}

	doc.Program.SetDay(cycleKey, dayKey, day)
	if err := s.programRepo.Update(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return doc, nil
}

// SetPublic toggles the program's visibility.
func (s *programService) SetPublic(ctx context.Context, userID primitive.ObjectID, programID string, public bool) (*domain.ProgramDocument, error) {
	doc, err := s.ownedProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	if doc.IsPublic == public {
		return doc, nil
	}
	doc.IsPublic = public
	if err := s.programRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteProgram removes the user's program.
func (s *programService) DeleteProgram(ctx context.Context, userID primitive.ObjectID, programID string) error {
	if programID == "" {
		return errors.New("program ID is required")
	}
	err := s.programRepo.Delete(ctx, programID, userID.Hex())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}
	return nil
}

// ownedProgram fetches a program and requires the caller to be its owner.
// Mutations never go through the public-read path.
func (s *programService) ownedProgram(ctx context.Context, userID primitive.ObjectID, programID string) (*domain.ProgramDocument, error) {
	if programID == "" {
		return nil, errors.New("program ID is required")
	}
	doc, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if doc.UserID != userID.Hex() {
		return nil, ErrProgramAccessDenied
	}
	return doc, nil
}

// === Prompt Assembly ===

const generationSystemPrompt = "You are a professional strength and conditioning coach. " +
	"Reply with a single JSON object and nothing else (no markdown, no code fences, no commentary)."

// buildGenerationPrompt renders the generation parameters into the user
// message. Absent optional fields are omitted entirely rather than sent as
// empty lines.
func buildGenerationPrompt(params domain.GenerationParams) string {
	var sb strings.Builder

	sb.WriteString("Create a complete training program.\n\n")

	sb.WriteString("CLIENT DATA:\n")
	level := params.FitnessLevel
	if level == "" {
		level = domain.LevelIntermediate
	}
	sb.WriteString(fmt.Sprintf("- Fitness level: %s\n", level))
	sb.WriteString(fmt.Sprintf("- Training days per cycle: %d\n", params.NumberOfDays))
	sb.WriteString(fmt.Sprintf("- Number of cycles: %d\n", params.NumberOfCycles))

	if len(params.SelectedEquipment) > 0 {
		names := make([]string, 0, len(params.SelectedEquipment))
		for _, ex := range params.SelectedEquipment {
			names = append(names, ex.Name)
		}
		sb.WriteString(fmt.Sprintf("- Available exercises/equipment: %s\n", strings.Join(names, ", ")))
	}
	if params.PrescribedExercises != "" {
		sb.WriteString(fmt.Sprintf("- Prescribed exercises (must be included): %s\n", params.PrescribedExercises))
	}
	if params.Injuries != "" {
		sb.WriteString(fmt.Sprintf("- Injuries/limitations: %s\n", params.Injuries))
	}
	if params.WeatherContext != "" {
		sb.WriteString(fmt.Sprintf("- Weather conditions: %s\n", params.WeatherContext))
	}
	if params.PromptText != "" {
		sb.WriteString("\nADDITIONAL REQUEST:\n")
		sb.WriteString(params.PromptText)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRESPONSE FORMAT (strict JSON):\n")
	sb.WriteString(`{
  "cycle1": {
    "day1": {
      "description": "Focus of the day",
      "warmup": "Warmup routine",
      "workout": "Main workout with sets, reps and rest",
      "strength": "Primary strength focus",
      "notes": "Coaching notes"
    }
  },
  "_meta": {
    "title": "Program name",
    "summary": "One-paragraph overview of the program"
  }
}`)

	sb.WriteString("\n\nREQUIREMENTS:\n")
	sb.WriteString(fmt.Sprintf("1. Produce exactly %d cycles, keyed cycle1..cycle%d.\n", params.NumberOfCycles, params.NumberOfCycles))
	sb.WriteString(fmt.Sprintf("2. Each cycle has exactly %d days, keyed day1..day%d.\n", params.NumberOfDays, params.NumberOfDays))
	sb.WriteString("3. Every day object uses only the keys shown in the format above.\n")
	sb.WriteString("4. Respect injuries and limitations when choosing exercises.\n")
	sb.WriteString("5. Progress the load across cycles.\n")
	sb.WriteString("6. Reply ONLY with the JSON object, no explanations.\n")

	return sb.String()
}
