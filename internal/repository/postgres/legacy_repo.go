// internal/repository/postgres/legacy_repo.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/repository"
)

const connectTimeout = 10 * time.Second

// Open connects to the legacy relational database and verifies the
// connection with a ping.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// legacyProgramRepository implements repository.LegacyProgramRepository over
// the generated_workouts table. Strictly read-only: the table predates the
// document store and only history merging and migration read it.
type legacyProgramRepository struct {
	db *sql.DB
}

// NewLegacyProgramRepository creates a repository over an open connection.
func NewLegacyProgramRepository(db *sql.DB) repository.LegacyProgramRepository {
	return &legacyProgramRepository{db: db}
}

const legacySelect = `
	SELECT id, user_id, title, COALESCE(summary, ''), workout_data, is_public, created_at, updated_at
	FROM public.generated_workouts`

// GetByID retrieves one legacy row. The table uses a serial primary key, so
// a non-numeric ID cannot match anything.
func (r *legacyProgramRepository) GetByID(ctx context.Context, id string) (*domain.LegacyWorkoutRow, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	row, err := scanLegacyRow(r.db.QueryRowContext(ctx, legacySelect+` WHERE id = $1`, numericID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return row, nil
}

// GetByUserID retrieves all legacy rows of one user, newest first. Rows
// without a created_at sort last.
func (r *legacyProgramRepository) GetByUserID(ctx context.Context, userID string) ([]domain.LegacyWorkoutRow, error) {
	rows, err := r.db.QueryContext(ctx, legacySelect+` WHERE user_id = $1 ORDER BY created_at DESC NULLS LAST, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LegacyWorkoutRow
	for rows.Next() {
		row, err := scanLegacyRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLegacyRow(scanner rowScanner) (*domain.LegacyWorkoutRow, error) {
	var (
		row       domain.LegacyWorkoutRow
		id        int64
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)

	err := scanner.Scan(&id, &row.UserID, &row.Title, &row.Summary, &row.WorkoutData, &row.IsPublic, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	row.ID = strconv.FormatInt(id, 10)
	if createdAt.Valid {
		row.CreatedAt = &createdAt.Time
	}
	if updatedAt.Valid {
		row.UpdatedAt = &updatedAt.Time
	}
	return &row, nil
}
