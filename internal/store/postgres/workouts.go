// Package postgres persists imported workouts with pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stridelog/importer/internal/core"
)

// WorkoutStore writes workout records to PostgreSQL. One import is one
// transaction; each row insert runs inside a savepoint so a failing row is
// rolled back and reported without aborting the rest of the batch.
type WorkoutStore struct {
	pool *pgxpool.Pool
}

func NewWorkoutStore(pool *pgxpool.Pool) *WorkoutStore {
	return &WorkoutStore{pool: pool}
}

const insertWorkout = `
INSERT INTO workouts (
	id, workout_date, activity_type, distance_meters, times_seconds,
	avg_pace_seconds, avg_heart_rate, max_heart_rate, notes,
	workout_type_id, intensity, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// CreateBatch inserts the records. PostgreSQL aborts the whole transaction
// on any statement error, so every insert is wrapped in its own savepoint;
// a row that fails is rolled back to the savepoint and the batch continues.
func (s *WorkoutStore) CreateBatch(ctx context.Context, records []core.WorkoutRecord, typeID, intensity string) ([]core.CreatedWorkout, []core.FailedWorkout, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed.

	var typeUUID *uuid.UUID
	if typeID != "" {
		id, err := uuid.Parse(typeID)
		if err != nil {
			return nil, nil, fmt.Errorf("workout type id %q: %w", typeID, err)
		}
		typeUUID = &id
	}

	now := time.Now()
	var created []core.CreatedWorkout
	var failed []core.FailedWorkout

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("cancelled at record %d: %w", i, err)
		}

		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
			return nil, nil, fmt.Errorf("create savepoint: %w", err)
		}

		id := uuid.New()
		_, err := tx.Exec(ctx, insertWorkout,
			id,
			rec.Date,
			nullIfEmpty(rec.ActivityType),
			rec.DistanceMeters,
			rec.TimesSeconds,
			nullIfZero(rec.AvgPaceSeconds),
			nullIfZero(rec.AvgHeartRate),
			nullIfZero(rec.MaxHeartRate),
			nullIfEmpty(rec.Notes),
			typeUUID,
			nullIfEmpty(intensity),
			now,
		)
		if err != nil {
			if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return nil, nil, fmt.Errorf("rollback savepoint: %w", rbErr)
			}
			failed = append(failed, core.FailedWorkout{
				Line:   rec.Line,
				Reason: fmt.Sprintf("insert: %v", err),
			})
			continue
		}

		if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return nil, nil, fmt.Errorf("release savepoint: %w", err)
		}
		created = append(created, core.CreatedWorkout{ID: id.String(), Line: rec.Line})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}
	return created, failed, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
