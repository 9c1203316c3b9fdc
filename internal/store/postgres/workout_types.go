package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stridelog/importer/internal/core"
)

// WorkoutTypeStore resolves workout type ids against the configured catalog.
type WorkoutTypeStore struct {
	pool *pgxpool.Pool
}

func NewWorkoutTypeStore(pool *pgxpool.Pool) *WorkoutTypeStore {
	return &WorkoutTypeStore{pool: pool}
}

// Lookup returns the workout type for an id, or an error when the id is not
// a UUID or names no configured type.
func (s *WorkoutTypeStore) Lookup(ctx context.Context, id string) (core.WorkoutType, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return core.WorkoutType{}, fmt.Errorf("workout type id %q: %w", id, err)
	}

	var wt core.WorkoutType
	err = s.pool.QueryRow(ctx,
		"SELECT id, name FROM workout_types WHERE id = $1", typeID,
	).Scan(&wt.ID, &wt.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.WorkoutType{}, fmt.Errorf("workout type %q not found", id)
	}
	if err != nil {
		return core.WorkoutType{}, fmt.Errorf("lookup workout type: %w", err)
	}
	return wt, nil
}

// List returns all configured workout types ordered by name.
func (s *WorkoutTypeStore) List(ctx context.Context) ([]core.WorkoutType, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM workout_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list workout types: %w", err)
	}
	defer rows.Close()

	var out []core.WorkoutType
	for rows.Next() {
		var wt core.WorkoutType
		if err := rows.Scan(&wt.ID, &wt.Name); err != nil {
			return nil, fmt.Errorf("scan workout type: %w", err)
		}
		out = append(out, wt)
	}
	return out, rows.Err()
}
