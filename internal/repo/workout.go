package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/mapty/internal/domain"
)

// WorkoutRepo persists one client's workout list under a single key.
// Every Save overwrites the full list; there are no partial updates.
type WorkoutRepo struct {
	kv   KVStore
	key  string
	mode domain.ValidationMode
	log  *slog.Logger
}

// NewWorkoutRepo constructs a WorkoutRepo that reads and writes key in kv.
// mode decides whether numerically invalid records survive a reload: strict
// drops them, lenient keeps whatever lenient submission let through.
func NewWorkoutRepo(kv KVStore, key string, mode domain.ValidationMode, log *slog.Logger) *WorkoutRepo {
	return &WorkoutRepo{kv: kv, key: key, mode: mode, log: log}
}

// Load returns the stored workouts in insertion order.
// A missing key yields an empty, non-nil list. Records with a broken
// structure are skipped and logged; in strict mode so are records whose
// numbers fail domain.Validate. A value that is not a JSON array fails with
// domain.ErrValidation.
func (r *WorkoutRepo) Load(ctx context.Context) ([]domain.Workout, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Workout{}, nil
		}
		return nil, fmt.Errorf("repo.WorkoutRepo.Load: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("repo.WorkoutRepo.Load: %w: stored value is not a workout list: %v", domain.ErrValidation, err)
	}

	workouts := make([]domain.Workout, 0, len(records))
	for i, msg := range records {
		var rec domain.Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			r.log.WarnContext(ctx, "skipping undecodable workout record", "key", r.key, "index", i, "error", err)
			continue
		}
		w, err := domain.Restore(rec)
		if err != nil {
			r.log.WarnContext(ctx, "skipping invalid workout record", "key", r.key, "index", i, "error", err)
			continue
		}
		if r.mode == domain.Strict {
			if err := domain.Validate(w); err != nil {
				r.log.WarnContext(ctx, "skipping invalid workout record", "key", r.key, "index", i, "error", err)
				continue
			}
		}
		workouts = append(workouts, w)
	}
	return workouts, nil
}

// Save serializes the full list and overwrites the stored value.
// Non-finite numbers are stored as null.
func (r *WorkoutRepo) Save(ctx context.Context, workouts []domain.Workout) error {
	records := make([]domain.Record, len(workouts))
	for i, w := range workouts {
		records[i] = domain.ToRecord(w)
	}

	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("repo.WorkoutRepo.Save: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, string(b)); err != nil {
		return fmt.Errorf("repo.WorkoutRepo.Save: %w", err)
	}
	return nil
}

// Clear removes the stored list. Clearing a list that was never saved is
// not an error.
func (r *WorkoutRepo) Clear(ctx context.Context) error {
	if err := r.kv.Delete(ctx, r.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("repo.WorkoutRepo.Clear: %w", err)
	}
	return nil
}
