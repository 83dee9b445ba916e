package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/repo"
)

// ExportService reads a client's stored workouts for export.
type ExportService struct {
	kv     repo.KVStore
	prefix string
	mode   domain.ValidationMode
	log    *slog.Logger
}

// NewExportService constructs an ExportService over the same store and key
// prefix the sessions write to, reading them back under the same validation
// mode.
func NewExportService(kv repo.KVStore, prefix string, mode domain.ValidationMode, log *slog.Logger) *ExportService {
	return &ExportService{kv: kv, prefix: prefix, mode: mode, log: log}
}

// Export returns the client's stored workouts in insertion order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExportService) Export(ctx context.Context, clientID string) ([]domain.Workout, error) {
	ws, err := repo.NewWorkoutRepo(s.kv, StorageKey(s.prefix, clientID), s.mode, s.log).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return ws, nil
}
