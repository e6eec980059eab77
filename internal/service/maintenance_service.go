package service

import (
	"context"

	"go.uber.org/zap"
)

type identityReorganizer interface {
	ReorganizeIdentities(ctx context.Context) (int, error)
}

// MaintenanceService exposes rarely-invoked administrative operations.
// Identity reconciliation is never run implicitly after a delete; it
// invalidates previously issued identity values and must be requested
// explicitly while no other identity mutation is running.
type MaintenanceService struct {
	persons identityReorganizer
	logger  *zap.Logger
}

// NewMaintenanceService constructs MaintenanceService.
func NewMaintenanceService(persons identityReorganizer, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{persons: persons, logger: logger}
}

// ReorganizeIdentities compacts person identities into the contiguous
// sequence 1..N, preserving relative order, and returns N.
func (s *MaintenanceService) ReorganizeIdentities(ctx context.Context) (int, error) {
	total, err := s.persons.ReorganizeIdentities(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("person identities reorganized", zap.Int("total", total))
	return total, nil
}
