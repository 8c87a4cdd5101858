package service

import (
	"context"
	"fmt"
	"time"

	"microwallet/internal/domain"
)

type StatsStore interface {
	PlatformStats(ctx context.Context, since time.Time) (*domain.PlatformStats, error)
}

// AdminService provides operator statistics
type AdminService struct {
	stats StatsStore
	now   func() time.Time
}

func NewAdminService(stats StatsStore) *AdminService {
	return &AdminService{stats: stats, now: time.Now}
}

// GetStats returns platform totals; "today" starts at UTC midnight
func (s *AdminService) GetStats(ctx context.Context) (*domain.PlatformStats, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	stats, err := s.stats.PlatformStats(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return stats, nil
}
