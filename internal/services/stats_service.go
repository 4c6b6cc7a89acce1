package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/bloodbank/services/bank/internal/cache"
	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
)

// Stats holds the dashboard counters.
type Stats struct {
	PendingRequests int64 `json:"pending_requests"`
	AvailableUnits  int64 `json:"available_units"`
	AvailableOrgans int64 `json:"available_organs"`
	TotalDonors     int64 `json:"total_donors"`
	TotalRecipients int64 `json:"total_recipients"`
}

// StatsService aggregates dashboard counters with a short-lived Redis cache
// in front of the count queries.
type StatsService struct {
	inventory  *repositories.InventoryRepository
	requests   *repositories.RequestRepository
	donors     *repositories.DonorRepository
	recipients *repositories.RecipientRepository
	cache      *cache.RedisCache
	ttl        time.Duration
}

// NewStatsService creates a new stats service
func NewStatsService(
	inventory *repositories.InventoryRepository,
	requests *repositories.RequestRepository,
	donors *repositories.DonorRepository,
	recipients *repositories.RecipientRepository,
	redisCache *cache.RedisCache,
	ttl time.Duration,
) *StatsService {
	return &StatsService{
		inventory:  inventory,
		requests:   requests,
		donors:     donors,
		recipients: recipients,
		cache:      redisCache,
		ttl:        ttl,
	}
}

// GetStats returns the dashboard counters, served from cache when fresh
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	if s.cache != nil {
		var cached Stats
		if err := s.cache.Get(ctx, cache.StatsKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &Stats{}
	var err error

	if stats.PendingRequests, err = s.requests.CountPending(ctx); err != nil {
		return nil, err
	}
	if stats.AvailableUnits, err = s.inventory.CountUnitsByStatus(ctx, models.ItemStatusAvailable); err != nil {
		return nil, err
	}
	if stats.AvailableOrgans, err = s.inventory.CountOrgansByStatus(ctx, models.ItemStatusAvailable); err != nil {
		return nil, err
	}
	if stats.TotalDonors, err = s.donors.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalRecipients, err = s.recipients.Count(ctx); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.StatsKey, stats, s.ttl); err != nil {
			log.Debug().Err(err).Msg("failed to cache stats")
		}
	}

	return stats, nil
}
