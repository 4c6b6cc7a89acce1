package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/bloodbank/services/bank/internal/domain"
	"example.com/bloodbank/services/bank/internal/messaging"
	"example.com/bloodbank/services/bank/internal/metrics"
	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
)

// InventoryService handles intake, availability queries and lifecycle sweeps
// for donation units and organs.
type InventoryService struct {
	inventory *repositories.InventoryRepository
	donors    *repositories.DonorRepository
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	shelfLife time.Duration
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	inventory *repositories.InventoryRepository,
	donors *repositories.DonorRepository,
	publisher messaging.Publisher,
	metricsCollector *metrics.Metrics,
	shelfLife time.Duration,
) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		donors:    donors,
		publisher: publisher,
		metrics:   metricsCollector,
		shelfLife: shelfLife,
	}
}

// IntakeDonation registers a collected blood donation. The expiry timestamp
// is computed from the donation time and the configured shelf life, and the
// donor's blood group is snapshotted onto the unit.
func (s *InventoryService) IntakeDonation(ctx context.Context, donorID uuid.UUID, quantityML int, donatedAt time.Time) (*models.DonationUnit, error) {
	if quantityML <= 0 {
		return nil, errors.New("donation quantity must be positive")
	}

	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		return nil, err
	}

	group, err := domain.ParseBloodGroup(donor.BloodGroup)
	if err != nil {
		return nil, errors.Wrap(err, "donor record carries an invalid blood group")
	}

	unit := &models.DonationUnit{
		ID:         uuid.New(),
		DonorID:    donor.ID,
		BloodGroup: string(group),
		QuantityML: quantityML,
		DonatedAt:  donatedAt,
		ExpiresAt:  donatedAt.Add(s.shelfLife),
		Status:     models.ItemStatusAvailable,
	}

	if err := s.inventory.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.CounterIntakes)
	log.Info().
		Str("unit_id", unit.ID.String()).
		Str("donor_id", donor.ID.String()).
		Str("blood_group", unit.BloodGroup).
		Time("expires_at", unit.ExpiresAt).
		Msg("donation unit registered")

	return unit, nil
}

// IntakeOrgan registers a harvested organ
func (s *InventoryService) IntakeOrgan(ctx context.Context, donorID uuid.UUID, organType string) (*models.Organ, error) {
	normalized := domain.NormalizeOrganType(organType)
	if normalized == "" {
		return nil, errors.New("organ type must not be empty")
	}

	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		return nil, err
	}

	organ := &models.Organ{
		ID:        uuid.New(),
		DonorID:   donor.ID,
		OrganType: normalized,
		Status:    models.ItemStatusAvailable,
	}

	if err := s.inventory.CreateOrgan(ctx, organ); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.CounterIntakes)
	log.Info().
		Str("organ_id", organ.ID.String()).
		Str("donor_id", donor.ID.String()).
		Str("organ_type", organ.OrganType).
		Msg("organ registered")

	return organ, nil
}

// ListUnits lists all donation units
func (s *InventoryService) ListUnits(ctx context.Context) ([]models.DonationUnit, error) {
	return s.inventory.ListUnits(ctx)
}

// ListOrgans lists all organs
func (s *InventoryService) ListOrgans(ctx context.Context) ([]models.Organ, error) {
	return s.inventory.ListOrgans(ctx)
}

// ListAvailableUnits lists Available, unexpired units compatible with the
// given recipient blood group.
func (s *InventoryService) ListAvailableUnits(ctx context.Context, recipientGroup string, now time.Time) ([]models.DonationUnit, error) {
	group, err := domain.ParseBloodGroup(recipientGroup)
	if err != nil {
		return nil, err
	}
	return s.inventory.ListAvailableUnits(ctx, group, now)
}

// ListAvailableOrgans lists Available organs of the given type
func (s *InventoryService) ListAvailableOrgans(ctx context.Context, organType string) ([]models.Organ, error) {
	return s.inventory.ListAvailableOrgans(ctx, organType)
}

// ExpireStale sweeps Available donation units past expiry into Expired and
// returns the count. Run periodically by the worker; safe to run concurrently
// with fulfillment because the sweep never touches Reserved rows.
func (s *InventoryService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.inventory.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	s.metrics.IncrementCounterBy(metrics.CounterUnitsExpired, count)
	log.Info().Int64("count", count).Msg("expired stale donation units")

	if s.publisher != nil {
		event := map[string]interface{}{
			"count":    count,
			"swept_at": now.UTC(),
		}
		if err := s.publisher.Publish(ctx, messaging.EventDonationsExpired, event); err != nil {
			log.Warn().Err(err).Msg("failed to publish expiry event")
		}
	}

	return count, nil
}

// CheckUnitExpiry reports whether a donation unit is expired, either because
// the sweep already marked it or because its expiry timestamp has passed.
func (s *InventoryService) CheckUnitExpiry(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	unit, err := s.inventory.GetUnit(ctx, id)
	if err != nil {
		return false, err
	}
	if unit.Status == models.ItemStatusExpired {
		return true, nil
	}
	return !domain.UnitUsable(unit.ExpiresAt, now), nil
}

// Remove discards an inventory item; fails for Allocated or Reserved items
func (s *InventoryService) Remove(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	return s.inventory.Remove(ctx, kind, id)
}
