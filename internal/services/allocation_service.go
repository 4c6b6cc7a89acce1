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
	"example.com/bloodbank/services/bank/internal/search"
	"example.com/bloodbank/services/bank/internal/tracing"
)

// AllocationService binds a pending request to a specific available inventory
// item. It is the single point of mutation for allocations: the reserve step
// is the linearization point, and after a successful reservation the engine
// always either commits or rolls back before returning.
type AllocationService struct {
	inventory ItemStore
	requests  RequestStore
	publisher messaging.Publisher
	elastic   *search.ElasticClient
	metrics   *metrics.Metrics
	tracer    tracing.Tracer
	now       func() time.Time
}

// NewAllocationService creates a new allocation service
func NewAllocationService(
	inventory ItemStore,
	requests RequestStore,
	publisher messaging.Publisher,
	elastic *search.ElasticClient,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *AllocationService {
	return &AllocationService{
		inventory: inventory,
		requests:  requests,
		publisher: publisher,
		elastic:   elastic,
		metrics:   metricsCollector,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Fulfill matches a pending request to a candidate inventory item and
// transitions both atomically. On any failure before the fulfillment commit
// the reservation is released; a failure after it is fatal and surfaced as
// ErrInconsistent for manual reconciliation.
func (s *AllocationService) Fulfill(ctx context.Context, requestID, itemID uuid.UUID) (*models.Request, error) {
	txn := s.tracer.StartTransaction("fulfill-request")
	defer s.tracer.EndTransaction(txn)

	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		s.metrics.IncrementCounter(metrics.CounterFulfillRejected)
		return nil, errors.Wrapf(domain.ErrInvalidState, "request is %s", request.Status)
	}

	kind, err := s.checkCompatibility(ctx, request, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrIncompatible) {
			s.metrics.IncrementCounter(metrics.CounterFulfillIncompatible)
		}
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	seg := s.tracer.StartSegment("reserve-item", txn)
	err = s.inventory.Reserve(ctx, kind, itemID)
	seg.End()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// The item was Available at the compatibility check, so a failed
		// reservation means another caller won the race.
		s.metrics.IncrementCounter(metrics.CounterFulfillConflict)
		return nil, errors.Wrap(domain.ErrConflict, "lost reservation race for item")
	}

	if err := s.requests.MarkFulfilled(ctx, request.ID, kind, itemID); err != nil {
		if relErr := s.inventory.Release(ctx, kind, itemID); relErr != nil {
			log.Error().
				Err(relErr).
				Str("request_id", request.ID.String()).
				Str("item_id", itemID.String()).
				Msg("FATAL: failed to release reservation after fulfillment failure, manual reconciliation required")
			s.metrics.IncrementCounter(metrics.CounterFulfillInconsistent)
			return nil, errors.Wrap(domain.ErrInconsistent, "reservation release failed")
		}
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if err := s.inventory.CommitAllocation(ctx, kind, itemID, request.ID); err != nil {
		// Reservation and fulfillment are committed but the item is stuck in
		// Reserved. Never swallowed, never auto-recovered.
		log.Error().
			Err(err).
			Str("request_id", request.ID.String()).
			Str("item_id", itemID.String()).
			Msg("FATAL: allocation commit failed after fulfillment, manual reconciliation required")
		s.metrics.IncrementCounter(metrics.CounterFulfillInconsistent)
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(domain.ErrInconsistent, "allocation commit failed")
	}

	s.metrics.IncrementCounter(metrics.CounterFulfillSuccess)

	fulfilled, err := s.requests.Get(ctx, request.ID)
	if err != nil {
		log.Warn().Err(err).Str("request_id", request.ID.String()).Msg("failed to reload fulfilled request")
		fulfilled = request
	}

	log.Info().
		Str("request_id", request.ID.String()).
		Str("item_id", itemID.String()).
		Str("item_kind", string(kind)).
		Msg("request fulfilled")

	// Side channels stay outside the critical section, best effort only.
	s.afterCommit(ctx, fulfilled, kind, itemID)

	return fulfilled, nil
}

// checkCompatibility validates that the candidate item can satisfy the
// request and returns the item kind. The item must be Available; expiry and
// blood-group/organ-type rules come from the domain package.
func (s *AllocationService) checkCompatibility(ctx context.Context, request *models.Request, itemID uuid.UUID) (models.ItemKind, error) {
	switch request.Type {
	case models.RequestTypeBlood:
		unit, err := s.inventory.GetUnit(ctx, itemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if organ, organErr := s.inventory.GetOrgan(ctx, itemID); organErr == nil && organ != nil {
					return "", errors.Wrap(domain.ErrIncompatible, "organ offered for a blood request")
				}
			}
			return "", err
		}
		if unit.Status != models.ItemStatusAvailable {
			return "", errors.Wrapf(domain.ErrInvalidState, "donation unit is %s", unit.Status)
		}
		if !domain.UnitUsable(unit.ExpiresAt, s.now()) {
			return "", errors.Wrap(domain.ErrIncompatible, "donation unit is past expiry")
		}
		if !domain.CanDonateTo(domain.BloodGroup(unit.BloodGroup), request.RequestedGroup()) {
			return "", errors.Wrapf(domain.ErrIncompatible,
				"blood group %s cannot serve recipient group %s", unit.BloodGroup, request.BloodGroup)
		}
		return models.ItemKindDonationUnit, nil

	case models.RequestTypeOrgan:
		organ, err := s.inventory.GetOrgan(ctx, itemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if unit, unitErr := s.inventory.GetUnit(ctx, itemID); unitErr == nil && unit != nil {
					return "", errors.Wrap(domain.ErrIncompatible, "donation unit offered for an organ request")
				}
			}
			return "", err
		}
		if organ.Status != models.ItemStatusAvailable {
			return "", errors.Wrapf(domain.ErrInvalidState, "organ is %s", organ.Status)
		}
		if !domain.OrganTypeMatches(organ.OrganType, request.OrganType) {
			return "", errors.Wrapf(domain.ErrIncompatible,
				"organ type %s does not match requested %s", organ.OrganType, request.OrganType)
		}
		return models.ItemKindOrgan, nil

	default:
		return "", errors.Wrapf(domain.ErrInvalidState, "unknown request type %s", request.Type)
	}
}

// afterCommit publishes and indexes a completed allocation. Failures are
// logged and never affect the already-committed allocation.
func (s *AllocationService) afterCommit(ctx context.Context, request *models.Request, kind models.ItemKind, itemID uuid.UUID) {
	if s.publisher != nil {
		event := map[string]interface{}{
			"request_id":   request.ID.String(),
			"recipient_id": request.RecipientID.String(),
			"item_kind":    kind,
			"item_id":      itemID.String(),
			"request_type": request.Type,
		}
		if err := s.publisher.Publish(ctx, messaging.EventAllocationCompleted, event); err != nil {
			log.Warn().Err(err).Str("request_id", request.ID.String()).Msg("failed to publish allocation event")
		}
	}

	if s.elastic != nil {
		if err := s.elastic.IndexAllocation(ctx, request, kind, itemID.String()); err != nil {
			log.Warn().Err(err).Str("request_id", request.ID.String()).Msg("failed to index allocation")
		}
	}
}
