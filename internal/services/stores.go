package services

import (
	"context"

	"github.com/google/uuid"

	"example.com/bloodbank/services/bank/internal/models"
)

// ItemStore is the slice of the inventory ledger the allocation engine needs.
// Implementations must make Reserve an atomic check-and-set: of any number of
// concurrent callers only one may observe Available and win the transition.
type ItemStore interface {
	GetUnit(ctx context.Context, id uuid.UUID) (*models.DonationUnit, error)
	GetOrgan(ctx context.Context, id uuid.UUID) (*models.Organ, error)
	Reserve(ctx context.Context, kind models.ItemKind, id uuid.UUID) error
	CommitAllocation(ctx context.Context, kind models.ItemKind, id, requestID uuid.UUID) error
	Release(ctx context.Context, kind models.ItemKind, id uuid.UUID) error
}

// RequestStore is the slice of the request registry the allocation engine needs.
type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
	MarkFulfilled(ctx context.Context, id uuid.UUID, kind models.ItemKind, itemID uuid.UUID) error
}
