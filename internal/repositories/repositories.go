package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/bloodbank/services/bank/internal/domain"
	"example.com/bloodbank/services/bank/internal/models"
)

// InventoryRepository provides access to donation units and organs. All status
// transitions are single guarded UPDATE statements: the WHERE clause carries
// the expected current status, so only one concurrent caller can win a
// transition and everyone else sees RowsAffected == 0.
type InventoryRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *gorm.DB, readOnlyDB *gorm.DB) *InventoryRepository {
	return &InventoryRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

func modelFor(kind models.ItemKind) interface{} {
	if kind == models.ItemKindOrgan {
		return &models.Organ{}
	}
	return &models.DonationUnit{}
}

// GetUnit gets a donation unit by ID. Reads the write database so the engine
// never acts on a stale replica row.
func (r *InventoryRepository) GetUnit(ctx context.Context, id uuid.UUID) (*models.DonationUnit, error) {
	var unit models.DonationUnit
	err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(domain.ErrNotFound, "donation unit")
		}
		return nil, errors.Wrap(err, "failed to get donation unit")
	}
	return &unit, nil
}

// GetOrgan gets an organ by ID
func (r *InventoryRepository) GetOrgan(ctx context.Context, id uuid.UUID) (*models.Organ, error) {
	var organ models.Organ
	err := r.db.WithContext(ctx).First(&organ, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(domain.ErrNotFound, "organ")
		}
		return nil, errors.Wrap(err, "failed to get organ")
	}
	return &organ, nil
}

// currentStatus reads an item's status for resolving a failed transition into
// NotFound or InvalidState.
func (r *InventoryRepository) currentStatus(ctx context.Context, kind models.ItemKind, id uuid.UUID) (models.ItemStatus, error) {
	var status models.ItemStatus
	err := r.db.WithContext(ctx).Model(modelFor(kind)).
		Select("status").
		Where("id = ?", id).
		Scan(&status).Error
	if err != nil {
		return "", errors.Wrap(err, "failed to read item status")
	}
	if status == "" {
		return "", errors.Wrap(domain.ErrNotFound, "inventory item")
	}
	return status, nil
}

// transition performs an atomic check-and-set of an item's status.
func (r *InventoryRepository) transition(ctx context.Context, kind models.ItemKind, id uuid.UUID, from, to models.ItemStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(modelFor(kind)).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to transition %s to %s", kind, to)
	}
	if result.RowsAffected == 0 {
		status, err := r.currentStatus(ctx, kind, id)
		if err != nil {
			return err
		}
		return errors.Wrapf(domain.ErrInvalidState, "%s is %s, expected %s", kind, status, from)
	}
	return nil
}

// Reserve transitions an item Available -> Reserved. This is the sole safe
// linearization point of the allocation workflow: of any number of concurrent
// callers, exactly one UPDATE matches the Available row.
func (r *InventoryRepository) Reserve(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	return r.transition(ctx, kind, id, models.ItemStatusAvailable, models.ItemStatusReserved, nil)
}

// CommitAllocation transitions an item Reserved -> Allocated. For organs the
// request linkage is recorded in the same UPDATE.
func (r *InventoryRepository) CommitAllocation(ctx context.Context, kind models.ItemKind, id, requestID uuid.UUID) error {
	var extra map[string]interface{}
	if kind == models.ItemKindOrgan {
		extra = map[string]interface{}{"request_id": requestID}
	}
	return r.transition(ctx, kind, id, models.ItemStatusReserved, models.ItemStatusAllocated, extra)
}

// Release transitions an item Reserved -> Available, the rollback path when
// fulfillment fails after a successful reservation.
func (r *InventoryRepository) Release(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	return r.transition(ctx, kind, id, models.ItemStatusReserved, models.ItemStatusAvailable, nil)
}

// CreateUnit stores a new donation unit
func (r *InventoryRepository) CreateUnit(ctx context.Context, unit *models.DonationUnit) error {
	if err := r.db.WithContext(ctx).Create(unit).Error; err != nil {
		return errors.Wrap(err, "failed to create donation unit")
	}
	return nil
}

// CreateOrgan stores a new organ
func (r *InventoryRepository) CreateOrgan(ctx context.Context, organ *models.Organ) error {
	if err := r.db.WithContext(ctx).Create(organ).Error; err != nil {
		return errors.Wrap(err, "failed to create organ")
	}
	return nil
}

// ListUnits lists donation units, newest first
func (r *InventoryRepository) ListUnits(ctx context.Context) ([]models.DonationUnit, error) {
	var units []models.DonationUnit
	err := r.readOnlyDB.WithContext(ctx).Order("created_at DESC").Find(&units).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list donation units")
	}
	return units, nil
}

// ListOrgans lists organs, newest first
func (r *InventoryRepository) ListOrgans(ctx context.Context) ([]models.Organ, error) {
	var organs []models.Organ
	err := r.readOnlyDB.WithContext(ctx).Order("created_at DESC").Find(&organs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list organs")
	}
	return organs, nil
}

// ListAvailableUnits lists Available, unexpired donation units whose blood
// group can serve a recipient of the given group.
func (r *InventoryRepository) ListAvailableUnits(ctx context.Context, recipient domain.BloodGroup, now time.Time) ([]models.DonationUnit, error) {
	donors := domain.CompatibleDonors(recipient)
	groups := make([]string, 0, len(donors))
	for _, g := range donors {
		groups = append(groups, string(g))
	}

	var units []models.DonationUnit
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ? AND expires_at > ? AND blood_group IN ?",
			models.ItemStatusAvailable, now, groups).
		Order("expires_at ASC").
		Find(&units).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list available donation units")
	}
	return units, nil
}

// ListAvailableOrgans lists Available organs of the given normalized type.
func (r *InventoryRepository) ListAvailableOrgans(ctx context.Context, organType string) ([]models.Organ, error) {
	var organs []models.Organ
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ? AND organ_type = ?",
			models.ItemStatusAvailable, domain.NormalizeOrganType(organType)).
		Order("created_at ASC").
		Find(&organs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list available organs")
	}
	return organs, nil
}

// ExpireStale marks Available donation units past their expiry as Expired and
// returns the number of units swept. Reserved rows are deliberately excluded:
// a reservation in progress must not be expired out from under the engine.
func (r *InventoryRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.DonationUnit{}).
		Where("status = ? AND expires_at <= ?", models.ItemStatusAvailable, now).
		Update("status", models.ItemStatusExpired)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to expire stale donation units")
	}
	return result.RowsAffected, nil
}

// Remove discards an inventory item. Allocated items are referenced by a
// fulfilled request and Reserved items are mid-allocation, so only Available
// and Expired items can be removed.
func (r *InventoryRepository) Remove(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(modelFor(kind)).
		Where("id = ? AND status IN ?", id,
			[]models.ItemStatus{models.ItemStatusAvailable, models.ItemStatusExpired}).
		Update("status", models.ItemStatusDiscarded)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "failed to discard %s", kind)
	}
	if result.RowsAffected == 0 {
		status, err := r.currentStatus(ctx, kind, id)
		if err != nil {
			return err
		}
		return errors.Wrapf(domain.ErrInvalidState, "cannot remove %s in status %s", kind, status)
	}

	if err := r.db.WithContext(ctx).Delete(modelFor(kind), "id = ?", id).Error; err != nil {
		return errors.Wrapf(err, "failed to delete %s", kind)
	}
	return nil
}

// CountUnitsByStatus counts donation units in the given status
func (r *InventoryRepository) CountUnitsByStatus(ctx context.Context, status models.ItemStatus) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.DonationUnit{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count donation units")
	}
	return count, nil
}

// CountOrgansByStatus counts organs in the given status
func (r *InventoryRepository) CountOrgansByStatus(ctx context.Context, status models.ItemStatus) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Organ{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count organs")
	}
	return count, nil
}

// RequestRepository provides access to recipient requests
type RequestRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *gorm.DB, readOnlyDB *gorm.DB) *RequestRepository {
	return &RequestRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Get gets a request by ID from the write database
func (r *RequestRepository) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(domain.ErrNotFound, "request")
		}
		return nil, errors.Wrap(err, "failed to get request")
	}
	return &request, nil
}

// List lists requests with recipient and hospital preloaded, newest first
func (r *RequestRepository) List(ctx context.Context) ([]models.Request, error) {
	var requests []models.Request
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Recipient").
		Preload("Hospital").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list requests")
	}
	return requests, nil
}

// ListPending lists Pending requests, oldest first
func (r *RequestRepository) ListPending(ctx context.Context) ([]models.Request, error) {
	var requests []models.Request
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending requests")
	}
	return requests, nil
}

// Create stores a new request
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	return nil
}

// MarkFulfilled transitions a request Pending -> Fulfilled and records the
// fulfillment linkage in the same guarded UPDATE. The linkage columns are
// asserted NULL so a linked request can never be linked twice.
func (r *RequestRepository) MarkFulfilled(ctx context.Context, id uuid.UUID, kind models.ItemKind, itemID uuid.UUID) error {
	column := "donation_unit_id"
	if kind == models.ItemKindOrgan {
		column = "organ_id"
	}

	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ? AND donation_unit_id IS NULL AND organ_id IS NULL",
			id, models.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":       models.RequestStatusFulfilled,
			column:         itemID,
			"fulfilled_at": now,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark request fulfilled")
	}
	if result.RowsAffected == 0 {
		request, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if request.Linked() {
			return errors.Wrap(domain.ErrAlreadyLinked, "request")
		}
		return errors.Wrapf(domain.ErrInvalidState, "request is %s", request.Status)
	}
	return nil
}

// Cancel transitions a request Pending -> Cancelled
func (r *RequestRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Update("status", models.RequestStatusCancelled)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to cancel request")
	}
	if result.RowsAffected == 0 {
		request, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		return errors.Wrapf(domain.ErrInvalidState, "request is %s", request.Status)
	}
	return nil
}

// Delete removes a request. Fulfilled requests are linked to an allocated
// inventory item and cannot be deleted.
func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	request, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if request.Status == models.RequestStatusFulfilled {
		return errors.Wrap(domain.ErrInvalidState, "request is linked to an allocated item")
	}
	if err := r.db.WithContext(ctx).Delete(&models.Request{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "failed to delete request")
	}
	return nil
}

// CountPending counts Pending requests
func (r *RequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Request{}).
		Where("status = ?", models.RequestStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pending requests")
	}
	return count, nil
}

// CountPendingForRecipient counts a recipient's Pending requests
func (r *RequestRepository) CountPendingForRecipient(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Request{}).
		Where("recipient_id = ? AND status = ?", recipientID, models.RequestStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pending requests for recipient")
	}
	return count, nil
}

// CountForRecipient counts all requests referencing a recipient
func (r *RequestRepository) CountForRecipient(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Request{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count requests for recipient")
	}
	return count, nil
}
