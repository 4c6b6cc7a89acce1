package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/bloodbank/services/bank/config"
	"example.com/bloodbank/services/bank/internal/domain"
	"example.com/bloodbank/services/bank/internal/metrics"
	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/tracing"
)

// In-memory item store with the same check-and-set semantics as the GORM
// repository: a transition succeeds only from the expected source status,
// under a single lock so concurrent reservations race realistically.
type fakeInventory struct {
	mu     sync.Mutex
	units  map[uuid.UUID]*models.DonationUnit
	organs map[uuid.UUID]*models.Organ

	onReserve   func()
	failCommit  bool
	failRelease bool
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		units:  make(map[uuid.UUID]*models.DonationUnit),
		organs: make(map[uuid.UUID]*models.Organ),
	}
}

func (f *fakeInventory) GetUnit(ctx context.Context, id uuid.UUID) (*models.DonationUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unit, ok := f.units[id]
	if !ok {
		return nil, errors.Wrap(domain.ErrNotFound, "donation unit")
	}
	copied := *unit
	return &copied, nil
}

func (f *fakeInventory) GetOrgan(ctx context.Context, id uuid.UUID) (*models.Organ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	organ, ok := f.organs[id]
	if !ok {
		return nil, errors.Wrap(domain.ErrNotFound, "organ")
	}
	copied := *organ
	return &copied, nil
}

func (f *fakeInventory) status(kind models.ItemKind, id uuid.UUID) (models.ItemStatus, bool) {
	switch kind {
	case models.ItemKindDonationUnit:
		if unit, ok := f.units[id]; ok {
			return unit.Status, true
		}
	case models.ItemKindOrgan:
		if organ, ok := f.organs[id]; ok {
			return organ.Status, true
		}
	}
	return "", false
}

func (f *fakeInventory) setStatus(kind models.ItemKind, id uuid.UUID, status models.ItemStatus) {
	switch kind {
	case models.ItemKindDonationUnit:
		f.units[id].Status = status
	case models.ItemKindOrgan:
		f.organs[id].Status = status
	}
}

func (f *fakeInventory) transition(kind models.ItemKind, id uuid.UUID, from, to models.ItemStatus) error {
	current, ok := f.status(kind, id)
	if !ok {
		return errors.Wrap(domain.ErrNotFound, string(kind))
	}
	if current != from {
		return errors.Wrapf(domain.ErrInvalidState, "%s is %s", kind, current)
	}
	f.setStatus(kind, id, to)
	return nil
}

func (f *fakeInventory) Reserve(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	if f.onReserve != nil {
		f.onReserve()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(kind, id, models.ItemStatusAvailable, models.ItemStatusReserved)
}

func (f *fakeInventory) CommitAllocation(ctx context.Context, kind models.ItemKind, id, requestID uuid.UUID) error {
	if f.failCommit {
		return errors.New("commit failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.transition(kind, id, models.ItemStatusReserved, models.ItemStatusAllocated); err != nil {
		return err
	}
	if kind == models.ItemKindOrgan {
		f.organs[id].RequestID = &requestID
	}
	return nil
}

func (f *fakeInventory) Release(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	if f.failRelease {
		return errors.New("release failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transition(kind, id, models.ItemStatusReserved, models.ItemStatusAvailable)
}

// In-memory request store mirroring the guarded fulfillment update.
type fakeRequests struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.Request
	failMark bool
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: make(map[uuid.UUID]*models.Request)}
}

func (f *fakeRequests) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, errors.Wrap(domain.ErrNotFound, "request")
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequests) MarkFulfilled(ctx context.Context, id uuid.UUID, kind models.ItemKind, itemID uuid.UUID) error {
	if f.failMark {
		return errors.New("mark fulfilled failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return errors.Wrap(domain.ErrNotFound, "request")
	}
	if request.Linked() {
		return errors.Wrap(domain.ErrAlreadyLinked, "request already carries a fulfillment linkage")
	}
	if request.Status != models.RequestStatusPending {
		return errors.Wrapf(domain.ErrInvalidState, "request is %s", request.Status)
	}
	now := time.Now()
	request.Status = models.RequestStatusFulfilled
	request.FulfilledAt = &now
	switch kind {
	case models.ItemKindDonationUnit:
		request.DonationUnitID = &itemID
	case models.ItemKindOrgan:
		request.OrganID = &itemID
	}
	return nil
}

// Mock publisher for testing
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event string, body interface{}) error {
	args := m.Called(ctx, event, body)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestService(t *testing.T, inventory *fakeInventory, requests *fakeRequests) *AllocationService {
	t.Helper()
	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)
	return NewAllocationService(inventory, requests, nil, nil, metrics.NewMetrics(), tracer)
}

func availableUnit(group string) *models.DonationUnit {
	return &models.DonationUnit{
		ID:         uuid.New(),
		DonorID:    uuid.New(),
		BloodGroup: group,
		QuantityML: 450,
		DonatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(30 * 24 * time.Hour),
		Status:     models.ItemStatusAvailable,
	}
}

func pendingBloodRequest(group string) *models.Request {
	return &models.Request{
		ID:          uuid.New(),
		RecipientID: uuid.New(),
		HospitalID:  uuid.New(),
		Type:        models.RequestTypeBlood,
		BloodGroup:  group,
		Status:      models.RequestStatusPending,
	}
}

func TestFulfillBloodRequest(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("AB+")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	fulfilled, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusFulfilled, fulfilled.Status)
	require.NotNil(t, fulfilled.DonationUnitID)
	require.Equal(t, unit.ID, *fulfilled.DonationUnitID)
	require.Nil(t, fulfilled.OrganID)
	require.NotNil(t, fulfilled.FulfilledAt)

	require.Equal(t, models.ItemStatusAllocated, unit.Status)
}

func TestFulfillOrganRequest(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	organ := &models.Organ{
		ID:        uuid.New(),
		DonorID:   uuid.New(),
		OrganType: "kidney",
		Status:    models.ItemStatusAvailable,
	}
	request := &models.Request{
		ID:          uuid.New(),
		RecipientID: uuid.New(),
		HospitalID:  uuid.New(),
		Type:        models.RequestTypeOrgan,
		OrganType:   "kidney",
		Status:      models.RequestStatusPending,
	}
	inventory.organs[organ.ID] = organ
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	fulfilled, err := service.Fulfill(context.Background(), request.ID, organ.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusFulfilled, fulfilled.Status)
	require.NotNil(t, fulfilled.OrganID)
	require.Equal(t, organ.ID, *fulfilled.OrganID)

	require.Equal(t, models.ItemStatusAllocated, organ.Status)
	require.NotNil(t, organ.RequestID)
	require.Equal(t, request.ID, *organ.RequestID)
}

func TestFulfillPublishesAllocationEvent(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("A+")
	request := pendingBloodRequest("AB+")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, "allocation.completed", mock.Anything).Return(nil)

	service := newTestService(t, inventory, requests)
	service.publisher = publisher

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}

func TestFulfillIncompatibleBloodGroup(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("AB+")
	request := pendingBloodRequest("O-")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrIncompatible)

	// Rejection leaves both sides untouched
	require.Equal(t, models.ItemStatusAvailable, unit.Status)
	require.Equal(t, models.RequestStatusPending, request.Status)
}

func TestFulfillExpiredUnit(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	unit.ExpiresAt = time.Now().Add(-time.Hour)
	request := pendingBloodRequest("O-")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrIncompatible)
	require.Equal(t, models.ItemStatusAvailable, unit.Status)
}

func TestFulfillKindMismatch(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	organ := &models.Organ{
		ID:        uuid.New(),
		DonorID:   uuid.New(),
		OrganType: "kidney",
		Status:    models.ItemStatusAvailable,
	}
	request := pendingBloodRequest("A+")
	inventory.organs[organ.ID] = organ
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	// An organ offered against a blood request is a compatibility failure,
	// not a lookup failure
	_, err := service.Fulfill(context.Background(), request.ID, organ.ID)
	require.ErrorIs(t, err, domain.ErrIncompatible)
	require.Equal(t, models.ItemStatusAvailable, organ.Status)
}

func TestFulfillUnknownItem(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	request := pendingBloodRequest("A+")
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFulfillNonPendingRequest(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("A+")
	request.Status = models.RequestStatusCancelled
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.Equal(t, models.ItemStatusAvailable, unit.Status)
}

func TestFulfillTwiceFailsSecondTime(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	first := pendingBloodRequest("A+")
	second := pendingBloodRequest("B+")
	inventory.units[unit.ID] = unit
	requests.requests[first.ID] = first
	requests.requests[second.ID] = second

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), first.ID, unit.ID)
	require.NoError(t, err)

	// The unit is already Allocated by the time compatibility is checked
	_, err = service.Fulfill(context.Background(), second.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.Equal(t, models.RequestStatusPending, second.Status)
}

func TestFulfillLostReservationRace(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("A+")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	// Another caller wins the reservation between the compatibility check
	// and the reserve attempt
	inventory.onReserve = func() {
		inventory.mu.Lock()
		if unit.Status == models.ItemStatusAvailable {
			unit.Status = models.ItemStatusReserved
		}
		inventory.mu.Unlock()
		inventory.onReserve = nil
	}

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Equal(t, models.RequestStatusPending, request.Status)
}

func TestFulfillConcurrentSingleWinner(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	inventory.units[unit.ID] = unit

	const contenders = 8
	ids := make([]uuid.UUID, 0, contenders)
	for i := 0; i < contenders; i++ {
		request := pendingBloodRequest("AB+")
		requests.requests[request.ID] = request
		ids = append(ids, request.ID)
	}

	service := newTestService(t, inventory, requests)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Fulfill(context.Background(), ids[i], unit.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		// Losers either saw the item already taken or lost the reservation race
		require.True(t,
			errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrInvalidState),
			"unexpected error: %v", err)
	}
	require.Equal(t, 1, successes)
	require.Equal(t, models.ItemStatusAllocated, unit.Status)

	fulfilled := 0
	for _, id := range ids {
		request, err := requests.Get(context.Background(), id)
		require.NoError(t, err)
		if request.Status == models.RequestStatusFulfilled {
			fulfilled++
			require.NotNil(t, request.DonationUnitID)
			require.Equal(t, unit.ID, *request.DonationUnitID)
		}
	}
	require.Equal(t, 1, fulfilled)
}

func TestFulfillRollbackRestoresAvailability(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("A+")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	requests.failMark = true
	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrInconsistent)

	// The reservation was rolled back, so a retry succeeds
	require.Equal(t, models.ItemStatusAvailable, unit.Status)

	requests.failMark = false
	fulfilled, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusFulfilled, fulfilled.Status)
	require.Equal(t, models.ItemStatusAllocated, unit.Status)
}

func TestFulfillAlreadyLinkedRequest(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("A+")
	otherUnit := uuid.New()
	request.DonationUnitID = &otherUnit
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyLinked)

	// The failed attempt released its reservation
	require.Equal(t, models.ItemStatusAvailable, unit.Status)
}

func TestFulfillCommitFailureIsInconsistent(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("A+")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	inventory.failCommit = true
	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrInconsistent)

	// The request was marked fulfilled but the item is stuck Reserved,
	// surfaced for manual reconciliation rather than auto-recovered
	require.Equal(t, models.ItemStatusReserved, unit.Status)
}

func TestFulfillReleaseFailureIsInconsistent(t *testing.T) {
	inventory := newFakeInventory()
	requests := newFakeRequests()

	unit := availableUnit("O-")
	request := pendingBloodRequest("A+")
	inventory.units[unit.ID] = unit
	requests.requests[request.ID] = request

	requests.failMark = true
	inventory.failRelease = true
	service := newTestService(t, inventory, requests)

	_, err := service.Fulfill(context.Background(), request.ID, unit.ID)
	require.ErrorIs(t, err, domain.ErrInconsistent)
}
