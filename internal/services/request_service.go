package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/bloodbank/services/bank/internal/domain"
	"example.com/bloodbank/services/bank/internal/models"
	"example.com/bloodbank/services/bank/internal/repositories"
)

// RequestService handles creation and lifecycle of recipient requests.
type RequestService struct {
	requests   *repositories.RequestRepository
	recipients *repositories.RecipientRepository
	hospitals  *repositories.HospitalRepository
}

// NewRequestService creates a new request service
func NewRequestService(
	requests *repositories.RequestRepository,
	recipients *repositories.RecipientRepository,
	hospitals *repositories.HospitalRepository,
) *RequestService {
	return &RequestService{
		requests:   requests,
		recipients: recipients,
		hospitals:  hospitals,
	}
}

// Create registers a new pending request. The requested attribute (blood
// group or required organ) is snapshotted from the recipient record.
func (s *RequestService) Create(ctx context.Context, recipientID, hospitalID uuid.UUID, requestType models.RequestType) (*models.Request, error) {
	recipient, err := s.recipients.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
		return nil, err
	}

	request := &models.Request{
		ID:          uuid.New(),
		RecipientID: recipient.ID,
		HospitalID:  hospitalID,
		Type:        requestType,
		Status:      models.RequestStatusPending,
	}

	switch requestType {
	case models.RequestTypeBlood:
		group, err := domain.ParseBloodGroup(recipient.BloodGroup)
		if err != nil {
			return nil, errors.Wrap(err, "recipient record carries an invalid blood group")
		}
		request.BloodGroup = string(group)
	case models.RequestTypeOrgan:
		organType := domain.NormalizeOrganType(recipient.OrganRequired)
		if organType == "" {
			return nil, errors.New("recipient has no organ requirement on record")
		}
		request.OrganType = organType
	default:
		return nil, errors.Errorf("unknown request type %s", requestType)
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", request.ID.String()).
		Str("recipient_id", recipient.ID.String()).
		Str("type", string(requestType)).
		Msg("request registered")

	return request, nil
}

// Get fetches a request by ID
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	return s.requests.Get(ctx, id)
}

// List lists all requests
func (s *RequestService) List(ctx context.Context) ([]models.Request, error) {
	return s.requests.List(ctx)
}

// ListPending lists pending requests
func (s *RequestService) ListPending(ctx context.Context) ([]models.Request, error) {
	return s.requests.ListPending(ctx)
}

// Cancel transitions a pending request to Cancelled
func (s *RequestService) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.requests.Cancel(ctx, id)
}

// Delete removes a request that is not fulfilled
func (s *RequestService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.requests.Delete(ctx, id)
}

// PendingCountForRecipient returns the number of pending requests a recipient
// has open.
func (s *RequestService) PendingCountForRecipient(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if _, err := s.recipients.GetByID(ctx, recipientID); err != nil {
		return 0, err
	}
	return s.requests.CountPendingForRecipient(ctx, recipientID)
}
