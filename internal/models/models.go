package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/bloodbank/services/bank/internal/domain"
)

// ItemStatus is the lifecycle status of an inventory item (donation unit or organ).
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "Available"
	ItemStatusReserved  ItemStatus = "Reserved"
	ItemStatusAllocated ItemStatus = "Allocated"
	ItemStatusExpired   ItemStatus = "Expired"
	ItemStatusDiscarded ItemStatus = "Discarded"
)

// Terminal reports whether no further transition is allowed from the status.
func (s ItemStatus) Terminal() bool {
	return s == ItemStatusAllocated || s == ItemStatusExpired || s == ItemStatusDiscarded
}

// RequestStatus is the lifecycle status of a recipient request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusFulfilled RequestStatus = "Fulfilled"
	RequestStatusCancelled RequestStatus = "Cancelled"
)

// RequestType distinguishes blood requests from organ requests.
type RequestType string

const (
	RequestTypeBlood RequestType = "Blood"
	RequestTypeOrgan RequestType = "Organ"
)

// ItemKind distinguishes the two inventory item kinds.
type ItemKind string

const (
	ItemKindDonationUnit ItemKind = "donation_unit"
	ItemKindOrgan        ItemKind = "organ"
)

// Donor represents a registered blood/organ donor
type Donor struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	AdminID        *uuid.UUID     `gorm:"type:uuid" json:"admin_id"`
	Name           string         `gorm:"not null" json:"name"`
	Age            int            `gorm:"not null" json:"age"`
	Gender         string         `json:"gender"`
	BloodGroup     string         `gorm:"not null" json:"blood_group"`
	Contact        string         `json:"contact"`
	MedicalHistory string         `json:"medical_history"`
	DonationUnits  []DonationUnit `gorm:"foreignKey:DonorID" json:"-"`
	Organs         []Organ        `gorm:"foreignKey:DonorID" json:"-"`
}

// Recipient represents a registered recipient
type Recipient struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	AdminID       *uuid.UUID     `gorm:"type:uuid" json:"admin_id"`
	Name          string         `gorm:"not null" json:"name"`
	Age           int            `gorm:"not null" json:"age"`
	Gender        string         `json:"gender"`
	BloodGroup    string         `gorm:"not null" json:"blood_group"`
	OrganRequired string         `json:"organ_required"`
	Contact       string         `json:"contact"`
	Requests      []Request      `gorm:"foreignKey:RecipientID" json:"-"`
}

// Hospital represents a hospital placing requests
type Hospital struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Address   string         `json:"address"`
	Contact   string         `json:"contact"`
	Requests  []Request      `gorm:"foreignKey:HospitalID" json:"-"`
}

// Admin represents a bank administrator
type Admin struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"not null;uniqueIndex" json:"email"`
}

// DonationUnit represents a single collected blood donation with a volume and
// expiry. BloodGroup is snapshotted from the donor at intake so availability
// filtering and compatibility checks never need a join.
type DonationUnit struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	DonorID    uuid.UUID      `gorm:"type:uuid;not null" json:"donor_id"`
	BloodGroup string         `gorm:"not null" json:"blood_group"`
	QuantityML int            `gorm:"not null" json:"quantity_ml"`
	DonatedAt  time.Time      `gorm:"not null" json:"donated_at"`
	ExpiresAt  time.Time      `gorm:"not null;index" json:"expires_at"`
	Status     ItemStatus     `gorm:"not null;default:'Available';index" json:"status"`
	Donor      Donor          `gorm:"foreignKey:DonorID" json:"-"`
}

// Organ represents a harvested organ tracked from a specific donor until
// allocation. OrganType is stored normalized (lower case, trimmed).
type Organ struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DonorID   uuid.UUID      `gorm:"type:uuid;not null" json:"donor_id"`
	OrganType string         `gorm:"not null" json:"organ_type"`
	Status    ItemStatus     `gorm:"not null;default:'Available';index" json:"status"`
	RequestID *uuid.UUID     `gorm:"type:uuid" json:"request_id"`
	Donor     Donor          `gorm:"foreignKey:DonorID" json:"-"`
}

// Request represents a recipient's need for blood or an organ. The requested
// attribute (blood group or organ type) is snapshotted from the recipient at
// creation time. The fulfillment linkage (DonationUnitID or OrganID) is set
// if and only if Status is Fulfilled.
type Request struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	RecipientID    uuid.UUID      `gorm:"type:uuid;not null" json:"recipient_id"`
	HospitalID     uuid.UUID      `gorm:"type:uuid;not null" json:"hospital_id"`
	Type           RequestType    `gorm:"not null" json:"type"`
	BloodGroup     string         `json:"blood_group,omitempty"`
	OrganType      string         `json:"organ_type,omitempty"`
	Status         RequestStatus  `gorm:"not null;default:'Pending';index" json:"status"`
	DonationUnitID *uuid.UUID     `gorm:"type:uuid" json:"donation_unit_id"`
	OrganID        *uuid.UUID     `gorm:"type:uuid" json:"organ_id"`
	FulfilledAt    *time.Time     `json:"fulfilled_at"`
	Recipient      Recipient      `gorm:"foreignKey:RecipientID" json:"recipient"`
	Hospital       Hospital       `gorm:"foreignKey:HospitalID" json:"hospital"`
}

// Linked reports whether the request carries a fulfillment linkage.
func (r *Request) Linked() bool {
	return r.DonationUnitID != nil || r.OrganID != nil
}

// RequestedGroup returns the request's blood group as a domain type. Only
// meaningful for blood requests.
func (r *Request) RequestedGroup() domain.BloodGroup {
	return domain.BloodGroup(r.BloodGroup)
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Admin{},
		&Hospital{},
		&Donor{},
		&Recipient{},
		&DonationUnit{},
		&Organ{},
		&Request{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
