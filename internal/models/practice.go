package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical practice-management records, normalized from the data-lake
// columnar tables. Uniqueness is on (connection_id, external id); the sync
// pipeline updates in place and never deletes.

// Patient is one practice patient, built from the patient dimension table and
// enriched from the debtor table when a matching row exists.
type Patient struct {
	ConnectionID  string          `json:"connection_id" db:"connection_id"`
	ExternalID    string          `json:"external_patient_id" db:"external_patient_id"`
	Title         *string         `json:"title,omitempty" db:"title"`
	FirstName     *string         `json:"first_name,omitempty" db:"first_name"`
	LastName      *string         `json:"last_name,omitempty" db:"last_name"`
	Gender        *string         `json:"gender,omitempty" db:"gender"`
	DateOfBirth   *time.Time      `json:"date_of_birth,omitempty" db:"date_of_birth"`
	PhoneHome     *string         `json:"phone_home,omitempty" db:"phone_home"`
	PhoneMobile   *string         `json:"phone_mobile,omitempty" db:"phone_mobile"`
	PhoneWork     *string         `json:"phone_work,omitempty" db:"phone_work"`
	AddressLine1  *string         `json:"address_line1,omitempty" db:"address_line1"`
	Postcode      *string         `json:"postcode,omitempty" db:"postcode"`
	NHSNumber     *string         `json:"nhs_number,omitempty" db:"nhs_number"`
	PatientType   *string         `json:"patient_type,omitempty" db:"patient_type"`
	PatientStatus *string         `json:"patient_status,omitempty" db:"patient_status"`
	ProviderID    *string         `json:"preferred_provider_id,omitempty" db:"preferred_provider_id"`
	SourceSystem  *string         `json:"source_system,omitempty" db:"source_system"`
	RawData       json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	LastSyncedAt  time.Time       `json:"last_synced_at" db:"last_synced_at"`
}

// Appointment is one diary appointment. Status is derived, the lake has no
// single status column.
type Appointment struct {
	ConnectionID       string           `json:"connection_id" db:"connection_id"`
	ExternalID         string           `json:"external_appointment_id" db:"external_appointment_id"`
	PatientID          *string          `json:"patient_id,omitempty" db:"patient_id"`
	ProviderID         *string          `json:"provider_id,omitempty" db:"provider_id"`
	AppointmentDate    time.Time        `json:"appointment_date" db:"appointment_date"`
	StartTime          *string          `json:"start_time,omitempty" db:"start_time"`
	DurationMinutes    *int             `json:"duration_minutes,omitempty" db:"duration_minutes"`
	AppointmentType    *string          `json:"appointment_type,omitempty" db:"appointment_type"`
	AppointmentStatus  *string          `json:"appointment_status,omitempty" db:"appointment_status"`
	CancellationReason *string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	FeeCharged         *decimal.Decimal `json:"fee_charged,omitempty" db:"fee_charged"`
	SourceSystem       *string          `json:"source_system,omitempty" db:"source_system"`
	RawData            json.RawMessage  `json:"raw_data,omitempty" db:"raw_data"`
	LastSyncedAt       time.Time        `json:"last_synced_at" db:"last_synced_at"`
}

// Provider is one clinician.
type Provider struct {
	ConnectionID     string          `json:"connection_id" db:"connection_id"`
	ExternalID       string          `json:"external_provider_id" db:"external_provider_id"`
	FirstName        *string         `json:"first_name,omitempty" db:"first_name"`
	LastName         *string         `json:"last_name,omitempty" db:"last_name"`
	ProviderType     *string         `json:"provider_type,omitempty" db:"provider_type"`
	EmploymentStatus *string         `json:"employment_status,omitempty" db:"employment_status"`
	SourceSystem     *string         `json:"source_system,omitempty" db:"source_system"`
	RawData          json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`
	LastSyncedAt     time.Time       `json:"last_synced_at" db:"last_synced_at"`
}

// Treatment is one completed or planned treatment item.
type Treatment struct {
	ConnectionID    string           `json:"connection_id" db:"connection_id"`
	ExternalID      string           `json:"external_treatment_id" db:"external_treatment_id"`
	AppointmentID   *string          `json:"appointment_id,omitempty" db:"appointment_id"`
	PatientID       *string          `json:"patient_id,omitempty" db:"patient_id"`
	ProviderID      *string          `json:"provider_id,omitempty" db:"provider_id"`
	TreatmentDate   *time.Time       `json:"treatment_date,omitempty" db:"treatment_date"`
	TreatmentCode   *string          `json:"treatment_code,omitempty" db:"treatment_code"`
	Description     *string          `json:"treatment_description,omitempty" db:"treatment_description"`
	Fee             *decimal.Decimal `json:"fee,omitempty" db:"fee"`
	Quantity        *int             `json:"quantity,omitempty" db:"quantity"`
	TreatmentStatus *string          `json:"treatment_status,omitempty" db:"treatment_status"`
	SourceSystem    *string          `json:"source_system,omitempty" db:"source_system"`
	RawData         json.RawMessage  `json:"raw_data,omitempty" db:"raw_data"`
	LastSyncedAt    time.Time        `json:"last_synced_at" db:"last_synced_at"`
}
