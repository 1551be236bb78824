package repository

import (
	"context"
	"database/sql"

	"github.com/workfin/practice-api/internal/models"
)

// PracticeRepository writes normalized practice-management records. Upserts
// are keyed on (connection_id, external id) and preserve first_synced_at from
// the row's first appearance.
type PracticeRepository interface {
	UpsertPatients(ctx context.Context, records []*models.Patient) (UpsertResult, error)
	UpsertAppointments(ctx context.Context, records []*models.Appointment) (UpsertResult, error)
	UpsertProviders(ctx context.Context, records []*models.Provider) (UpsertResult, error)
	UpsertTreatments(ctx context.Context, records []*models.Treatment) (UpsertResult, error)
}

type practiceRepository struct {
	db *sql.DB
}

func NewPracticeRepository(db *sql.DB) PracticeRepository {
	return &practiceRepository{db: db}
}

func (r *practiceRepository) UpsertPatients(ctx context.Context, records []*models.Patient) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		p := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO practice.patients (
				connection_id, external_patient_id, title, first_name, last_name, gender,
				date_of_birth, phone_home, phone_mobile, phone_work, address_line1, postcode,
				nhs_number, patient_type, patient_status, preferred_provider_id, source_system,
				raw_data, first_synced_at, last_synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
			ON CONFLICT (connection_id, external_patient_id) DO UPDATE SET
				title = EXCLUDED.title, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
				gender = EXCLUDED.gender, date_of_birth = EXCLUDED.date_of_birth,
				phone_home = EXCLUDED.phone_home, phone_mobile = EXCLUDED.phone_mobile,
				phone_work = EXCLUDED.phone_work, address_line1 = EXCLUDED.address_line1,
				postcode = EXCLUDED.postcode, nhs_number = EXCLUDED.nhs_number,
				patient_type = EXCLUDED.patient_type, patient_status = EXCLUDED.patient_status,
				preferred_provider_id = EXCLUDED.preferred_provider_id,
				source_system = EXCLUDED.source_system, raw_data = EXCLUDED.raw_data,
				last_synced_at = EXCLUDED.last_synced_at
			RETURNING (xmax = 0)`,
			p.ConnectionID, p.ExternalID, p.Title, p.FirstName, p.LastName, p.Gender,
			p.DateOfBirth, p.PhoneHome, p.PhoneMobile, p.PhoneWork, p.AddressLine1, p.Postcode,
			p.NHSNumber, p.PatientType, p.PatientStatus, p.ProviderID, p.SourceSystem,
			rawJSON(p.RawData), p.LastSyncedAt,
		))
	})
}

func (r *practiceRepository) UpsertAppointments(ctx context.Context, records []*models.Appointment) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		a := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO practice.appointments (
				connection_id, external_appointment_id, patient_id, provider_id, appointment_date,
				start_time, duration_minutes, appointment_type, appointment_status,
				cancellation_reason, fee_charged, source_system, raw_data, first_synced_at, last_synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
			ON CONFLICT (connection_id, external_appointment_id) DO UPDATE SET
				patient_id = EXCLUDED.patient_id, provider_id = EXCLUDED.provider_id,
				appointment_date = EXCLUDED.appointment_date, start_time = EXCLUDED.start_time,
				duration_minutes = EXCLUDED.duration_minutes, appointment_type = EXCLUDED.appointment_type,
				appointment_status = EXCLUDED.appointment_status,
				cancellation_reason = EXCLUDED.cancellation_reason, fee_charged = EXCLUDED.fee_charged,
				source_system = EXCLUDED.source_system, raw_data = EXCLUDED.raw_data,
				last_synced_at = EXCLUDED.last_synced_at
			RETURNING (xmax = 0)`,
			a.ConnectionID, a.ExternalID, a.PatientID, a.ProviderID, a.AppointmentDate,
			a.StartTime, a.DurationMinutes, a.AppointmentType, a.AppointmentStatus,
			a.CancellationReason, a.FeeCharged, a.SourceSystem, rawJSON(a.RawData), a.LastSyncedAt,
		))
	})
}

func (r *practiceRepository) UpsertProviders(ctx context.Context, records []*models.Provider) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		p := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO practice.providers (
				connection_id, external_provider_id, first_name, last_name, provider_type,
				employment_status, source_system, raw_data, first_synced_at, last_synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			ON CONFLICT (connection_id, external_provider_id) DO UPDATE SET
				first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
				provider_type = EXCLUDED.provider_type, employment_status = EXCLUDED.employment_status,
				source_system = EXCLUDED.source_system, raw_data = EXCLUDED.raw_data,
				last_synced_at = EXCLUDED.last_synced_at
			RETURNING (xmax = 0)`,
			p.ConnectionID, p.ExternalID, p.FirstName, p.LastName, p.ProviderType,
			p.EmploymentStatus, p.SourceSystem, rawJSON(p.RawData), p.LastSyncedAt,
		))
	})
}

func (r *practiceRepository) UpsertTreatments(ctx context.Context, records []*models.Treatment) (UpsertResult, error) {
	return upsertBatch(ctx, r.db, len(records), func(ctx context.Context, tx *sql.Tx, i int) (bool, error) {
		t := records[i]
		return scanInserted(tx.QueryRowContext(ctx,
			`INSERT INTO practice.treatments (
				connection_id, external_treatment_id, appointment_id, patient_id, provider_id,
				treatment_date, treatment_code, treatment_description, fee, quantity,
				treatment_status, source_system, raw_data, first_synced_at, last_synced_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
			ON CONFLICT (connection_id, external_treatment_id) DO UPDATE SET
				appointment_id = EXCLUDED.appointment_id, patient_id = EXCLUDED.patient_id,
				provider_id = EXCLUDED.provider_id, treatment_date = EXCLUDED.treatment_date,
				treatment_code = EXCLUDED.treatment_code, treatment_description = EXCLUDED.treatment_description,
				fee = EXCLUDED.fee, quantity = EXCLUDED.quantity, treatment_status = EXCLUDED.treatment_status,
				source_system = EXCLUDED.source_system, raw_data = EXCLUDED.raw_data,
				last_synced_at = EXCLUDED.last_synced_at
			RETURNING (xmax = 0)`,
			t.ConnectionID, t.ExternalID, t.AppointmentID, t.PatientID, t.ProviderID,
			t.TreatmentDate, t.TreatmentCode, t.Description, t.Fee, t.Quantity,
			t.TreatmentStatus, t.SourceSystem, rawJSON(t.RawData), t.LastSyncedAt,
		))
	})
}
