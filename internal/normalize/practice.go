package normalize

import (
	"time"

	"github.com/workfin/practice-api/internal/models"
)

// Builders for the practice-management entities read from the data lake.
// Each takes the raw columnar row keyed by the source column names and returns
// nil when the row has no usable external id, the caller counts those as
// skipped.

// DeriveAppointmentStatus collapses the lake's three status columns into one.
// Cancellation wins over failure-to-attend, which wins over the raw category.
func DeriveAppointmentStatus(row map[string]any) *string {
	if Truthy(row["Cancelled"]) {
		s := "Cancelled"
		return &s
	}
	if Truthy(row["FTA"]) {
		s := "FTA"
		return &s
	}
	return Str(row["apptCat"])
}

// DerivePatientStatus derives the patient status from the debtor row's two
// inactive flags. A patient with no debtor row at all keeps a nil status.
func DerivePatientStatus(debtorRow map[string]any) *string {
	s := "Active"
	if Truthy(debtorRow["wInactive"]) || Truthy(debtorRow["Inactive"]) {
		s = "Inactive"
	}
	return &s
}

// BuildPatient maps one patient dimension row, enriched from the matching
// debtor row when one exists.
func BuildPatient(connectionID string, row, debtorRow map[string]any, now time.Time) *models.Patient {
	extID := Str(row["PatientKey"])
	if extID == nil {
		return nil
	}
	p := &models.Patient{
		ConnectionID: connectionID,
		ExternalID:   *extID,
		LastName:     Str(row["Patient_Name"]),
		PatientType:  Str(row["Patient_Code"]),
		ProviderID:   Str(row["dentistId"]),
		SourceSystem: Str(row["IntegrationName"]),
		RawData:      RowJSON(row),
		LastSyncedAt: now,
	}
	if debtorRow != nil {
		if fn := Str(debtorRow["firstName"]); fn != nil {
			p.FirstName = fn
		}
		if ln := Str(debtorRow["lastName"]); ln != nil {
			p.LastName = ln
		}
		p.Title = Str(debtorRow["title"])
		p.Gender = Str(debtorRow["cGender"])
		p.PhoneHome = Str(debtorRow["homePhone"])
		p.PhoneMobile = Str(debtorRow["mobilePhone"])
		p.PhoneWork = Str(debtorRow["workPhone"])
		p.AddressLine1 = Str(debtorRow["address1"])
		p.Postcode = Str(debtorRow["postCode1"])
		p.NHSNumber = Str(debtorRow["NHSNumber"])
		p.DateOfBirth = ParseLakeTimestamp(debtorRow["dateOfBirth"])
		p.PatientStatus = DerivePatientStatus(debtorRow)
		p.RawData = MergeRawJSON(p.RawData, "debtor4", debtorRow)
	}
	return p
}

// DebtorJoinKeys returns the candidate lookup keys for a patient row's debtor
// record, the explicit ridDebtor reference first, the patient key as fallback.
func DebtorJoinKeys(row map[string]any) []string {
	var keys []string
	if rid := Str(row["ridDebtor"]); rid != nil {
		keys = append(keys, *rid)
	}
	if ext := Str(row["PatientKey"]); ext != nil {
		keys = append(keys, *ext)
	}
	return keys
}

// BuildAppointment maps one diary row. Rows without an appointment date carry
// no usable diary information and are dropped alongside id-less rows.
func BuildAppointment(connectionID string, row map[string]any, fallbackSource *string, now time.Time) *models.Appointment {
	extID := Str(row["RecordNum"])
	apptDate := ParseLakeTimestamp(row["AppointmentDate"])
	if extID == nil || apptDate == nil {
		return nil
	}
	source := Str(row["IntegrationName"])
	if source == nil {
		source = fallbackSource
	}
	return &models.Appointment{
		ConnectionID:       connectionID,
		ExternalID:         *extID,
		PatientID:          Str(row["PatientId"]),
		ProviderID:         Str(row["ClinicianCode"]),
		AppointmentDate:    *apptDate,
		StartTime:          ParseClockTime(row["tmTime"]),
		DurationMinutes:    Int(row["AppointmentLength_minutes"]),
		AppointmentType:    Str(row["service"]),
		AppointmentStatus:  DeriveAppointmentStatus(row),
		CancellationReason: Str(row["cancelReason"]),
		FeeCharged:         Decimal(row["cuDentEstimate"]),
		SourceSystem:       source,
		RawData:            RowJSON(row),
		LastSyncedAt:       now,
	}
}

// BuildProvider maps one clinician row. The lake exposes only an active flag,
// not a status string.
func BuildProvider(connectionID string, row map[string]any, fallbackSource *string, now time.Time) *models.Provider {
	extID := Str(row["ProviderCode"])
	if extID == nil {
		return nil
	}
	status := "Inactive"
	if active := Bool(row["Active"]); active != nil && *active {
		status = "Active"
	}
	source := Str(row["Practice"])
	if source == nil {
		source = fallbackSource
	}
	return &models.Provider{
		ConnectionID:     connectionID,
		ExternalID:       *extID,
		FirstName:        Str(row["FirstName"]),
		LastName:         Str(row["LastName"]),
		ProviderType:     Str(row["ProviderType"]),
		EmploymentStatus: &status,
		SourceSystem:     source,
		RawData:          RowJSON(row),
		LastSyncedAt:     now,
	}
}

// BuildTreatment maps one treatment line row.
func BuildTreatment(connectionID string, row map[string]any, fallbackSource *string, now time.Time) *models.Treatment {
	extID := Str(row["RecordNum"])
	if extID == nil {
		return nil
	}
	source := Str(row["IntegrationName"])
	if source == nil {
		source = fallbackSource
	}
	return &models.Treatment{
		ConnectionID:    connectionID,
		ExternalID:      *extID,
		AppointmentID:   Str(row["AppointmentId"]),
		PatientID:       Str(row["PatientId"]),
		ProviderID:      Str(row["ClinicianCode"]),
		TreatmentDate:   ParseLakeTimestamp(row["TreatmentDate"]),
		TreatmentCode:   Str(row["TreatmentCode"]),
		Description:     Str(row["Description"]),
		Fee:             Decimal(row["Fee"]),
		Quantity:        Int(row["Quantity"]),
		TreatmentStatus: Str(row["Status"]),
		SourceSystem:    source,
		RawData:         RowJSON(row),
		LastSyncedAt:    now,
	}
}
