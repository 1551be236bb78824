package syncer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/normalize"
	"github.com/workfin/practice-api/internal/notification"
	"github.com/workfin/practice-api/internal/repository"
	"github.com/workfin/practice-api/internal/source"
	"github.com/workfin/practice-api/internal/source/lake"
)

// ErrConnectionNotFound is returned for sync requests against an id that does
// not exist (or was hard-deleted).
var ErrConnectionNotFound = errors.New("connection not found")

// Orchestrator drives one sync run end to end: lock, history row, source
// fetch, normalization, batched upserts, finalization. It owns no HTTP or
// workflow concerns; the handlers and workflow activities call into it.
type Orchestrator struct {
	connections repository.ConnectionRepository
	history     repository.HistoryRepository
	catalog     repository.CatalogRepository
	accounting  repository.AccountingRepository
	practice    repository.PracticeRepository
	notifier    notification.Service
	sources     SourceFactory
	locker      Locker
	lockTTL     time.Duration
	logger      zerolog.Logger

	// now is stubbed in tests
	now func() time.Time
}

func NewOrchestrator(
	connections repository.ConnectionRepository,
	history repository.HistoryRepository,
	catalog repository.CatalogRepository,
	accounting repository.AccountingRepository,
	practice repository.PracticeRepository,
	notifier notification.Service,
	sources SourceFactory,
	locker Locker,
	lockTTL time.Duration,
	logger zerolog.Logger,
) *Orchestrator {
	if locker == nil {
		locker = NewMutexLocker()
	}
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}
	return &Orchestrator{
		connections: connections,
		history:     history,
		catalog:     catalog,
		accounting:  accounting,
		practice:    practice,
		notifier:    notifier,
		sources:     sources,
		locker:      locker,
		lockTTL:     lockTTL,
		logger:      logger.With().Str("component", "syncer").Logger(),
		now:         time.Now,
	}
}

// SyncEntity syncs one entity type for one connection. Every invocation gets
// its own history row, created RUNNING before the first source read and
// finalized exactly once.
func (o *Orchestrator) SyncEntity(ctx context.Context, connectionID string, entityType models.EntityType, triggeredBy string) (*models.SyncResult, error) {
	conn, err := o.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, errors.Wrap(err, "load connection")
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}
	if !models.IsValidEntityType(string(entityType)) {
		return nil, errors.Errorf("unknown entity type %q", entityType)
	}

	release, err := o.locker.Acquire(ctx, lockKey(conn.ID, string(entityType)), o.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	return o.syncLocked(ctx, conn, entityType, triggeredBy)
}

// SyncAll syncs every enabled entity of the connection in the fixed entity
// order. Failures are isolated per entity: one failing entity is recorded in
// the result map and the rest still run.
func (o *Orchestrator) SyncAll(ctx context.Context, connectionID, triggeredBy string) (map[models.EntityType]*models.SyncResult, error) {
	conn, err := o.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, errors.Wrap(err, "load connection")
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}

	results := make(map[models.EntityType]*models.SyncResult)
	for _, entity := range conn.EnabledEntities() {
		result, err := o.SyncEntity(ctx, connectionID, entity, triggeredBy)
		if err != nil {
			if result == nil {
				result = &models.SyncResult{Status: "failed", Error: err.Error()}
			}
			o.logger.Error().Err(err).
				Str("connection_id", connectionID).
				Str("entity", string(entity)).
				Msg("entity sync failed")
		}
		results[entity] = result
	}
	return results, nil
}

// Test checks that the connection's source is reachable and updates the
// connection status accordingly.
func (o *Orchestrator) Test(ctx context.Context, connectionID string) (*models.TestResult, error) {
	conn, err := o.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, errors.Wrap(err, "load connection")
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}

	src, err := o.buildSource(ctx, conn)
	if err == nil {
		var ping source.PingResult
		ping, err = src.Ping(ctx)
		if err == nil {
			conn.Status = models.ConnectionStatusConnected
			if _, updErr := o.connections.Update(ctx, conn); updErr != nil {
				o.logger.Warn().Err(updErr).Str("connection_id", conn.ID).Msg("failed to update connection status after test")
			}
			return &models.TestResult{Status: "success", Message: ping.Message, TablesFound: ping.Tables}, nil
		}
	}

	conn.Status = models.ConnectionStatusError
	if _, updErr := o.connections.Update(ctx, conn); updErr != nil {
		o.logger.Warn().Err(updErr).Str("connection_id", conn.ID).Msg("failed to update connection status after test")
	}
	return &models.TestResult{Status: "failed", Message: err.Error()}, nil
}

// SyncCatalog refreshes the lake integration catalog used for scope
// resolution. Returns the number of catalog rows written.
func (o *Orchestrator) SyncCatalog(ctx context.Context) (int, error) {
	src := o.sources.LakeSource(nil)
	integrations, err := src.ListIntegrations(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "scan lake integrations")
	}
	count, err := o.catalog.Upsert(ctx, integrations)
	if err != nil {
		return count, errors.Wrap(err, "store lake integrations")
	}
	return count, nil
}

func (o *Orchestrator) syncLocked(ctx context.Context, conn *models.Connection, entityType models.EntityType, triggeredBy string) (*models.SyncResult, error) {
	started := o.now().UTC()
	hist := &models.SyncHistory{
		ConnectionID: conn.ID,
		SyncType:     syncType(triggeredBy),
		SyncScope:    string(entityType),
		Status:       models.SyncStatusRunning,
		StartedAt:    started,
		TriggeredBy:  triggeredBy,
	}
	if _, err := o.history.Create(ctx, hist); err != nil {
		return nil, errors.Wrap(err, "record sync start")
	}

	o.logger.Info().
		Str("connection_id", conn.ID).
		Str("entity", string(entityType)).
		Str("triggered_by", triggeredBy).
		Msg("sync started")
	o.notifier.NotifySyncStarted(ctx, conn, string(entityType))

	var counts models.SyncCounts
	runErr := o.runEntity(ctx, conn, entityType, &counts)

	completed := o.now().UTC()
	duration := int(completed.Sub(started).Seconds())

	if runErr != nil {
		msg := runErr.Error()
		if err := o.history.Finalize(ctx, hist.ID, models.SyncStatusFailed, counts, &msg, completed, duration); err != nil {
			o.logger.Error().Err(err).Str("history_id", hist.ID).Msg("failed to finalize sync history")
		}
		if err := o.connections.UpdateSyncStatus(ctx, conn.ID, models.SyncStatusFailed, &msg, nil, completed); err != nil {
			o.logger.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to update connection after sync")
		}
		o.notifier.NotifySyncFailed(ctx, conn, string(entityType), msg)
		return &models.SyncResult{Status: "failed", Counts: counts, DurationSeconds: duration, Error: msg}, runErr
	}

	if err := o.history.Finalize(ctx, hist.ID, models.SyncStatusCompleted, counts, nil, completed, duration); err != nil {
		o.logger.Error().Err(err).Str("history_id", hist.ID).Msg("failed to finalize sync history")
	}
	processed := counts.Processed
	if err := o.connections.UpdateSyncStatus(ctx, conn.ID, models.SyncStatusCompleted, nil, &processed, completed); err != nil {
		o.logger.Error().Err(err).Str("connection_id", conn.ID).Msg("failed to update connection after sync")
	}
	o.notifier.NotifySyncCompleted(ctx, conn, string(entityType), counts)

	o.logger.Info().
		Str("connection_id", conn.ID).
		Str("entity", string(entityType)).
		Int("processed", counts.Processed).
		Int("created", counts.Created).
		Int("updated", counts.Updated).
		Int("failed", counts.Failed).
		Int("duration_seconds", duration).
		Msg("sync completed")

	return &models.SyncResult{Status: "success", Counts: counts, DurationSeconds: duration}, nil
}

func (o *Orchestrator) runEntity(ctx context.Context, conn *models.Connection, entityType models.EntityType, counts *models.SyncCounts) error {
	src, err := o.buildSource(ctx, conn)
	if err != nil {
		return err
	}

	now := o.now().UTC()
	tags := normalize.TenantTags{
		TenantID:      conn.TenantID,
		TenantName:    conn.TenantName,
		IntegrationID: &conn.IntegrationID,
	}

	switch entityType {
	case models.EntityAccounts:
		return syncPipeline(ctx, src, entityType, nil, func(rec source.RawRecord) *models.Account {
			return normalize.BuildAccount(tags, rec, now)
		}, o.accounting.UpsertAccounts, counts)
	case models.EntityContacts:
		return syncPipeline(ctx, src, entityType, nil, func(rec source.RawRecord) *models.Contact {
			return normalize.BuildContact(tags, rec, now)
		}, o.accounting.UpsertContacts, counts)
	case models.EntityInvoices:
		return syncPipeline(ctx, src, entityType, nil, func(rec source.RawRecord) *models.Invoice {
			return normalize.BuildInvoice(tags, rec, now)
		}, o.accounting.UpsertInvoices, counts)
	case models.EntityPayments:
		return syncPipeline(ctx, src, entityType, nil, func(rec source.RawRecord) *models.Payment {
			return normalize.BuildPayment(tags, rec, now)
		}, o.accounting.UpsertPayments, counts)
	case models.EntityBankTransactions:
		return syncPipeline(ctx, src, entityType, nil, func(rec source.RawRecord) *models.BankTransaction {
			return normalize.BuildBankTransaction(tags, rec, now)
		}, o.accounting.UpsertBankTransactions, counts)
	case models.EntityJournals:
		return syncPipeline(ctx, src, entityType, nil, func(rec source.RawRecord) *models.Journal {
			return normalize.BuildJournal(tags, rec, now)
		}, o.accounting.UpsertJournals, counts)
	case models.EntityPatients:
		debtors := o.loadDebtors(ctx, src)
		return syncPipeline(ctx, src, entityType, normalize.IsDeltaMetadataRow, func(rec source.RawRecord) *models.Patient {
			var debtorRow map[string]any
			for _, key := range normalize.DebtorJoinKeys(rec) {
				if row, ok := debtors[key]; ok {
					debtorRow = row
					break
				}
			}
			return normalize.BuildPatient(conn.ID, rec, debtorRow, now)
		}, o.practice.UpsertPatients, counts)
	case models.EntityAppointments:
		fallback := &conn.IntegrationName
		return syncPipeline(ctx, src, entityType, normalize.IsDeltaMetadataRow, func(rec source.RawRecord) *models.Appointment {
			return normalize.BuildAppointment(conn.ID, rec, fallback, now)
		}, o.practice.UpsertAppointments, counts)
	case models.EntityProviders:
		fallback := &conn.IntegrationName
		return syncPipeline(ctx, src, entityType, normalize.IsDeltaMetadataRow, func(rec source.RawRecord) *models.Provider {
			return normalize.BuildProvider(conn.ID, rec, fallback, now)
		}, o.practice.UpsertProviders, counts)
	case models.EntityTreatments:
		fallback := &conn.IntegrationName
		return syncPipeline(ctx, src, entityType, normalize.IsDeltaMetadataRow, func(rec source.RawRecord) *models.Treatment {
			return normalize.BuildTreatment(conn.ID, rec, fallback, now)
		}, o.practice.UpsertTreatments, counts)
	default:
		return errors.Errorf("unknown entity type %q", entityType)
	}
}

// loadDebtors indexes the debtor enrichment table by record number. A source
// that cannot serve named tables, or a read failure, yields an empty lookup:
// patients still sync, just without enrichment.
func (o *Orchestrator) loadDebtors(ctx context.Context, src source.Source) map[string]map[string]any {
	debtors := make(map[string]map[string]any)
	reader, ok := src.(source.TableReader)
	if !ok {
		return debtors
	}
	err := reader.FetchTable(ctx, lake.DebtorTable, func(rec source.RawRecord) error {
		if normalize.IsDeltaMetadataRow(rec) {
			return nil
		}
		if key := normalize.Str(rec["RecordNum"]); key != nil {
			debtors[*key] = rec
		}
		return nil
	})
	if err != nil {
		o.logger.Warn().Err(err).Msg("debtor table unavailable, syncing patients without enrichment")
		return make(map[string]map[string]any)
	}
	return debtors
}

func (o *Orchestrator) buildSource(ctx context.Context, conn *models.Connection) (source.Source, error) {
	var scope *string
	if conn.DataSource == models.DataSourceGoldLayer {
		scope = o.resolveScope(ctx, conn)
	}
	return o.sources.ForConnection(conn, scope)
}

// resolveScope decides which lake integration the connection reads. An
// explicit external practice id always wins; otherwise the integration name
// is looked up in the catalog. No match means the connection reads unscoped.
func (o *Orchestrator) resolveScope(ctx context.Context, conn *models.Connection) *string {
	if conn.ExternalPracticeID != nil && *conn.ExternalPracticeID != "" {
		return conn.ExternalPracticeID
	}
	if conn.IntegrationName == "" {
		return nil
	}
	id, err := o.catalog.ResolveIDByName(ctx, conn.IntegrationName)
	if err != nil {
		o.logger.Warn().Err(err).Str("integration_name", conn.IntegrationName).Msg("catalog lookup failed, syncing unscoped")
		return nil
	}
	return id
}

// syncPipeline streams records from the source through normalization into
// fixed-size upsert batches, tallying the outcomes.
func syncPipeline[T any](
	ctx context.Context,
	src source.Source,
	entityType models.EntityType,
	skip func(map[string]any) bool,
	build func(source.RawRecord) *T,
	flush func(ctx context.Context, batch []*T) (repository.UpsertResult, error),
	counts *models.SyncCounts,
) error {
	b := newBatcher(batchSize, flush)
	err := src.Fetch(ctx, entityType, func(rec source.RawRecord) error {
		if skip != nil && skip(rec) {
			counts.Skipped++
			return nil
		}
		item := build(rec)
		if item == nil {
			counts.Skipped++
			return nil
		}
		counts.Processed++
		return b.add(ctx, item)
	})
	if err == nil {
		_, err = b.finish(ctx)
	}
	// Committed batches count even when the stream fails mid-way, so a failed
	// history row still shows the partial progress.
	counts.Created += b.result.Created
	counts.Updated += b.result.Updated
	counts.Failed += b.result.Failed
	return err
}

func syncType(triggeredBy string) string {
	if triggeredBy == "manual" || triggeredBy == "" {
		return models.SyncTypeManual
	}
	return models.SyncTypeScheduled
}
