package lake

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/normalize"
	"github.com/workfin/practice-api/internal/source"
)

// entityTables maps each practice entity to its gold-layer table.
var entityTables = map[models.EntityType]string{
	models.EntityPatients:     "vw_DimPatients",
	models.EntityAppointments: "vw_Appointments",
	models.EntityProviders:    "vw_providertimes_final",
	models.EntityTreatments:   "vw_Treatments",
}

// DebtorTable holds per-patient billing details used to enrich patient rows.
const DebtorTable = "debtor4"

// Source streams practice-management rows out of the gold layer of the data
// lake. When integrationID is set, rows are filtered on their integration_id
// column at read time, falling back to SiteId for tables exported without
// that column; tables carrying neither pass through unfiltered.
type Source struct {
	store         BlobStore
	prefix        string
	integrationID *string
	logger        zerolog.Logger
}

func NewSource(store BlobStore, prefix string, integrationID *string, logger zerolog.Logger) *Source {
	if prefix == "" {
		prefix = "gold/soe"
	}
	return &Source{store: store, prefix: prefix, integrationID: integrationID, logger: logger}
}

// Fetch streams every data row of the entity's table.
func (s *Source) Fetch(ctx context.Context, entityType models.EntityType, visit func(source.RawRecord) error) error {
	table, ok := entityTables[entityType]
	if !ok {
		return source.Unsupported(entityType)
	}
	return s.FetchTable(ctx, table, visit)
}

// FetchTable streams every data row of one named gold-layer table, applying
// the integration filter when the table carries the column.
func (s *Source) FetchTable(ctx context.Context, table string, visit func(source.RawRecord) error) error {
	files, err := s.listParquet(ctx, s.tablePrefix(table))
	if err != nil {
		return source.Transient("list "+table, err)
	}

	for _, name := range files {
		data, err := s.store.Read(ctx, name)
		if err != nil {
			return source.Transient("read "+name, err)
		}
		err = decodeParquet(data, func(record source.RawRecord) error {
			if !s.matchesIntegration(record) {
				return nil
			}
			return visit(record)
		})
		if err != nil {
			return errors.Wrapf(err, "decode %s", name)
		}
	}
	return nil
}

// Ping lists the available tables without reading any data.
func (s *Source) Ping(ctx context.Context) (source.PingResult, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return source.PingResult{}, source.Transient("list tables", err)
	}
	if len(tables) == 0 {
		return source.PingResult{}, source.Terminal("list tables", errors.New("no tables found in the lake"))
	}
	return source.PingResult{Message: "lake reachable", Tables: tables}, nil
}

// ListTables returns the table folders under the gold-layer prefix.
func (s *Source) ListTables(ctx context.Context) ([]string, error) {
	prefix := s.prefix + "/"
	names, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var tables []string
	for _, name := range names {
		rel := strings.TrimPrefix(name, prefix)
		idx := strings.Index(rel, "/")
		if idx <= 0 {
			continue
		}
		table := rel[:idx]
		if !seen[table] {
			seen[table] = true
			tables = append(tables, table)
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// ListIntegrations scans tables for distinct (integration_id, IntegrationName)
// pairs, preferring the patient dimension table which is known to carry both
// columns. Scanning stops at the first table that yields any pairs.
func (s *Source) ListIntegrations(ctx context.Context) ([]models.LakeIntegration, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, source.Transient("list tables", err)
	}

	ordered := make([]string, 0, len(tables))
	for _, t := range tables {
		if t == "vw_DimPatients" {
			ordered = append([]string{t}, ordered...)
		} else {
			ordered = append(ordered, t)
		}
	}

	for _, table := range ordered {
		pairs := map[string]string{}
		err := s.FetchTable(ctx, table, func(record source.RawRecord) error {
			id := normalize.Str(record["integration_id"])
			if id == nil {
				return nil
			}
			name := normalize.Str(record["IntegrationName"])
			if name == nil {
				name = id
			}
			pairs[*id] = *name
			return nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("table", table).Msg("skipping table during integration scan")
			continue
		}
		if len(pairs) == 0 {
			continue
		}
		out := make([]models.LakeIntegration, 0, len(pairs))
		srcTable := table
		for id, name := range pairs {
			out = append(out, models.LakeIntegration{
				IntegrationID:   id,
				IntegrationName: name,
				SourceTable:     &srcTable,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].IntegrationName < out[j].IntegrationName })
		return out, nil
	}
	return nil, nil
}

func (s *Source) tablePrefix(table string) string {
	return path.Join(s.prefix, table) + "/"
}

// listParquet returns the parquet objects under prefix, skipping the Delta
// Lake transaction log.
func (s *Source) listParquet(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range names {
		if strings.Contains(name, "_delta_log") {
			continue
		}
		if strings.HasSuffix(name, ".parquet") {
			files = append(files, name)
		}
	}
	return files, nil
}

func (s *Source) matchesIntegration(record source.RawRecord) bool {
	if s.integrationID == nil {
		return true
	}
	val, present := record["integration_id"]
	if !present {
		// Some tables are exported with a SiteId column instead.
		sval, ok := record["SiteId"]
		if !ok {
			return true
		}
		id := normalize.Str(sval)
		return id != nil && *id == *s.integrationID
	}
	id := normalize.Str(val)
	return id != nil && *id == *s.integrationID
}
