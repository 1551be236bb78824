package syncer

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/source"
	"github.com/workfin/practice-api/internal/source/lake"
	"github.com/workfin/practice-api/internal/source/xero"
)

// SourceFactory builds the right adapter for a connection. integrationID is
// the resolved lake scope; API-backed connections ignore it.
type SourceFactory interface {
	ForConnection(conn *models.Connection, integrationID *string) (source.Source, error)
	LakeSource(integrationID *string) *lake.Source
}

type sourceFactory struct {
	store       lake.BlobStore
	lakePrefix  string
	tokens      *xero.TokenManager
	xeroBaseURL string
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewSourceFactory(store lake.BlobStore, lakePrefix string, tokens *xero.TokenManager, xeroBaseURL string, logger zerolog.Logger) SourceFactory {
	return &sourceFactory{
		store:       store,
		lakePrefix:  lakePrefix,
		tokens:      tokens,
		xeroBaseURL: xeroBaseURL,
		logger:      logger,
	}
}

func (f *sourceFactory) ForConnection(conn *models.Connection, integrationID *string) (source.Source, error) {
	switch conn.DataSource {
	case models.DataSourceGoldLayer:
		if f.store == nil {
			return nil, errors.New("no lake store configured")
		}
		return f.LakeSource(integrationID), nil
	case models.DataSourceDirectAPI:
		if conn.IntegrationType != models.IntegrationXero {
			return nil, errors.Errorf("no API adapter for integration type %s", conn.IntegrationType)
		}
		// integration_id holds the organisation id for API connections
		return xero.NewClient(f.xeroBaseURL, conn.IntegrationID, conn.ID, f.tokens, f.httpClient), nil
	default:
		return nil, errors.Errorf("unknown data source %q", conn.DataSource)
	}
}

func (f *sourceFactory) LakeSource(integrationID *string) *lake.Source {
	return lake.NewSource(f.store, f.lakePrefix, integrationID, f.logger)
}
