package xero

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/source"
)

// pageSize is the fixed page length of the accounting API. A short or empty
// page marks the end of the collection.
const pageSize = 100

// endpoint describes one accounting API collection.
type endpoint struct {
	path        string
	responseKey string
	paging      pagingMode
}

type pagingMode int

const (
	pagingNone pagingMode = iota
	pagingPage
	pagingOffset
)

var endpoints = map[models.EntityType]endpoint{
	models.EntityAccounts:         {path: "Accounts", responseKey: "Accounts", paging: pagingNone},
	models.EntityContacts:         {path: "Contacts", responseKey: "Contacts", paging: pagingPage},
	models.EntityInvoices:         {path: "Invoices", responseKey: "Invoices", paging: pagingPage},
	models.EntityPayments:         {path: "Payments", responseKey: "Payments", paging: pagingPage},
	models.EntityBankTransactions: {path: "BankTransactions", responseKey: "BankTransactions", paging: pagingPage},
	models.EntityJournals:         {path: "Journals", responseKey: "Journals", paging: pagingOffset},
}

// Client streams accounting records for one connection's organisation. It
// implements source.Source over the accounting REST API.
type Client struct {
	baseURL      string
	tenantID     string
	connectionID string
	tokens       *TokenManager
	httpClient   *http.Client
}

func NewClient(baseURL, tenantID, connectionID string, tokens *TokenManager, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:      baseURL,
		tenantID:     tenantID,
		connectionID: connectionID,
		tokens:       tokens,
		httpClient:   httpClient,
	}
}

// Fetch walks the collection page by page until the API returns a short page.
func (c *Client) Fetch(ctx context.Context, entityType models.EntityType, visit func(source.RawRecord) error) error {
	ep, ok := endpoints[entityType]
	if !ok {
		return source.Unsupported(entityType)
	}

	page := 1
	offset := 0
	for {
		params := map[string]string{}
		switch ep.paging {
		case pagingPage:
			params["page"] = strconv.Itoa(page)
		case pagingOffset:
			params["offset"] = strconv.Itoa(offset)
		}

		records, err := c.fetchPage(ctx, ep, params)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := visit(rec); err != nil {
				return err
			}
		}
		if ep.paging == pagingNone || len(records) < pageSize {
			return nil
		}
		page++
		offset += len(records)
	}
}

// Ping verifies credentials and organisation access with a single-page
// accounts request.
func (c *Client) Ping(ctx context.Context) (source.PingResult, error) {
	if _, err := c.fetchPage(ctx, endpoints[models.EntityAccounts], nil); err != nil {
		return source.PingResult{}, err
	}
	return source.PingResult{Message: "accounting API reachable"}, nil
}

func (c *Client) fetchPage(ctx context.Context, ep endpoint, params map[string]string) ([]source.RawRecord, error) {
	token, err := c.tokens.AccessToken(ctx, c.connectionID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+ep.path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Xero-Tenant-Id", c.tenantID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, source.Transient(ep.path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, source.ErrNotAuthenticated
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, source.Transient(ep.path, errors.Errorf("API returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, source.Terminal(ep.path, errors.Errorf("API returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, source.Transient(ep.path, err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, source.Terminal(ep.path, errors.Wrap(err, "decode response"))
	}
	var records []source.RawRecord
	if raw, ok := payload[ep.responseKey]; ok {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, source.Terminal(ep.path, errors.Wrap(err, "decode records"))
		}
	}
	return records, nil
}
