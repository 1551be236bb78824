package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/source"
)

// memTokenStore keeps tokens in memory and records saves.
type memTokenStore struct {
	tokens map[string]*models.OAuthToken
	saves  []*models.OAuthToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: map[string]*models.OAuthToken{}}
}

func (s *memTokenStore) GetToken(ctx context.Context, connectionID string) (*models.OAuthToken, error) {
	return s.tokens[connectionID], nil
}

func (s *memTokenStore) SaveToken(ctx context.Context, token *models.OAuthToken) error {
	s.tokens[token.ConnectionID] = token
	s.saves = append(s.saves, token)
	return nil
}

func testOAuthConfig(tokenURL string) OAuthConfig {
	return OAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthorizeURL: "https://login.example.com/authorize",
		TokenURL:     tokenURL,
		RedirectURI:  "https://api.example.com/xero/callback",
		Scopes:       "offline_access accounting.transactions.read",
	}
}

func validManager(store TokenStore) *TokenManager {
	return NewTokenManager(store, testOAuthConfig("http://unused.invalid/token"), nil)
}

func freshToken(connID string) *models.OAuthToken {
	return &models.OAuthToken{
		ConnectionID: connID,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		TokenType:    "Bearer",
	}
}

func invoicePage(n int, from int) []map[string]any {
	page := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		page[i] = map[string]any{"InvoiceID": fmt.Sprintf("inv-%d", from+i)}
	}
	return page
}

func TestFetchPaginatesUntilShortPage(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Xero-Tenant-Id"); got != "org-1" {
			t.Errorf("Xero-Tenant-Id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("Authorization = %q", got)
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		n, _ := strconv.Atoi(page)
		count := pageSize
		if n == 3 {
			count = 7 // short page ends the walk
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Invoices": invoicePage(count, (n-1)*pageSize),
		})
	}))
	defer srv.Close()

	store := newMemTokenStore()
	store.tokens["conn-1"] = freshToken("conn-1")
	c := NewClient(srv.URL, "org-1", "conn-1", validManager(store), nil)

	var got []source.RawRecord
	err := c.Fetch(context.Background(), models.EntityInvoices, func(rec source.RawRecord) error {
		got = append(got, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2*pageSize+7 {
		t.Errorf("records = %d, want %d", len(got), 2*pageSize+7)
	}
	if len(pages) != 3 || pages[0] != "1" || pages[2] != "3" {
		t.Errorf("pages requested = %v", pages)
	}
}

func TestFetchJournalsUsesOffsetPaging(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		count := 0
		if offset == "0" {
			count = pageSize
		}
		records := make([]map[string]any, count)
		for i := range records {
			records[i] = map[string]any{"JournalID": fmt.Sprintf("jrn-%d", i)}
		}
		json.NewEncoder(w).Encode(map[string]any{"Journals": records})
	}))
	defer srv.Close()

	store := newMemTokenStore()
	store.tokens["conn-1"] = freshToken("conn-1")
	c := NewClient(srv.URL, "org-1", "conn-1", validManager(store), nil)

	n := 0
	if err := c.Fetch(context.Background(), models.EntityJournals, func(rec source.RawRecord) error {
		n++
		return nil
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != pageSize {
		t.Errorf("records = %d", n)
	}
	if len(offsets) != 2 || offsets[0] != "0" || offsets[1] != strconv.Itoa(pageSize) {
		t.Errorf("offsets = %v", offsets)
	}
}

func TestFetchAccountsIsUnpaged(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		records := make([]map[string]any, pageSize) // a full page still means done
		for i := range records {
			records[i] = map[string]any{"AccountID": fmt.Sprintf("acc-%d", i)}
		}
		json.NewEncoder(w).Encode(map[string]any{"Accounts": records})
	}))
	defer srv.Close()

	store := newMemTokenStore()
	store.tokens["conn-1"] = freshToken("conn-1")
	c := NewClient(srv.URL, "org-1", "conn-1", validManager(store), nil)

	n := 0
	if err := c.Fetch(context.Background(), models.EntityAccounts, func(rec source.RawRecord) error {
		n++
		return nil
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 1 || n != pageSize {
		t.Errorf("calls = %d records = %d", calls, n)
	}
}

func TestFetchErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
		notAuth   bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, notAuth: true},
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "server error", status: http.StatusBadGateway, transient: true},
		{name: "bad request", status: http.StatusBadRequest, transient: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			store := newMemTokenStore()
			store.tokens["conn-1"] = freshToken("conn-1")
			c := NewClient(srv.URL, "org-1", "conn-1", validManager(store), nil)

			err := c.Fetch(context.Background(), models.EntityContacts, func(rec source.RawRecord) error { return nil })
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.notAuth {
				if !errors.Is(err, source.ErrNotAuthenticated) {
					t.Fatalf("err = %v, want ErrNotAuthenticated", err)
				}
				return
			}
			if source.IsTransient(err) != tt.transient {
				t.Fatalf("IsTransient(%v) = %v, want %v", err, source.IsTransient(err), tt.transient)
			}
		})
	}
}

func TestFetchUnsupportedEntity(t *testing.T) {
	store := newMemTokenStore()
	c := NewClient("http://unused.invalid", "org-1", "conn-1", validManager(store), nil)
	err := c.Fetch(context.Background(), models.EntityPatients, func(rec source.RawRecord) error { return nil })
	if err == nil || source.IsTransient(err) {
		t.Fatalf("err = %v, want terminal unsupported error", err)
	}
}

func TestTokenRefreshWithinBuffer(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("basic auth = %q %q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh-1" {
			t.Errorf("form = %v", r.Form)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"expires_in":    1800,
			"token_type":    "Bearer",
		})
	}))
	defer tokenSrv.Close()

	store := newMemTokenStore()
	tok := freshToken("conn-1")
	// Still valid, but inside the 5 minute refresh buffer.
	tok.ExpiresAt = time.Now().Add(2 * time.Minute)
	store.tokens["conn-1"] = tok

	m := NewTokenManager(store, testOAuthConfig(tokenSrv.URL), nil)
	access, err := m.AccessToken(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if access != "access-2" {
		t.Errorf("access = %q, want refreshed token", access)
	}
	// The rotated refresh token was persisted before the access token was
	// handed out.
	if len(store.saves) != 1 || store.saves[0].RefreshToken != "refresh-2" {
		t.Errorf("saved tokens = %+v", store.saves)
	}
}

func TestTokenNotRefreshedWhileFresh(t *testing.T) {
	store := newMemTokenStore()
	store.tokens["conn-1"] = freshToken("conn-1")

	// Token URL is unreachable; a refresh attempt would fail loudly.
	m := NewTokenManager(store, testOAuthConfig("http://unused.invalid/token"), &http.Client{Timeout: time.Second})
	access, err := m.AccessToken(context.Background(), "conn-1")
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if access != "access-1" {
		t.Errorf("access = %q, want stored token", access)
	}
	if len(store.saves) != 0 {
		t.Errorf("unexpected save: %+v", store.saves)
	}
}

func TestTokenMissing(t *testing.T) {
	m := validManager(newMemTokenStore())
	if _, err := m.AccessToken(context.Background(), "conn-1"); !errors.Is(err, source.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestTokenRefreshKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "access-2"})
	}))
	defer tokenSrv.Close()

	store := newMemTokenStore()
	tok := freshToken("conn-1")
	tok.ExpiresAt = time.Now().Add(-time.Minute)
	store.tokens["conn-1"] = tok

	m := NewTokenManager(store, testOAuthConfig(tokenSrv.URL), nil)
	if _, err := m.AccessToken(context.Background(), "conn-1"); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	saved := store.tokens["conn-1"]
	if saved.RefreshToken != "refresh-1" {
		t.Errorf("refresh token = %q, want the previous one kept", saved.RefreshToken)
	}
	// Default lifetime applied when expires_in is omitted.
	if remaining := time.Until(saved.ExpiresAt); remaining < 25*time.Minute || remaining > 31*time.Minute {
		t.Errorf("expiry = %v from now", remaining)
	}
}

func TestAuthorizeURL(t *testing.T) {
	m := validManager(newMemTokenStore())
	u, err := url.Parse(m.AuthorizeURL("conn-1"))
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if got := u.Scheme + "://" + u.Host + u.Path; got != "https://login.example.com/authorize" {
		t.Errorf("endpoint = %q", got)
	}
	q := u.Query()
	want := map[string]string{
		"response_type": "code",
		"client_id":     "client-id",
		"redirect_uri":  "https://api.example.com/xero/callback",
		"scope":         "offline_access accounting.transactions.read",
		"state":         "conn-1",
	}
	for key, val := range want {
		if q.Get(key) != val {
			t.Errorf("%s = %q, want %q", key, q.Get(key), val)
		}
	}
}

func TestExchangeCodeUnlocksFetch(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("basic auth = %q %q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("code") != "auth-code-1" {
			t.Errorf("form = %v", r.Form)
		}
		if r.Form.Get("redirect_uri") != "https://api.example.com/xero/callback" {
			t.Errorf("redirect_uri = %q", r.Form.Get("redirect_uri"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    1800,
			"token_type":    "Bearer",
		})
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Accounts": []map[string]any{{"AccountID": "acc-1"}},
		})
	}))
	defer apiSrv.Close()

	store := newMemTokenStore()
	m := NewTokenManager(store, testOAuthConfig(tokenSrv.URL), nil)
	c := NewClient(apiSrv.URL, "org-1", "conn-1", m, nil)

	// A connection without a stored token cannot fetch anything yet.
	err := c.Fetch(context.Background(), models.EntityAccounts, func(rec source.RawRecord) error { return nil })
	if !errors.Is(err, source.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated before consent", err)
	}

	token, err := m.ExchangeCode(context.Background(), "conn-1", "auth-code-1")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if token.AccessToken != "access-1" || token.RefreshToken != "refresh-1" {
		t.Errorf("token = %+v", token)
	}
	if len(store.saves) != 1 || store.saves[0].ConnectionID != "conn-1" {
		t.Fatalf("saved tokens = %+v", store.saves)
	}

	// The exchanged token authenticates subsequent fetches.
	n := 0
	if err := c.Fetch(context.Background(), models.EntityAccounts, func(rec source.RawRecord) error {
		n++
		return nil
	}); err != nil {
		t.Fatalf("Fetch after exchange: %v", err)
	}
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
}
