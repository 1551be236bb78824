package xero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/models"
	"github.com/workfin/practice-api/internal/source"
)

// refreshBuffer refreshes tokens slightly before they expire so a token that
// is valid at check time does not lapse mid-request.
const refreshBuffer = 5 * time.Minute

const defaultExpiresIn = 1800

// TokenStore persists OAuth tokens per connection.
type TokenStore interface {
	GetToken(ctx context.Context, connectionID string) (*models.OAuthToken, error)
	SaveToken(ctx context.Context, token *models.OAuthToken) error
}

// OAuthConfig carries the client credentials and endpoints of the OAuth
// application registered with Xero.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	RedirectURI  string
	Scopes       string
}

// TokenManager owns the OAuth lifecycle of a connection: building the consent
// URL, exchanging the authorization code for the first token pair, and handing
// out valid access tokens, refreshing when the stored token is expired or
// about to expire. Refresh tokens rotate on every refresh, so the new pair is
// persisted before the access token is returned.
type TokenManager struct {
	store      TokenStore
	cfg        OAuthConfig
	httpClient *http.Client

	mu sync.Mutex
	// now is stubbed in tests
	now func() time.Time
}

func NewTokenManager(store TokenStore, cfg OAuthConfig, httpClient *http.Client) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		store:      store,
		cfg:        cfg,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AuthorizeURL builds the consent URL the user is redirected to. The state
// parameter carries the connection id so the callback can attach the token to
// the right connection.
func (m *TokenManager) AuthorizeURL(state string) string {
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {m.cfg.ClientID},
		"redirect_uri":  {m.cfg.RedirectURI},
		"scope":         {m.cfg.Scopes},
		"state":         {state},
	}
	return m.cfg.AuthorizeURL + "?" + q.Encode()
}

// ExchangeCode trades the authorization code from the consent callback for
// the connection's first token pair and persists it.
func (m *TokenManager) ExchangeCode(ctx context.Context, connectionID, code string) (*models.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, err := m.postTokenForm(ctx, "exchange code", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {m.cfg.RedirectURI},
	})
	if err != nil {
		return nil, err
	}

	token := m.tokenFromResponse(connectionID, body, nil)
	if err := m.store.SaveToken(ctx, token); err != nil {
		return nil, errors.Wrap(err, "persist oauth token")
	}
	return token, nil
}

// AccessToken returns a usable access token for the connection.
func (m *TokenManager) AccessToken(ctx context.Context, connectionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.store.GetToken(ctx, connectionID)
	if err != nil {
		return "", errors.Wrap(err, "load oauth token")
	}
	if token == nil {
		return "", source.ErrNotAuthenticated
	}

	if m.now().Before(token.ExpiresAt.Add(-refreshBuffer)) {
		return token.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, token)
	if err != nil {
		return "", err
	}
	if err := m.store.SaveToken(ctx, refreshed); err != nil {
		return "", errors.Wrap(err, "persist refreshed token")
	}
	return refreshed.AccessToken, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

func (m *TokenManager) refresh(ctx context.Context, token *models.OAuthToken) (*models.OAuthToken, error) {
	if token.RefreshToken == "" {
		return nil, source.ErrNotAuthenticated
	}

	body, err := m.postTokenForm(ctx, "refresh token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {token.RefreshToken},
	})
	if err != nil {
		return nil, err
	}
	return m.tokenFromResponse(token.ConnectionID, body, token), nil
}

// postTokenForm posts a grant to the token endpoint and decodes the response.
func (m *TokenManager) postTokenForm(ctx context.Context, op string, form url.Values) (tokenResponse, error) {
	var body tokenResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return body, errors.Wrapf(err, "build %s request", op)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.cfg.ClientID, m.cfg.ClientSecret)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return body, source.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return body, source.Transient(op, errors.Errorf("token endpoint returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return body, source.Terminal(op, errors.Errorf("token endpoint returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return body, errors.Wrap(err, "decode token response")
	}
	if body.AccessToken == "" {
		return body, source.Terminal(op, errors.New("token endpoint returned no access token"))
	}
	return body, nil
}

// tokenFromResponse maps a token endpoint response onto the stored token,
// falling back to the previous refresh token and scope when the endpoint
// omits them.
func (m *TokenManager) tokenFromResponse(connectionID string, body tokenResponse, prev *models.OAuthToken) *models.OAuthToken {
	expiresIn := body.ExpiresIn
	if expiresIn == 0 {
		expiresIn = defaultExpiresIn
	}
	refreshToken := body.RefreshToken
	if refreshToken == "" && prev != nil {
		refreshToken = prev.RefreshToken
	}
	tokenType := body.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	out := &models.OAuthToken{
		ConnectionID: connectionID,
		AccessToken:  body.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    m.now().Add(time.Duration(expiresIn) * time.Second),
		TokenType:    tokenType,
		UpdatedAt:    m.now(),
	}
	if body.Scope != "" {
		out.Scope = &body.Scope
	} else if prev != nil {
		out.Scope = prev.Scope
	}
	return out
}
