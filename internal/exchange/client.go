// Package exchange is the Betfair gateway: cert login for a session token,
// JSON-RPC calls against SportsAPING, and typed snapshot fetches for the
// inspection pipeline. It also provides an offline snapshot loader so the CLI
// and tests run without network access.
package exchange

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"market-scout/internal/model"
)

const (
	defaultLoginURL = "https://identitysso-cert.betfair.com/api/certlogin"
	defaultRPCURL   = "https://api.betfair.com/exchange/betting/json-rpc/v1"

	invalidSession = "INVALID_SESSION_INFORMATION"
)

// Credentials holds everything the cert login needs. Load them with
// CredentialsFromEnv in real deployments.
type Credentials struct {
	AppKey   string
	Username string
	Password string
	CertFile string
	KeyFile  string
}

// CredentialsFromEnv reads the BETFAIR_* variables; any missing value is an
// error because a partially-configured client fails in confusing ways later.
func CredentialsFromEnv() (Credentials, error) {
	c := Credentials{
		AppKey:   os.Getenv("BETFAIR_APP_KEY"),
		Username: os.Getenv("BETFAIR_USERNAME"),
		Password: os.Getenv("BETFAIR_PASSWORD"),
		CertFile: os.Getenv("BETFAIR_CERT_CRT"),
		KeyFile:  os.Getenv("BETFAIR_CERT_KEY"),
	}
	missing := []string{}
	for name, v := range map[string]string{
		"BETFAIR_APP_KEY":  c.AppKey,
		"BETFAIR_USERNAME": c.Username,
		"BETFAIR_PASSWORD": c.Password,
		"BETFAIR_CERT_CRT": c.CertFile,
		"BETFAIR_CERT_KEY": c.KeyFile,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

// AuthError is a login failure: bad certificate, wrong password, HTTP trouble
// on the identity endpoint.
type AuthError struct {
	Status string
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cert login failed: status=%s body=%s", e.Status, truncate(e.Body, 300))
}

// RPCError is a failed JSON-RPC call with the exchange's error identity
// attached, including the request UUID Betfair support asks for.
type RPCError struct {
	Method      string
	Code        string
	Message     string
	RequestUUID string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s failed: code=%s message=%s uuid=%s", e.Method, e.Code, e.Message, e.RequestUUID)
}

// Client is a thin exchange gateway. It logs in lazily, caches the session
// token, and retries a call exactly once after re-login when the exchange
// reports the session invalid.
type Client struct {
	creds    Credentials
	loginURL string
	rpcURL   string
	http     *http.Client
	log      zerolog.Logger

	sessionToken string
}

// Option adjusts a Client; used by tests to point at local servers.
type Option func(*Client)

func WithLoginURL(u string) Option        { return func(c *Client) { c.loginURL = u } }
func WithRPCURL(u string) Option          { return func(c *Client) { c.rpcURL = u } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// NewClient builds a gateway from credentials. The TLS client certificate is
// loaded eagerly so misconfiguration surfaces at startup, not mid-session.
func NewClient(creds Credentials, log zerolog.Logger, opts ...Option) (*Client, error) {
	c := &Client{
		creds:    creds,
		loginURL: defaultLoginURL,
		rpcURL:   defaultRPCURL,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		cert, err := tls.LoadX509KeyPair(creds.CertFile, creds.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		c.http = &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
			},
		}
	}
	return c, nil
}

// Login performs the cert login and caches the session token. The identity
// endpoint answers in JSON or in key=value lines depending on mood; both are
// handled.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{"username": {c.creds.Username}, "password": {c.creds.Password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("X-Application", c.creds.AppKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cert login request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("cert login read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &AuthError{Status: fmt.Sprintf("HTTP_%d", resp.StatusCode), Body: string(body)}
	}

	token, status := parseLoginBody(body)
	if status != "SUCCESS" || token == "" {
		return &AuthError{Status: status, Body: string(body)}
	}
	c.sessionToken = token
	c.log.Info().Msg("exchange login ok")
	return nil
}

// parseLoginBody accepts both response shapes: a JSON object with
// sessionToken/loginStatus, or key=value lines.
func parseLoginBody(body []byte) (token, status string) {
	var j struct {
		SessionToken string `json:"sessionToken"`
		LoginStatus  string `json:"loginStatus"`
	}
	if err := json.Unmarshal(body, &j); err == nil && j.LoginStatus != "" {
		return j.SessionToken, j.LoginStatus
	}

	status = "UNKNOWN"
	for _, line := range strings.Split(string(body), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "loginStatus":
			status = strings.TrimSpace(v)
		case "sessionToken":
			token = strings.TrimSpace(v)
		}
	}
	return token, status
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcErrorBody   `json:"error"`
}

type rpcErrorBody struct {
	Message string `json:"message"`
	Data    struct {
		APINGException struct {
			ErrorCode   string `json:"errorCode"`
			RequestUUID string `json:"requestUUID"`
		} `json:"APINGException"`
	} `json:"data"`
}

// call runs one SportsAPING method, decoding the result into out. On
// INVALID_SESSION_INFORMATION it re-logs-in and retries the call exactly once.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	if c.sessionToken == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}

	err := c.callOnce(ctx, method, params, out)
	var rpcErr *RPCError
	if err == nil || !errors.As(err, &rpcErr) || rpcErr.Code != invalidSession {
		return err
	}

	c.log.Warn().Str("method", method).Str("uuid", rpcErr.RequestUUID).Msg("session invalid, re-login and retry")
	if err := c.Login(ctx); err != nil {
		return err
	}
	return c.callOnce(ctx, method, params, out)
}

func (c *Client) callOnce(ctx context.Context, method string, params, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "SportsAPING/v1.0/" + method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("X-Application", c.creds.AppKey)
	req.Header.Set("X-Authentication", c.sessionToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RPCError{Method: method, Code: "HTTP_REQUEST_FAILED", Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &RPCError{Method: method, Code: "READ_FAILED", Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return &RPCError{Method: method, Code: fmt.Sprintf("HTTP_%d", resp.StatusCode), Message: truncate(string(body), 300)}
	}

	var rr rpcResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return &RPCError{Method: method, Code: "BAD_JSON", Message: truncate(string(body), 300)}
	}
	if rr.Error != nil {
		return &RPCError{
			Method:      method,
			Code:        rr.Error.Data.APINGException.ErrorCode,
			Message:     rr.Error.Message,
			RequestUUID: rr.Error.Data.APINGException.RequestUUID,
		}
	}
	if rr.Result == nil {
		return &RPCError{Method: method, Code: "UNKNOWN_RESPONSE", Message: truncate(string(body), 300)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rr.Result, out)
}

// MarketFilter narrows listMarketCatalogue; zero fields are omitted.
type MarketFilter struct {
	EventTypeIDs    []string   `json:"eventTypeIds,omitempty"`
	MarketTypeCodes []string   `json:"marketTypeCodes,omitempty"`
	MarketCountries []string   `json:"marketCountries,omitempty"`
	MarketIDs       []string   `json:"marketIds,omitempty"`
	MarketStartTime *TimeRange `json:"marketStartTime,omitempty"`
}

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ListMarketCatalogue fetches catalogue rows with event, start time and runner
// descriptions projected, sorted first-to-start.
func (c *Client) ListMarketCatalogue(ctx context.Context, filter MarketFilter, maxResults int) ([]model.MarketCatalogue, error) {
	params := map[string]any{
		"filter":           filter,
		"maxResults":       maxResults,
		"marketProjection": []string{"EVENT", "MARKET_START_TIME", "RUNNER_DESCRIPTION", "RUNNER_METADATA"},
		"sort":             "FIRST_TO_START",
	}
	var out []model.MarketCatalogue
	if err := c.call(ctx, "listMarketCatalogue", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMarketBook fetches books with best offers at depth 1; the pipeline only
// ever looks at the top of each side.
func (c *Client) ListMarketBook(ctx context.Context, marketIDs []string) ([]model.MarketBook, error) {
	params := map[string]any{
		"marketIds": marketIDs,
		"priceProjection": map[string]any{
			"priceData": []string{"EX_BEST_OFFERS"},
			"exBestOffersOverrides": map[string]any{
				"bestPricesDepth": 1,
			},
		},
	}
	var out []model.MarketBook
	if err := c.call(ctx, "listMarketBook", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEventTypes returns the sport taxonomy; discovery uses it to find the
// horse racing event type id instead of hard-coding it.
func (c *Client) ListEventTypes(ctx context.Context) ([]EventTypeResult, error) {
	var out []EventTypeResult
	if err := c.call(ctx, "listEventTypes", map[string]any{"filter": map[string]any{}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type EventTypeResult struct {
	EventType struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"eventType"`
	MarketCount int `json:"marketCount"`
}

// FetchSnapshot pulls the catalogue + book pair one inspection consumes.
func (c *Client) FetchSnapshot(ctx context.Context, marketID string) (model.MarketSnapshot, error) {
	cats, err := c.ListMarketCatalogue(ctx, MarketFilter{MarketIDs: []string{marketID}}, 1)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	if len(cats) == 0 {
		return model.MarketSnapshot{}, fmt.Errorf("market %s not found in catalogue", marketID)
	}
	books, err := c.ListMarketBook(ctx, []string{marketID})
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	if len(books) == 0 {
		return model.MarketSnapshot{}, fmt.Errorf("market %s not found in book", marketID)
	}
	return model.MarketSnapshot{Catalogue: cats[0], Book: books[0]}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
