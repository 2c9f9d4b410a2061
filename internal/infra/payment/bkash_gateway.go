package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"telegram-course-bot/internal/config"
	"telegram-course-bot/internal/domain"
	"telegram-course-bot/internal/domain/model"
	"telegram-course-bot/internal/domain/ports/adapter"
	"telegram-course-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.PaymentGateway = (*BkashGateway)(nil)

const (
	bkashGateway = "bkash"
	// tokenSafetyMargin is subtracted from the server ttl so a cached token is
	// never used right at its expiry.
	tokenSafetyMargin = 60 * time.Second
	bkashOKStatusCode = "0000"
)

// BkashGateway implements PaymentGateway against the bKash tokenized
// checkout API. The id_token is cached process-wide.
type BkashGateway struct {
	cfg    config.BkashConfig
	client *http.Client
	log    *zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewBkashGateway(cfg config.BkashConfig, logger *zerolog.Logger) *BkashGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BkashGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for token expiry.
func (g *BkashGateway) WithClock(now func() time.Time) *BkashGateway {
	g.now = now
	return g
}

// WithHTTPClient replaces the underlying HTTP client.
func (g *BkashGateway) WithHTTPClient(c *http.Client) *BkashGateway {
	g.client = c
	return g
}

func (g *BkashGateway) Name() string { return bkashGateway }

type tokenGrantRequest struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

type tokenGrantResponse struct {
	IDToken       string `json:"id_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	RefreshToken  string `json:"refresh_token"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

type searchTransactionRequest struct {
	TrxID string `json:"trxID"`
}

type searchTransactionResponse struct {
	TrxID                string     `json:"trxID"`
	TransactionStatus    string     `json:"transactionStatus"`
	Amount               flexString `json:"amount"`
	Currency             string     `json:"currency"`
	InitiationTime       string     `json:"initiationTime"`
	CompletedTime        string     `json:"completedTime"`
	CustomerMsisdn       string     `json:"customerMsisdn"`
	TransactionType      string     `json:"transactionType"`
	OrganizationName     string     `json:"organizationShortCode"`
	TransactionReference string     `json:"transactionReference"`
	StatusCode           string     `json:"statusCode"`
	StatusMessage        string     `json:"statusMessage"`
	ErrorCode            string     `json:"errorCode"`
	ErrorMessage         string     `json:"errorMessage"`
}

// flexString accepts both "500.00" and 500 for amount fields.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Token returns the cached id_token while it is valid, otherwise performs a
// grant. Concurrent callers wait on the same grant.
func (g *BkashGateway) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.now().Before(g.expiresAt) {
		return g.token, nil
	}

	start := time.Now()
	tok, ttl, err := g.grant(ctx)
	if err != nil {
		metrics.IncTokenGrant(bkashGateway, "fail")
		metrics.ObserveGatewayRequest(bkashGateway, "token_grant", "fail", time.Since(start).Seconds())
		g.log.Error().Err(err).Msg("bkash token grant failed")
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayAuth, err)
	}
	metrics.IncTokenGrant(bkashGateway, "ok")
	metrics.ObserveGatewayRequest(bkashGateway, "token_grant", "ok", time.Since(start).Seconds())

	if ttl <= 2*tokenSafetyMargin {
		g.log.Warn().Dur("expires_in", ttl).Msg("bkash token ttl shorter than the refresh margin")
	}
	g.token = tok
	g.expiresAt = g.now().Add(tokenCacheFor(ttl))
	g.log.Debug().Time("expires_at", g.expiresAt).Msg("bkash token refreshed")
	return tok, nil
}

// tokenCacheFor is how long a token with the given server ttl is reused.
// Short-lived tokens get half their ttl; a zero ttl is not cached.
func tokenCacheFor(ttl time.Duration) time.Duration {
	if ttl > 2*tokenSafetyMargin {
		return ttl - tokenSafetyMargin
	}
	if ttl <= 0 {
		return 0
	}
	return ttl / 2
}

func (g *BkashGateway) invalidate(tok string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == tok {
		g.token = ""
		g.expiresAt = time.Time{}
	}
}

func (g *BkashGateway) grant(ctx context.Context) (string, time.Duration, error) {
	headers := map[string]string{
		"username": g.cfg.Username,
		"password": g.cfg.Password,
	}
	body := tokenGrantRequest{AppKey: g.cfg.AppKey, AppSecret: g.cfg.AppSecret}

	var out tokenGrantResponse
	status, err := g.post(ctx, "/tokenized/checkout/token/grant", headers, body, &out)
	if err != nil {
		return "", 0, err
	}
	if status < 200 || status > 299 {
		return "", 0, fmt.Errorf("token grant: http status %d", status)
	}
	if out.IDToken == "" {
		return "", 0, fmt.Errorf("token grant: empty id_token (status %s %s)", out.StatusCode, out.StatusMessage)
	}
	return out.IDToken, time.Duration(out.ExpiresIn) * time.Second, nil
}

// VerifyTransaction looks up trxID. Anything other than a decoded provider
// record is reported as ErrGatewayTransport, except token failures which
// surface as ErrGatewayAuth.
func (g *BkashGateway) VerifyTransaction(ctx context.Context, trxID string) (*model.GatewayTransaction, error) {
	tok, err := g.Token(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Authorization": tok,
		"X-APP-Key":     g.cfg.AppKey,
	}

	start := time.Now()
	var out searchTransactionResponse
	status, err := g.post(ctx, "/tokenized/checkout/general/searchTransaction", headers, searchTransactionRequest{TrxID: trxID}, &out)
	result := "ok"
	defer func() {
		metrics.ObserveGatewayRequest(bkashGateway, "search_transaction", result, time.Since(start).Seconds())
	}()

	switch {
	case err != nil:
		result = "error"
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayTransport, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// next call will re-grant
		g.invalidate(tok)
		result = "error"
		return nil, fmt.Errorf("%w: search transaction: http status %d", domain.ErrGatewayTransport, status)
	case status < 200 || status > 299:
		result = "error"
		return nil, fmt.Errorf("%w: search transaction: http status %d", domain.ErrGatewayTransport, status)
	case out.ErrorCode != "":
		result = "rejected"
		return nil, fmt.Errorf("%w: bkash error %s: %s", domain.ErrGatewayTransport, out.ErrorCode, out.ErrorMessage)
	case out.StatusCode != "" && out.StatusCode != bkashOKStatusCode:
		result = "rejected"
		return nil, fmt.Errorf("%w: bkash status %s: %s", domain.ErrGatewayTransport, out.StatusCode, out.StatusMessage)
	}

	return &model.GatewayTransaction{
		TrxID:                out.TrxID,
		Status:               out.TransactionStatus,
		Amount:               string(out.Amount),
		Currency:             out.Currency,
		InitiationTime:       out.InitiationTime,
		CompletedTime:        out.CompletedTime,
		CustomerMsisdn:       out.CustomerMsisdn,
		TransactionType:      out.TransactionType,
		OrganizationName:     out.OrganizationName,
		TransactionReference: out.TransactionReference,
	}, nil
}

func (g *BkashGateway) post(ctx context.Context, path string, headers map[string]string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request data: %w", err)
	}

	url := strings.TrimRight(g.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp.StatusCode, nil
}
