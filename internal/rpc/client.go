package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/osse101/playerledger/internal/backend"
	"github.com/osse101/playerledger/internal/domain"
	"github.com/osse101/playerledger/internal/logger"
)

const maxResponseBytes = 4 << 20

// Client is the RPC-service variant of the Transaction Executor. It implements
// backend.Service against ledgerd (Authenticate) or a Nakama server running the
// ledger module (AuthenticateCustom).
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.RWMutex
	token     string
	accountID string
	expiresAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for the host at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSession installs an existing session token bound to accountID.
func (c *Client) SetSession(token, accountID string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.accountID, c.expiresAt = token, accountID, expiresAt
}

// AccountID returns the account the current session is bound to.
func (c *Client) AccountID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accountID
}

// Authenticate exchanges the API key for a session bound to accountID.
func (c *Client) Authenticate(ctx context.Context, apiKey, accountID string) error {
	const op = "authenticate"
	body, err := json.Marshal(AuthenticateRequest{APIKey: apiKey, AccountID: accountID})
	if err != nil {
		return domain.Transport(op, err)
	}
	data, err := c.post(ctx, op, c.baseURL+AuthenticatePath, nil, body)
	if err != nil {
		return err
	}
	var resp AuthenticateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Transport(op, err)
	}
	c.SetSession(resp.Token, resp.AccountID, time.Unix(resp.ExpiresAt, 0))
	logger.FromContext(ctx).Info("Session established", "account_id", resp.AccountID)
	return nil
}

// AuthenticateCustom signs in to Nakama with the server key and a custom id,
// creating the user on first use. The session is bound to the Nakama user id
// carried in the token, which AccountID reports afterwards.
func (c *Client) AuthenticateCustom(ctx context.Context, serverKey, customID string) error {
	const op = "authenticate_custom"
	body, err := json.Marshal(CustomAuthRequest{ID: customID})
	if err != nil {
		return domain.Transport(op, err)
	}
	endpoint := c.baseURL + CustomAuthPath + "?" + QueryCreate + "=true"
	data, err := c.post(ctx, op, endpoint, func(r *http.Request) { r.SetBasicAuth(serverKey, "") }, body)
	if err != nil {
		return err
	}
	var resp NakamaSession
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Transport(op, err)
	}
	userID, expiresAt, err := nakamaSessionClaims(resp.Token)
	if err != nil {
		return domain.Transport(op, err)
	}
	c.SetSession(resp.Token, userID, expiresAt)
	logger.FromContext(ctx).Info("Session established", "account_id", userID, "created", resp.Created)
	return nil
}

// nakamaSessionClaims reads the user id and expiry from a Nakama session token.
// The server verifies the signature on every call; the client only needs the claims.
func nakamaSessionClaims(token string) (string, time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", time.Time{}, fmt.Errorf("parse session token: %w", err)
	}
	uid, _ := claims["uid"].(string)
	if uid == "" {
		return "", time.Time{}, errors.New("session token has no uid claim")
	}
	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return uid, expiresAt, nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(HeaderAuthorization, BearerPrefix+token) }
}

// post sends one request and maps HTTP failures onto the error taxonomy.
func (c *Client) post(ctx context.Context, op, endpoint string, auth func(*http.Request), body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.Transport(op, err)
	}
	req.Header.Set("Content-Type", ContentTypeJSON)
	if auth != nil {
		auth(req)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Transport(op, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.Transport(op, err)
	}

	switch {
	case res.StatusCode == http.StatusOK:
		return data, nil
	case res.StatusCode == http.StatusUnauthorized:
		return nil, domain.Unauthenticated(op, fmt.Errorf("status %d", res.StatusCode))
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
		return nil, domain.Transport(op, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(data))))
	default:
		return nil, domain.Validation(op, domain.ReasonGenericError, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(data))))
	}
}

// call runs one RPC on behalf of accountID, which must match the session.
func (c *Client) call(ctx context.Context, id, accountID string, payload any) (*Response, error) {
	c.mu.RLock()
	token, bound := c.token, c.accountID
	c.mu.RUnlock()

	if token == "" {
		return nil, domain.Unauthenticated(id, errors.New(domain.ErrMsgUnauthenticated))
	}
	if accountID != bound {
		return nil, domain.Validation(id, domain.ReasonGenericError, fmt.Errorf("%w: %s", domain.ErrAccountMismatch, accountID))
	}

	body := []byte("{}")
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, domain.Validation(id, domain.ReasonGenericError, err)
		}
	}

	endpoint := c.baseURL + RPCPathPrefix + url.PathEscape(id) + "?" + QueryUnwrap + "=true"
	data, err := c.post(ctx, id, endpoint, bearer(token), body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, domain.Transport(id, fmt.Errorf("decode response: %w", err))
	}
	if !resp.Success {
		return nil, domain.FromReason(id, resp.ReasonCode)
	}
	return &resp, nil
}

func (c *Client) result(ctx context.Context, id, accountID string, payload any) (*backend.Result, error) {
	resp, err := c.call(ctx, id, accountID, payload)
	if err != nil {
		return nil, err
	}
	var changes domain.Changes
	if resp.Changes != nil {
		changes = *resp.Changes
	}
	return backend.NewResult(changes, resp.Balances), nil
}

func (c *Client) snapshot(ctx context.Context, id, accountID string, payload any) (*domain.Snapshot, error) {
	resp, err := c.call(ctx, id, accountID, payload)
	if err != nil {
		return nil, err
	}
	if resp.Snapshot == nil {
		return &domain.Snapshot{AccountID: accountID}, nil
	}
	return resp.Snapshot, nil
}

func (c *Client) ClaimDailyReward(ctx context.Context, accountID string, dayIndex int, reward domain.Reward) (*backend.Result, error) {
	return c.result(ctx, RPCClaimDaily, accountID, ClaimRequest{Index: dayIndex, Reward: reward})
}

func (c *Client) ClaimNewPlayerReward(ctx context.Context, accountID string, dayIndex int, reward domain.Reward) (*backend.Result, error) {
	return c.result(ctx, RPCClaimNewPlayer, accountID, ClaimRequest{Index: dayIndex, Reward: reward})
}

func (c *Client) ClaimBattlePassReward(ctx context.Context, accountID string, index int, reward domain.Reward) (*backend.Result, error) {
	return c.result(ctx, RPCClaimBattlePass, accountID, ClaimRequest{Index: index, Reward: reward})
}

func (c *Client) UnlockBattlePassPremium(ctx context.Context, accountID string) (*backend.Result, error) {
	return c.result(ctx, RPCUnlockPremium, accountID, nil)
}

func (c *Client) AddAccountExp(ctx context.Context, accountID string, amount int64) (*backend.Result, error) {
	return c.result(ctx, RPCAddAccountExp, accountID, ExpRequest{Amount: amount})
}

func (c *Client) AddCharacterExp(ctx context.Context, accountID, characterID string, amount int64) (*backend.Result, error) {
	return c.result(ctx, RPCAddCharacterExp, accountID, ExpRequest{CharacterID: characterID, Amount: amount})
}

func (c *Client) AddCharacterMasteryExp(ctx context.Context, accountID, characterID string, amount int64) (*backend.Result, error) {
	return c.result(ctx, RPCAddMasteryExp, accountID, ExpRequest{CharacterID: characterID, Amount: amount})
}

func (c *Client) CompleteGameSession(ctx context.Context, accountID string, summary domain.SessionSummary) (*backend.Result, error) {
	return c.result(ctx, RPCCompleteSession, accountID, summary)
}

func (c *Client) RedeemCoupon(ctx context.Context, accountID, code string) (*backend.Result, error) {
	return c.result(ctx, RPCRedeemCoupon, accountID, CouponRequest{Code: code})
}

func (c *Client) PurchaseOffer(ctx context.Context, accountID, offerID string) (*backend.Result, error) {
	return c.result(ctx, RPCPurchaseOffer, accountID, OfferRequest{OfferID: offerID})
}

func (c *Client) UpgradeItem(ctx context.Context, accountID, uniqueID string, statIndex int) (*backend.Result, error) {
	return c.result(ctx, RPCUpgradeItem, accountID, UpgradeRequest{UniqueID: uniqueID, StatIndex: statIndex})
}

func (c *Client) FetchAccountSnapshot(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	return c.snapshot(ctx, RPCFetchSnapshot, accountID, nil)
}

// FetchSubstructure implements backend.SubstructureFetcher.
func (c *Client) FetchSubstructure(ctx context.Context, accountID string, part domain.Part) (*domain.Snapshot, error) {
	return c.snapshot(ctx, RPCFetchSubstructure, accountID, SubstructureRequest{Part: part})
}

var (
	_ backend.Service             = (*Client)(nil)
	_ backend.SubstructureFetcher = (*Client)(nil)
)
