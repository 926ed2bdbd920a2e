// Package auth issues and verifies the session tokens RPC callers present.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	// ErrInvalidAPIKey is returned when the presented API key does not match.
	ErrInvalidAPIKey = errors.New(ErrMsgInvalidAPIKey)
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New(ErrMsgInvalidToken)
)

// Session is a verified session.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
}

// cachedSession wraps a session with version metadata for cache invalidation
type cachedSession struct {
	Version string
	Session Session
}

// Config configures an Issuer.
type Config struct {
	APIKey    string
	Secret    string
	Issuer    string
	TTL       time.Duration
	CacheSize int
}

// Issuer signs HS256 session tokens bound to one account and keeps recently
// verified tokens in an expiring LRU so hot sessions skip signature checks.
type Issuer struct {
	apiKey []byte
	secret []byte
	issuer string
	ttl    time.Duration
	cache  *expirable.LRU[string, *cachedSession]
	now    func() time.Time
}

// NewIssuer validates cfg and creates an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, errors.New(ErrMsgSecretTooShort)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	return &Issuer{
		apiKey: []byte(cfg.APIKey),
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		cache:  expirable.NewLRU[string, *cachedSession](cfg.CacheSize, nil, cfg.TTL),
		now:    time.Now,
	}, nil
}

// Authenticate checks the API key in constant time and issues a session for accountID.
func (i *Issuer) Authenticate(apiKey, accountID string) (Session, error) {
	if subtle.ConstantTimeCompare([]byte(apiKey), i.apiKey) != 1 {
		return Session{}, ErrInvalidAPIKey
	}
	return i.Issue(accountID)
}

// Issue signs a session token for accountID.
func (i *Issuer) Issue(accountID string) (Session, error) {
	if accountID == "" {
		return Session{}, errors.New(ErrMsgMissingAccountID)
	}
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Session{}, fmt.Errorf("%s: %w", ErrMsgSigningFailed, err)
	}
	s := Session{Token: token, AccountID: accountID, ExpiresAt: time.Unix(expiresAt.Unix(), 0)}
	i.cache.Add(token, &cachedSession{Version: CacheSchemaVersion, Session: s})
	return s, nil
}

// Verify returns the session a token belongs to.
func (i *Issuer) Verify(token string) (Session, error) {
	if entry, ok := i.cache.Get(token); ok {
		if entry.Version == CacheSchemaVersion && i.now().Before(entry.Session.ExpiresAt) {
			return entry.Session, nil
		}
		i.cache.Remove(token)
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(DefaultClockSkew),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: %s", ErrInvalidToken, ErrMsgMissingAccountID)
	}

	s := Session{Token: token, AccountID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	i.cache.Add(token, &cachedSession{Version: CacheSchemaVersion, Session: s})
	return s, nil
}
