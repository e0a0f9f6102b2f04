package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultAccessTokenTTL is the lifetime of access tokens
	DefaultAccessTokenTTL = 60 * time.Minute
	// DefaultRefreshTokenTTL is the lifetime of refresh tokens
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenPair is the access/refresh pair returned on authentication
type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenService mints, rotates and revokes signed session tokens
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	blacklist  TokenBlacklist
	resolver   IdentityResolver
	now        func() time.Time
	logger     Logger
}

var _ TokenIssuer = (*TokenService)(nil)

// TokenOption configures the TokenService
type TokenOption func(*TokenService)

// WithAccessTTL sets the access token lifetime
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		ts.accessTTL = ttl
	}
}

// WithRefreshTTL sets the refresh token lifetime
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		ts.refreshTTL = ttl
	}
}

// WithIssuer sets the iss claim, also enforced on parse
func WithIssuer(issuer string) TokenOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// WithAudience sets the aud claim, also enforced on parse
func WithAudience(audience ...string) TokenOption {
	return func(ts *TokenService) {
		ts.audience = append(jwt.ClaimStrings(nil), audience...)
	}
}

// WithTokenClock overrides time.Now
func WithTokenClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *TokenService) {
		ts.logger = logger
	}
}

// WithIdentityResolver makes Rotate reload the identity so disabled
// accounts cannot keep refreshing
func WithIdentityResolver(resolver IdentityResolver) TokenOption {
	return func(ts *TokenService) {
		ts.resolver = resolver
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, blacklist TokenBlacklist, opts ...TokenOption) (*TokenService, error) {
	ts := &TokenService{
		signingKey: signingKey,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		blacklist:  blacklist,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	ts.logger = normalizeLogger(ts.logger)

	if len(ts.signingKey) == 0 {
		return nil, goerrors.New("token signing key is required", goerrors.CategoryBadInput)
	}

	if ts.blacklist == nil {
		return nil, goerrors.New("token blacklist is required", goerrors.CategoryBadInput)
	}

	if ts.accessTTL <= 0 || ts.refreshTTL <= 0 {
		return nil, goerrors.New("token lifetimes must be positive", goerrors.CategoryBadInput)
	}

	if ts.accessTTL >= ts.refreshTTL {
		return nil, goerrors.New("access token lifetime must be shorter than refresh token lifetime", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{
				"access_ttl":  ts.accessTTL.String(),
				"refresh_ttl": ts.refreshTTL.String(),
			})
	}

	return ts, nil
}

// AccessTTL is the configured access token lifetime
func (ts *TokenService) AccessTTL() time.Duration { return ts.accessTTL }

// RefreshTTL is the configured refresh token lifetime
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

// Issue mints a fresh pair for an active identity
func (ts *TokenService) Issue(ctx context.Context, identity Identity) (TokenPair, error) {
	if identity == nil || identity.ID() == "" {
		return TokenPair{}, goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	if !identityActive(identity) {
		return TokenPair{}, ErrAccountDisabled
	}

	now := ts.now()

	access, accessExp, err := ts.mint(identity, TokenTypeAccess, now, ts.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, refreshExp, err := ts.mint(identity, TokenTypeRefresh, now, ts.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Rotate exchanges a valid refresh token for a new pair.
// The presented token is blacklisted once the new pair is minted, so each
// refresh token rotates once.
func (ts *TokenService) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := ts.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	revoked, err := ts.blacklist.IsBlacklisted(ctx, claims.TokenID())
	if err != nil {
		ts.logger.Error("TokenService rotate blacklist lookup", "error", err)
		return TokenPair{}, serviceUnavailable(err, "failed to check token blacklist")
	}

	if revoked {
		return TokenPair{}, ErrInvalidToken
	}

	identity, err := ts.resolveIdentity(ctx, claims)
	if err != nil {
		return TokenPair{}, err
	}

	if !identityActive(identity) {
		return TokenPair{}, ErrAccountDisabled
	}

	pair, err := ts.Issue(ctx, identity)
	if err != nil {
		return TokenPair{}, err
	}

	if err := ts.blacklistClaims(ctx, claims); err != nil {
		return TokenPair{}, err
	}

	return pair, nil
}

// Revoke blacklists a refresh token. When ownerID is set the token must
// belong to that user.
func (ts *TokenService) Revoke(ctx context.Context, refreshToken string, ownerID string) error {
	claims, err := ts.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return ErrInvalidToken
	}

	if ownerID != "" && claims.UserID() != ownerID {
		ts.logger.Warn("TokenService revoke owner mismatch", "jti", claims.TokenID())
		return ErrInvalidToken
	}

	return ts.blacklistClaims(ctx, claims)
}

// Validate parses and validates an access token
func (ts *TokenService) Validate(tokenString string) (AuthClaims, error) {
	return ts.parse(tokenString, TokenTypeAccess)
}

// PurgeExpired removes blacklist rows whose tokens can no longer verify
func (ts *TokenService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = ts.now()
	}
	n, err := ts.blacklist.PurgeExpired(ctx, now.UTC())
	if err != nil {
		return 0, serviceUnavailable(err, "failed to purge token blacklist")
	}
	return n, nil
}

func (ts *TokenService) mint(identity Identity, tokenType string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
		Type:     tokenType,
	}

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenService) parse(tokenString, expectedType string) (*JWTClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService parse encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if IsTokenExpiredError(err) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType() != expectedType || claims.TokenID() == "" || claims.UserID() == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) blacklistClaims(ctx context.Context, claims *JWTClaims) error {
	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ErrInvalidToken
	}

	err = ts.blacklist.Blacklist(ctx, &BlacklistedToken{
		JTI:           claims.TokenID(),
		UserID:        userID,
		TokenType:     claims.TokenType(),
		ExpiresAt:     claims.Expires().UTC(),
		BlacklistedAt: ts.now().UTC(),
	})

	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidToken) {
		return ErrInvalidToken
	}

	ts.logger.Error("TokenService blacklist token", "error", err)
	return serviceUnavailable(err, "failed to blacklist token")
}

func (ts *TokenService) resolveIdentity(ctx context.Context, claims *JWTClaims) (Identity, error) {
	if ts.resolver == nil {
		return claimsIdentity{claims: claims}, nil
	}

	identity, err := ts.resolver.ResolveIdentity(ctx, claims.UserID())
	if err != nil {
		if TextCode(err) == TextCodeIdentityNotFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if identity == nil {
		return nil, ErrInvalidToken
	}

	return identity, nil
}

// claimsIdentity rebuilds an identity from token claims when no resolver is set
type claimsIdentity struct {
	claims *JWTClaims
}

func (c claimsIdentity) ID() string       { return c.claims.UserID() }
func (c claimsIdentity) Username() string { return "" }
func (c claimsIdentity) Email() string    { return "" }
func (c claimsIdentity) Role() string     { return c.claims.Role() }
