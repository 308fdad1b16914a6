package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
	"gamepanel/internal/metrics"
)

// VersionStore is what the token service needs from the credential store:
// a live read of the user's token version and a way to bump it.
type VersionStore interface {
	GetUser(ctx context.Context, username string) (*UserWithSensitive, error)
	IncrementTokenVersion(ctx context.Context, username string) error
}

// Claims are the signed token payload.
type Claims struct {
	Kind    string `json:"knd"`
	Version int64  `json:"ver"`
	Account string `json:"aid"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService. Zero TTLs select the defaults.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService issues and validates HS256 access and refresh tokens bound to
// the user's token version. There is no revocation list: bumping the version
// is the only way to revoke, which is why Validate always reads it live.
type TokenService struct {
	store      VersionStore
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

// NewTokenService creates a token service. The secret must already have
// passed CheckSecret; it is copied.
func NewTokenService(store VersionStore, cfg TokenConfig, log *logger.Logger, m *metrics.Metrics) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = constants.AccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = constants.RefreshTokenTTL
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenService{
		store:      store,
		secret:     secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
		logger:     log,
		metrics:    m,
	}
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccessToken signs a 15-minute access token carrying the user's current
// token version. Returns ErrUserNotFound if the user no longer exists.
func (s *TokenService) IssueAccessToken(ctx context.Context, username string) (string, time.Time, error) {
	return s.issue(ctx, username, constants.TokenKindAccess, s.accessTTL)
}

// IssueRefreshToken signs a refresh token. Refresh tokens are only accepted by
// Validate with the refresh kind, never as API credentials.
func (s *TokenService) IssueRefreshToken(ctx context.Context, username string) (string, time.Time, error) {
	return s.issue(ctx, username, constants.TokenKindRefresh, s.refreshTTL)
}

// IssuePair issues an access and a refresh token.
func (s *TokenService) IssuePair(ctx context.Context, username string) (*TokenPair, error) {
	access, accessExp, err := s.IssueAccessToken(ctx, username)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken(ctx, username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) issue(ctx context.Context, username, kind string, ttl time.Duration) (string, time.Time, error) {
	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expires := now.Add(ttl)
	claims := Claims{
		Kind:    kind,
		Version: user.TokenVersion,
		Account: user.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.TokenIssuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Validate verifies signature, issuer, expiry, kind and the live token version.
// Every failure returns ErrInvalidToken; the reason is only logged.
func (s *TokenService) Validate(ctx context.Context, token, expectedKind string) (*Identity, error) {
	identity, reason := s.validate(ctx, token, expectedKind)
	if reason != nil {
		s.logger.Debug("Auth: %s token rejected: %v", expectedKind, reason)
		s.metrics.TokenValidation(expectedKind, false)
		return nil, ErrInvalidToken
	}
	s.metrics.TokenValidation(expectedKind, true)
	return identity, nil
}

func (s *TokenService) validate(ctx context.Context, token, expectedKind string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(constants.TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token not valid")
	}
	if claims.Kind != expectedKind {
		return nil, fmt.Errorf("kind %q, want %q", claims.Kind, expectedKind)
	}
	if claims.Subject == "" {
		return nil, errors.New("subject missing")
	}

	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject lookup: %w", err)
	}
	if user.TokenVersion != claims.Version {
		return nil, fmt.Errorf("stale version %d, current %d", claims.Version, user.TokenVersion)
	}
	// A recreated account restarts at version 0; tokens of its predecessor must not carry over.
	if claims.Account == "" || claims.Account != user.AccountID {
		return nil, errors.New("issued to a previous account")
	}

	return &Identity{Username: user.Username, TokenVersion: user.TokenVersion}, nil
}

// InvalidateAll revokes every outstanding token of the user.
func (s *TokenService) InvalidateAll(ctx context.Context, username string) error {
	if err := s.store.IncrementTokenVersion(ctx, username); err != nil {
		return err
	}
	s.logger.Info("Auth: all tokens invalidated for %q", username)
	return nil
}
