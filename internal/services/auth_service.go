package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finalword/backend/internal/config"
	"github.com/finalword/backend/internal/models"
	"github.com/finalword/backend/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrDuplicateAccount    = errors.New("email already registered")
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	ErrInvalidToken        = errors.New("invalid or expired refresh token")
	ErrUnauthenticated     = errors.New("invalid or expired access token")
	ErrStore               = errors.New("storage failure")
)

const ProviderGoogle = "google"

// timingHash keeps the missing-user and federation-only login paths as slow
// as a real bcrypt comparison, so response latency does not reveal whether
// an email is registered.
var timingHash, _ = bcrypt.GenerateFromPassword([]byte("finalword.timing.pad"), bcrypt.DefaultCost)

// TokenPair is the result of every successful authentication: a short-lived
// access token and a long-lived, persisted refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IdentityClaims is what a federated provider vouches for after verifying
// its own credential.
type IdentityClaims struct {
	Email    string
	FullName string
}

// IdentityVerifier validates a bearer credential issued by an external
// identity provider and extracts the verified claims.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*IdentityClaims, error)
}

// tokenClaims is the canonical claim schema for both token classes:
// the user id plus the registered expiry. The jti keeps two tokens minted
// within the same second from colliding on the same signed string.
type tokenClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// AuthService is the sole authority over the token-pair lifecycle. It is
// stateless between calls; all durable state lives in the injected stores.
type AuthService struct {
	users    store.UserStore
	tokens   store.TokenStore
	verifier IdentityVerifier
	cfg      *config.Config
	now      func() time.Time
}

func NewAuthService(users store.UserStore, tokens store.TokenStore, verifier IdentityVerifier, cfg *config.Config) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Login verifies a local email/password pair. Unknown email, federation-only
// account, and wrong password all report the same ErrInvalidCredentials so
// account existence cannot be probed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		bcrypt.CompareHashAndPassword(timingHash, []byte(password))
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, s.storeFailure("find user by email", err)
	}

	if !user.HasPassword() {
		bcrypt.CompareHashAndPassword(timingHash, []byte(password))
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Register creates a local account and issues its first token pair. The
// duplicate pre-check is an optimization; the unique index on users.email
// is the authoritative guard, and a lost insert race still surfaces as
// ErrDuplicateAccount.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*TokenPair, *models.User, error) {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, nil, ErrDuplicateAccount
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, s.storeFailure("find user by email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		Password:     string(hash),
		LastActivity: s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, nil, ErrDuplicateAccount
		}
		return nil, nil, s.storeFailure("create user", err)
	}

	// If token persistence fails here the account exists without tokens;
	// that state is recoverable through a plain login.
	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// ExternalLogin exchanges a federated provider credential for a local token
// pair, creating the account on first sight of the verified email. A
// federated login against an email that already has a password account
// shares that account; linking by email is intentional.
func (s *AuthService) ExternalLogin(ctx context.Context, provider, providerToken string) (*TokenPair, *models.User, error) {
	if provider != ProviderGoogle {
		return nil, nil, ErrUnsupportedProvider
	}

	claims, err := s.verifier.Verify(ctx, providerToken)
	if err != nil {
		slog.Warn("federated token verification failed", "provider", provider, "error", err)
		return nil, nil, ErrInvalidCredentials
	}
	if claims.Email == "" {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, claims.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if user, err = s.createFederatedUser(ctx, claims); err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, s.storeFailure("find user by email", err)
	}

	pair, err := s.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *AuthService) createFederatedUser(ctx context.Context, claims *IdentityClaims) (*models.User, error) {
	fullName := claims.FullName
	if fullName == "" {
		fullName = strings.Split(claims.Email, "@")[0]
	}

	user := &models.User{
		ID:             uuid.New(),
		FullName:       fullName,
		Email:          claims.Email,
		Password:       "",
		EmailConfirmed: true,
		LastActivity:   s.now().UTC(),
	}

	err := s.users.Create(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race against a concurrent first login for the same email.
		existing, findErr := s.users.FindByEmail(ctx, claims.Email)
		if findErr != nil {
			return nil, s.storeFailure("find user by email", findErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, s.storeFailure("create federated user", err)
	}
	return user, nil
}

// Refresh rotates a refresh token: the presented string must exist in the
// store and verify against the refresh secret, then its row is overwritten
// in place with a fresh token and expiry. The conditional overwrite makes
// the lookup-then-rotate sequence atomic, so of two concurrent calls with
// the same token at most one succeeds; the loser sees ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	record, err := s.tokens.FindByToken(ctx, presented)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, s.storeFailure("find refresh token", err)
	}

	now := s.now()
	if now.After(record.ExpiresAt) {
		s.discardToken(ctx, presented)
		return nil, ErrInvalidToken
	}

	userID, err := s.parseToken(presented, s.cfg.RefreshTokenSecret)
	if err != nil {
		// A stored row whose token no longer verifies is dead weight.
		s.discardToken(ctx, presented)
		return nil, ErrInvalidToken
	}

	accessToken, err := s.signToken(userID, s.cfg.AccessTokenSecret, now, s.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.signToken(userID, s.cfg.RefreshTokenSecret, now, s.cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	rotated, err := s.tokens.Rotate(ctx, presented, refreshToken, now.Add(s.cfg.RefreshTokenExpiry))
	if err != nil {
		return nil, s.storeFailure("rotate refresh token", err)
	}
	if !rotated {
		return nil, ErrInvalidToken
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Revoke deletes the refresh token row. The caller cannot tell an
// already-revoked token from one that never existed; both are ErrInvalidToken.
// Issued access tokens stay valid until their own expiry.
func (s *AuthService) Revoke(ctx context.Context, presented string) error {
	matched, err := s.tokens.Delete(ctx, presented)
	if err != nil {
		return s.storeFailure("delete refresh token", err)
	}
	if !matched {
		return ErrInvalidToken
	}
	return nil
}

// Authenticate verifies an access token's signature and expiry and returns
// the user id it was issued for. No role or permission checks exist; the
// id claim is the whole payload.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error) {
	userID, err := s.parseToken(accessToken, s.cfg.AccessTokenSecret)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return userID, nil
}

// UserByID resolves an authenticated user id to its account record.
func (s *AuthService) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, s.storeFailure("find user by id", err)
	}
	return user, nil
}

// IssueTokens signs a fresh access/refresh pair for the user and persists
// a new refresh token row. Every successful authentication goes through
// here; an existing row is never reused.
func (s *AuthService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := s.now()

	accessToken, err := s.signToken(user.ID, s.cfg.AccessTokenSecret, now, s.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := s.signToken(user.ID, s.cfg.RefreshTokenSecret, now, s.cfg.RefreshTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	record := &models.RefreshToken{
		ID:        uuid.New(),
		Token:     refreshToken,
		ExpiresAt: now.Add(s.cfg.RefreshTokenExpiry),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, s.storeFailure("persist refresh token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// PurgeExpiredTokens removes refresh token rows past their expiry. Expired
// tokens are already rejected on presentation; this only keeps the table
// from growing without bound.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}

func (s *AuthService) signToken(userID uuid.UUID, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		ID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *AuthService) parseToken(tokenString, secret string) (uuid.UUID, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.ID)
}

func (s *AuthService) discardToken(ctx context.Context, token string) {
	if _, err := s.tokens.Delete(ctx, token); err != nil {
		slog.Error("failed to discard refresh token", "error", err)
	}
}

// storeFailure maps any persistence fault to the opaque ErrStore; raw
// driver errors are logged here and never leave the service.
func (s *AuthService) storeFailure(op string, err error) error {
	slog.Error("store operation failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, ErrStore)
}
