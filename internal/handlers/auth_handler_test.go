package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/finalword/backend/internal/config"
	"github.com/finalword/backend/internal/dto"
	"github.com/finalword/backend/internal/middleware"
	"github.com/finalword/backend/internal/models"
	"github.com/finalword/backend/internal/services"
	"github.com/finalword/backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory store fakes so the full register/login/refresh flow runs
// against the real AuthService without a database.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[store.NormalizeEmail(email)]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := store.NormalizeEmail(user.Email)
	if _, ok := m.users[key]; ok {
		return store.ErrDuplicate
	}
	copied := *user
	m.users[key] = &copied
	return nil
}

func (m *memUserStore) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[store.NormalizeEmail(user.Email)] = &copied
	return nil
}

func (m *memUserStore) TouchActivity(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.LastActivity = at
		}
	}
	return nil
}

type memTokenStore struct {
	mu   sync.Mutex
	rows map[string]*models.RefreshToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: make(map[string]*models.RefreshToken)}
}

func (m *memTokenStore) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[token]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memTokenStore) Create(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *token
	m.rows[token.Token] = &copied
	return nil
}

func (m *memTokenStore) Rotate(_ context.Context, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[oldToken]
	if !ok {
		return false, nil
	}
	delete(m.rows, oldToken)
	row.Token = newToken
	row.ExpiresAt = expiresAt
	m.rows[newToken] = row
	return true, nil
}

func (m *memTokenStore) Delete(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[token]; !ok {
		return false, nil
	}
	delete(m.rows, token)
	return true, nil
}

func (m *memTokenStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.rows {
		if r.ExpiresAt.Before(before) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

type stubVerifier struct {
	claims *services.IdentityClaims
	err    error
}

func (v *stubVerifier) Verify(context.Context, string) (*services.IdentityClaims, error) {
	return v.claims, v.err
}

func newTestApp(verifier services.IdentityVerifier) *fiber.App {
	cfg := &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 720 * time.Hour,
	}

	authService := services.NewAuthService(newMemUserStore(), newMemTokenStore(), verifier, cfg)
	h := NewAuthHandler(authService)

	app := fiber.New()
	app.Post("/v1/auth/register", h.Register)
	app.Post("/v1/auth/login", h.Login)
	app.Post("/v1/auth/external-login", h.ExternalLogin)
	app.Post("/v1/auth/refresh-token", h.RefreshToken)
	app.Post("/v1/auth/revoke-token", h.RevokeToken)
	app.Get("/v1/auth/me", middleware.JWTProtected(cfg), h.Me)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestRegisterThenLoginScenario(t *testing.T) {
	app := newTestApp(&stubVerifier{})

	resp := postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "A", Email: "a@x.com", Password: "Secret1!", ConfirmPassword: "Secret1!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var registered dto.RegisterResponse
	decodeBody(t, resp, &registered)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "a@x.com", registered.Email)

	resp = postJSON(t, app, "/v1/auth/login", dto.LoginRequest{Email: "a@x.com", Password: "Secret1!"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var loggedIn dto.LoginResponse
	decodeBody(t, resp, &loggedIn)
	assert.NotEmpty(t, loggedIn.AccessToken)
	assert.Equal(t, "a@x.com", loggedIn.Email)
	assert.NotEqual(t, uuid.Nil, loggedIn.UserID)

	resp = postJSON(t, app, "/v1/auth/login", dto.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginDoesNotRevealAccountExistence(t *testing.T) {
	app := newTestApp(&stubVerifier{})

	postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "A", Email: "a@x.com", Password: "Secret1!",
	})

	wrongPassword := postJSON(t, app, "/v1/auth/login", dto.LoginRequest{Email: "a@x.com", Password: "wrong"})
	unknownEmail := postJSON(t, app, "/v1/auth/login", dto.LoginRequest{Email: "ghost@x.com", Password: "wrong"})

	assert.Equal(t, fiber.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, unknownEmail.StatusCode)

	// Identical bodies for both failure modes.
	b1, _ := io.ReadAll(wrongPassword.Body)
	b2, _ := io.ReadAll(unknownEmail.Body)
	assert.Equal(t, string(b1), string(b2))
}

func TestRegisterRejectsDuplicateAndBadInput(t *testing.T) {
	app := newTestApp(&stubVerifier{})

	resp := postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "A", Email: "a@x.com", Password: "Secret1!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "B", Email: "a@x.com", Password: "Another1!",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "C", Email: "c@x.com", Password: "short",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "D", Email: "d@x.com", Password: "Secret1!", ConfirmPassword: "Mismatch1!",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRefreshRotationAndRevocation(t *testing.T) {
	app := newTestApp(&stubVerifier{})

	resp := postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "A", Email: "a@x.com", Password: "Secret1!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var registered dto.RegisterResponse
	decodeBody(t, resp, &registered)

	// Rotate once.
	resp = postJSON(t, app, "/v1/auth/refresh-token", dto.TokenRequest{Token: registered.RefreshToken})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var rotated dto.RefreshResponse
	decodeBody(t, resp, &rotated)
	assert.NotEqual(t, registered.RefreshToken, rotated.RefreshToken)

	// The rotated-away string is permanently dead.
	resp = postJSON(t, app, "/v1/auth/refresh-token", dto.TokenRequest{Token: registered.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Revoke the live token, then try to use it.
	resp = postJSON(t, app, "/v1/auth/revoke-token", dto.TokenRequest{Token: rotated.RefreshToken})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/v1/auth/refresh-token", dto.TokenRequest{Token: rotated.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Revoking twice reports the token as invalid.
	resp = postJSON(t, app, "/v1/auth/revoke-token", dto.TokenRequest{Token: rotated.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMeRequiresValidAccessToken(t *testing.T) {
	app := newTestApp(&stubVerifier{})

	resp := postJSON(t, app, "/v1/auth/register", dto.RegisterRequest{
		FullName: "A", Email: "a@x.com", Password: "Secret1!",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var registered dto.RegisterResponse
	decodeBody(t, resp, &registered)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+registered.AccessToken)
	meResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, meResp.StatusCode)

	var me dto.UserResponse
	decodeBody(t, meResp, &me)
	assert.Equal(t, "A", me.FullName)
	assert.Equal(t, "a@x.com", me.Email)

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	meResp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, meResp.StatusCode)
}

func TestExternalLoginEndpoint(t *testing.T) {
	verifier := &stubVerifier{claims: &services.IdentityClaims{Email: "g@x.com", FullName: "G User"}}
	app := newTestApp(verifier)

	resp := postJSON(t, app, "/v1/auth/external-login", dto.ExternalLoginRequest{
		Provider: "google", Token: "provider-token",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var first dto.LoginResponse
	decodeBody(t, resp, &first)
	assert.Equal(t, "g@x.com", first.Email)
	assert.NotEmpty(t, first.AccessToken)

	// Same verified email resolves to the same account.
	resp = postJSON(t, app, "/v1/auth/external-login", dto.ExternalLoginRequest{
		Provider: "google", Token: "provider-token",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var second dto.LoginResponse
	decodeBody(t, resp, &second)
	assert.Equal(t, first.UserID, second.UserID)

	resp = postJSON(t, app, "/v1/auth/external-login", dto.ExternalLoginRequest{
		Provider: "facebook", Token: "provider-token",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
