package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "test-client-id.apps.googleusercontent.com"

func testJWKSServer(t *testing.T, pub *rsa.PublicKey, kid string) *httptest.Server {
	t.Helper()
	jwks := googleJWKS{
		Keys: []googleJWK{{
			Kty: "RSA",
			Kid: kid,
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func googleClaims(overrides map[string]interface{}) jwt.MapClaims {
	claims := jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"sub":            "1234567890",
		"aud":            testClientID,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
		"email":          "g@example.com",
		"email_verified": true,
		"name":           "G User",
	}
	for k, v := range overrides {
		claims[k] = v
	}
	return claims
}

func newTestVerifier(t *testing.T) (*GoogleVerifier, *rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	const kid = "test-key-1"
	srv := testJWKSServer(t, &key.PublicKey, kid)

	v := NewGoogleVerifier(testClientID)
	v.jwksURL = srv.URL
	return v, key, kid
}

func TestGoogleVerifierAcceptsValidToken(t *testing.T) {
	v, key, kid := newTestVerifier(t)

	token := signIDToken(t, key, kid, googleClaims(nil))

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", claims.Email)
	assert.Equal(t, "G User", claims.FullName)
}

func TestGoogleVerifierRejectsWrongAudience(t *testing.T) {
	v, key, kid := newTestVerifier(t)

	token := signIDToken(t, key, kid, googleClaims(map[string]interface{}{
		"aud": "someone-else.apps.googleusercontent.com",
	}))

	_, err := v.Verify(context.Background(), token)
	assert.ErrorContains(t, err, "invalid audience")
}

func TestGoogleVerifierRejectsWrongIssuer(t *testing.T) {
	v, key, kid := newTestVerifier(t)

	token := signIDToken(t, key, kid, googleClaims(map[string]interface{}{
		"iss": "https://evil.example.com",
	}))

	_, err := v.Verify(context.Background(), token)
	assert.ErrorContains(t, err, "invalid issuer")
}

func TestGoogleVerifierRejectsExpiredToken(t *testing.T) {
	v, key, kid := newTestVerifier(t)

	token := signIDToken(t, key, kid, googleClaims(map[string]interface{}{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}))

	_, err := v.Verify(context.Background(), token)
	assert.ErrorContains(t, err, "expired")
}

func TestGoogleVerifierRejectsTamperedSignature(t *testing.T) {
	v, _, kid := newTestVerifier(t)

	// Signed with a key the JWKS endpoint does not serve the public half of.
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := signIDToken(t, otherKey, kid, googleClaims(nil))

	_, err = v.Verify(context.Background(), token)
	assert.ErrorContains(t, err, "signature verification failed")
}

func TestGoogleVerifierRejectsMalformedToken(t *testing.T) {
	v := NewGoogleVerifier(testClientID)

	_, err := v.Verify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestGoogleVerifierUnknownKeyID(t *testing.T) {
	v, key, _ := newTestVerifier(t)

	token := signIDToken(t, key, "unknown-kid", googleClaims(nil))

	_, err := v.Verify(context.Background(), token)
	assert.ErrorContains(t, err, "not found")
}
