package security_test

import (
	"testing"
	"time"

	"github.com/Rrens/chatdesk/internal/security"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-32-chars!!"

func newManager(accessTTL time.Duration) *security.JWTManager {
	return security.NewJWTManager(testSecret, accessTTL, 7*24*time.Hour)
}

func TestJWTManager_AccessRoundTrip(t *testing.T) {
	manager := newManager(15 * time.Minute)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "test@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, security.AccessToken, claims.Kind)
}

func TestJWTManager_IssueTokenPair(t *testing.T) {
	manager := newManager(15 * time.Minute)
	userID := uuid.New()

	pair, err := manager.IssueTokenPair(userID, "test@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)

	got, err := manager.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTManager_TokenKindsAreNotInterchangeable(t *testing.T) {
	manager := newManager(15 * time.Minute)

	pair, err := manager.IssueTokenPair(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)

	_, err = manager.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	manager := newManager(15 * time.Minute)

	for _, tc := range []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "invalid-token" }},
		{"empty", func() string { return "" }},
		{"other secret", func() string {
			tok, _ := security.NewJWTManager("different-secret-key-32-chars!!", time.Minute, time.Hour).
				GenerateAccessToken(uuid.New(), "test@example.com")
			return tok
		}},
		{"other issuer", func() string {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
				UserID: uuid.New(),
				Kind:   security.AccessToken,
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "someone-else",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				},
			}).SignedString([]byte(testSecret))
			return tok
		}},
		{"no expiry", func() string {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
				UserID:           uuid.New(),
				Kind:             security.AccessToken,
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "chatdesk"},
			}).SignedString([]byte(testSecret))
			return tok
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manager.ValidateAccessToken(tc.token())
			assert.Error(t, err)
		})
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := newManager(-time.Minute)

	token, err := manager.GenerateAccessToken(uuid.New(), "test@example.com")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_AccessTokenTTL(t *testing.T) {
	assert.Equal(t, 30*time.Minute, newManager(30*time.Minute).AccessTokenTTL())
}
