package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossdata/hoss/auth"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseIdentity(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{
		"sub":         "user-1",
		"nickname":    "tester",
		"email":       "tester@example.com",
		"given_name":  "Test",
		"family_name": "Er",
		"role":        "privileged",
		"groups":      "public, science-team",
		"exp":         expires.Unix(),
	})

	id, err := auth.ParseIdentity(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "tester", id.Nickname)
	assert.Equal(t, "tester@example.com", id.Email)
	assert.Equal(t, "Test", id.GivenName)
	assert.Equal(t, "Er", id.FamilyName)
	assert.Equal(t, auth.RolePrivileged, id.Role)
	assert.Equal(t, []string{"public", "science-team"}, id.Groups)
	assert.True(t, id.ExpiresAt.Equal(expires))
}

func TestParseIdentityDefaultsRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user-2", "email": "u2@example.com"})

	id, err := auth.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, id.Role)
	assert.Empty(t, id.Groups)
}

func TestParseIdentityRejectsGarbage(t *testing.T) {
	_, err := auth.ParseIdentity("not-a-token")
	require.Error(t, err)
}

func TestIdentityExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{name: "future expiry", expiresAt: now.Add(time.Minute), expired: false},
		{name: "past expiry", expiresAt: now.Add(-time.Minute), expired: true},
		{name: "no expiry recorded", expiresAt: time.Time{}, expired: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := &auth.Identity{ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.expired, id.Expired(now))
		})
	}
}

func TestIdentityInGroup(t *testing.T) {
	id := &auth.Identity{Groups: []string{"public", "ops"}}
	assert.True(t, id.InGroup("ops"))
	assert.False(t, id.InGroup("admins"))
}
