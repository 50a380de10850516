package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearhouse/storefront/internal/models"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name     string
		p        *Principal
		required models.Role
		want     error
	}{
		{"nil principal", nil, models.RoleUser, models.ErrUnauthorized},
		{"unknown role", &Principal{UserID: 1, Role: "auditor"}, models.RoleUser, models.ErrUnauthorized},
		{"user as user", &Principal{UserID: 1, Role: models.RoleUser}, models.RoleUser, nil},
		{"admin as admin", &Principal{UserID: 1, Role: models.RoleAdmin}, models.RoleAdmin, nil},
		{"user as admin", &Principal{UserID: 1, Role: models.RoleUser}, models.RoleAdmin, models.ErrForbidden},
		{"admin as user", &Principal{UserID: 1, Role: models.RoleAdmin}, models.RoleUser, models.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.p, tc.required)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Sign(42, models.RoleAdmin)
	require.NoError(t, err)

	p := m.Resolve(token)
	require.NotNil(t, p)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, models.RoleAdmin, p.Role)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	assert.Nil(t, m.Resolve(""))
	assert.Nil(t, m.Resolve("not-a-token"))

	// Signed with a different secret.
	other, err := NewTokenManager("other-secret", time.Hour).Sign(1, models.RoleUser)
	require.NoError(t, err)
	assert.Nil(t, m.Resolve(other))
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute)

	token, err := m.Sign(1, models.RoleUser)
	require.NoError(t, err)
	assert.Nil(t, m.Resolve(token))
}
