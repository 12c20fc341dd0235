package sso

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStripAccessToken(t *testing.T) {
	t.Run("removes the access token", func(t *testing.T) {
		raw := map[string]any{
			"access_token": "secret",
			"picture":      "https://example.com/p.png",
			"locale":       "nb",
		}

		stripped := StripAccessToken(raw)
		assert.NotContains(t, stripped, "access_token")
		assert.Equal(t, "https://example.com/p.png", stripped["picture"])

		// input stays untouched
		assert.Contains(t, raw, "access_token")
	})

	t.Run("idempotent", func(t *testing.T) {
		once := StripAccessToken(map[string]any{"access_token": "secret", "sub": "123"})
		twice := StripAccessToken(once)
		assert.Equal(t, once, twice)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, StripAccessToken(nil))
	})
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Now()

	var nilToken *RefreshToken
	assert.True(t, nilToken.Expired(now))

	live := &RefreshToken{ExpiresOn: now.Add(time.Minute)}
	assert.False(t, live.Expired(now))

	dead := &RefreshToken{ExpiresOn: now.Add(-time.Minute)}
	assert.True(t, dead.Expired(now))

	boundary := &RefreshToken{ExpiresOn: now}
	assert.False(t, boundary.Expired(now), "a token expiring exactly now is still usable")
}

func TestUserRole(t *testing.T) {
	var nilUser *User
	assert.Equal(t, RoleGuest, nilUser.Role())

	u := testUser("person@example.com", true)
	u.Roles = []UserRole{RoleStaff, RoleClinician}
	assert.Equal(t, RoleClinician, u.Role())

	u.Roles = nil
	assert.Equal(t, RoleGuest, u.Role())
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleIsAtLeast(RoleAdmin, RoleGuest))
	assert.True(t, RoleIsAtLeast(RoleStaff, RoleStaff))
	assert.False(t, RoleIsAtLeast(RoleGuest, RoleAdmin))
	assert.False(t, RoleIsAtLeast("bogus", RoleGuest))

	assert.Equal(t, RoleAdmin, HighestRole([]UserRole{RoleGuest, RoleAdmin, RoleStaff}))
	assert.Equal(t, RoleGuest, HighestRole(nil))
	assert.Equal(t, RoleGuest, HighestRole([]UserRole{"bogus"}))

	role, ok := ParseRole("clinician")
	assert.True(t, ok)
	assert.Equal(t, RoleClinician, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)

	assert.True(t, IsValidRole(RoleStaff))
	assert.False(t, IsValidRole("superuser"))
}
