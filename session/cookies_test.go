package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSessionCookies(t *testing.T) {
	users, patients := splitSessionCookies(map[string]string{
		"session":           "abc",
		"session.win2":      "def",
		"patient-session":   "pat1",
		"patient-session.3": "pat2",
		"logged-user":       "ignored",
		"sessionish":        "ignored",
	})

	require.Len(t, users, 2)
	assert.Equal(t, "session", users[0].ID)
	assert.Equal(t, "abc", users[0].Value)
	assert.Equal(t, "session.win2", users[1].ID)
	assert.False(t, users[0].Patient)

	require.Len(t, patients, 2)
	assert.Equal(t, "patient-session", patients[0].ID)
	assert.True(t, patients[0].Patient)
}

func TestSplitSessionCookiesEmpty(t *testing.T) {
	users, patients := splitSessionCookies(map[string]string{"other": "x"})
	assert.Empty(t, users)
	assert.Empty(t, patients)
}

func TestParseCookieHeader(t *testing.T) {
	cookies := ParseCookieHeader("session=abc; logged-user=enc%7Bdata; authToken=tok")
	assert.Equal(t, "abc", cookies["session"])
	assert.Equal(t, "enc%7Bdata", cookies["logged-user"])
	assert.Equal(t, "tok", cookies["authToken"])

	assert.Empty(t, ParseCookieHeader(""))
}
