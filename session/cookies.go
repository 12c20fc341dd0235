package session

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

// Cookie names exposed to the frontend. logged-user and authToken are
// intentionally NOT http-only: the frontend reads the cached actor from them.
const (
	CookieLoggedUser = "logged-user"
	CookieAuthToken  = "authToken"

	userSessionName    = "session"
	patientSessionName = "patient-session"
	userMarkerPrefix   = "user-"
)

// DefaultMarkerTTL is how long a user marker cookie suppresses re-fetching.
const DefaultMarkerTTL = 60 * time.Second

// SessionCookie is one session id/value pair. Sessions are scoped per
// tab/window through an optional ".<window>" suffix on the cookie name; the
// full cookie name is the session id.
type SessionCookie struct {
	ID      string
	Value   string
	Patient bool
}

// CookieMutation describes one outbound cookie change. Mutations with
// MirrorHeader also set a same-named response header so the immediately
// following request on the same round trip can read the value without
// waiting for the cookie jar.
type CookieMutation struct {
	Name         string
	Value        string
	MaxAge       time.Duration
	HTTPOnly     bool
	Clear        bool
	MirrorHeader bool
}

// splitSessionCookies partitions request cookies into user and patient
// session cookies, sorted by id for deterministic resolution.
func splitSessionCookies(cookies map[string]string) (users, patients []SessionCookie) {
	for name, value := range cookies {
		switch {
		case isSessionCookieName(name, patientSessionName):
			patients = append(patients, SessionCookie{ID: name, Value: value, Patient: true})
		case isSessionCookieName(name, userSessionName):
			users = append(users, SessionCookie{ID: name, Value: value})
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	sort.Slice(patients, func(i, j int) bool { return patients[i].ID < patients[j].ID })
	return users, patients
}

func isSessionCookieName(name, base string) bool {
	return name == base || strings.HasPrefix(name, base+".")
}

// ParseCookieHeader splits a raw Cookie header into a name/value map.
func ParseCookieHeader(header string) map[string]string {
	out := map[string]string{}
	if header == "" {
		return out
	}
	req := http.Request{Header: http.Header{"Cookie": []string{header}}}
	for _, c := range req.Cookies() {
		out[c.Name] = c.Value
	}
	return out
}
