package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayFetchLoggedInUser(t *testing.T) {
	t.Run("forwards cookies and decodes the actor", func(t *testing.T) {
		actor := &sso.Actor{User: &sso.UserActor{
			ID:    uuid.New(),
			Email: "person@example.com",
		}}

		var gotCookie string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(FetchedActor{Actor: actor, Token: "access-token"})
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, nil)
		fetched, err := gw.FetchLoggedInUser(context.Background(), "session=abc; authToken=tok")
		require.NoError(t, err)
		require.NotNil(t, fetched)

		assert.Equal(t, "session=abc; authToken=tok", gotCookie)
		assert.Equal(t, actor.User.ID, fetched.Actor.User.ID)
		assert.Equal(t, "access-token", fetched.Token)
	})

	t.Run("no content means no actor", func(t *testing.T) {
		for _, status := range []int{http.StatusNoContent, http.StatusNotFound, http.StatusUnauthorized} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

			gw := NewHTTPGateway(server.URL, nil)
			fetched, err := gw.FetchLoggedInUser(context.Background(), "")
			assert.NoError(t, err)
			assert.Nil(t, fetched)

			server.Close()
		}
	})

	t.Run("missing actor in body means no actor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"token":"orphan"}`))
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, nil)
		fetched, err := gw.FetchLoggedInUser(context.Background(), "")
		assert.NoError(t, err)
		assert.Nil(t, fetched)
	})

	t.Run("invalid actor is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"actor":{}}`))
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, nil)
		_, err := gw.FetchLoggedInUser(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("unexpected status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		gw := NewHTTPGateway(server.URL, nil)
		_, err := gw.FetchLoggedInUser(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestGatewayFunc(t *testing.T) {
	var nilFn GatewayFunc
	fetched, err := nilFn.FetchLoggedInUser(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, fetched)
}
