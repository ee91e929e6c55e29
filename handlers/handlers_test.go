package handlers

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/pizzapizza/pizzeria/api"
	"github.com/pizzapizza/pizzeria/auth"
	"github.com/pizzapizza/pizzeria/events"
	"github.com/pizzapizza/pizzeria/store"
)

// env wires real collections in a temp directory behind the handlers under
// test; only the payment gateway is stubbed.
type env struct {
	users  *store.Collection
	tokens *store.Collection
	menus  *store.Collection
	carts  *store.Collection
	orders *store.Collection

	auth *auth.Service
	bus  *events.Bus
	log  *logrus.Logger

	userHandler *UserHandler
	menuHandler *MenuHandler
	cartHandler *CartHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	collection := func(name string) *store.Collection {
		c, err := st.Collection(name)
		require.NoError(t, err)
		return c
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	e := &env{
		users:  collection("users"),
		tokens: collection("tokens"),
		menus:  collection("menus"),
		carts:  collection("carts"),
		orders: collection("orders"),
		log:    log,
	}
	e.auth = auth.NewService(e.tokens, time.Hour)
	e.bus = events.NewBus(log, 8)

	e.userHandler = &UserHandler{Users: e.users, Auth: e.auth, Log: log}
	e.menuHandler = &MenuHandler{Menus: e.menus, Auth: e.auth}
	e.cartHandler = &CartHandler{Carts: e.carts, Menus: e.menus, Auth: e.auth}

	require.NoError(t, SeedMenu(e.menus))
	return e
}

// createUser signs up a user through the handler and returns a valid token
// for it.
func (e *env) createUser(t *testing.T, email string) auth.Token {
	t.Helper()

	resp, err := e.userHandler.Create(context.Background(), jsonRequest(t, map[string]any{
		"email":        email,
		"firstName":    "Jane",
		"lastName":     "Doe",
		"street":       "Main Street 1",
		"zip":          "12345",
		"city":         "Springfield",
		"password":     "hunter22",
		"tosAgreement": true,
	}))
	require.NoError(t, err)
	require.Equal(t, 201, resp.Status)

	token, err := e.auth.Issue(email)
	require.NoError(t, err)
	return token
}

func jsonRequest(t *testing.T, payload any) *api.Request {
	t.Helper()
	req := &api.Request{
		Headers: map[string]string{},
		Query:   map[string]string{},
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		req.Payload = data
	}
	return req
}

func withToken(req *api.Request, tokenID string) *api.Request {
	req.Headers["authorization"] = "Bearer " + tokenID
	return req
}

func withQuery(req *api.Request, key, value string) *api.Request {
	req.Query[key] = value
	return req
}

func apiError(t *testing.T, err error) *api.Error {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*api.Error)
	require.True(t, ok, "expected *api.Error, got %T: %v", err, err)
	return apiErr
}
