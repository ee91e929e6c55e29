package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pizzapizza/pizzeria/api"
	"github.com/pizzapizza/pizzeria/auth"
	"github.com/pizzapizza/pizzeria/models"
	"github.com/pizzapizza/pizzeria/store"
	"github.com/pizzapizza/pizzeria/utils"
)

type UserHandler struct {
	Users *store.Collection
	Auth  *auth.Service
	Log   *logrus.Logger
}

// Create handles signup. All fields are required and the email must not be
// registered yet.
func (h *UserHandler) Create(ctx context.Context, req *api.Request) (*api.Response, error) {
	var body struct {
		Email        string `json:"email"`
		FirstName    string `json:"firstName"`
		LastName     string `json:"lastName"`
		Street       string `json:"street"`
		Zip          string `json:"zip"`
		City         string `json:"city"`
		Password     string `json:"password"`
		TOSAgreement bool   `json:"tosAgreement"`
	}
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			return nil, api.BadRequest("invalid request body")
		}
	}

	var invalid fieldErrors
	email := strings.TrimSpace(body.Email)
	if !validEmail(email) {
		invalid.add("email")
	}
	firstName := strings.TrimSpace(body.FirstName)
	if firstName == "" {
		invalid.add("firstName")
	}
	lastName := strings.TrimSpace(body.LastName)
	if lastName == "" {
		invalid.add("lastName")
	}
	street := strings.TrimSpace(body.Street)
	if street == "" {
		invalid.add("street")
	}
	zip := strings.TrimSpace(body.Zip)
	if !validZip(zip) {
		invalid.add("zip")
	}
	city := strings.TrimSpace(body.City)
	if city == "" {
		invalid.add("city")
	}
	if len(body.Password) < minPasswordLength {
		invalid.add("password")
	}
	if !body.TOSAgreement {
		invalid.add("tosAgreement")
	}
	if err := invalid.err(); err != nil {
		return nil, err
	}

	exists, err := h.Users.Exists(email)
	if err != nil {
		return nil, fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil, api.BadRequest("user already exists")
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Street:         street,
		Zip:            zip,
		City:           city,
		HashedPassword: hashed,
		TOSAgreement:   body.TOSAgreement,
	}
	if err := h.Users.Create(email, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, api.BadRequest("user already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return api.Created(), nil
}

// Get returns the account document with the hashed password stripped. The
// caller's token must belong to the requested email.
func (h *UserHandler) Get(ctx context.Context, req *api.Request) (*api.Response, error) {
	email := strings.TrimSpace(req.Query["email"])
	if !validEmail(email) {
		var invalid fieldErrors
		invalid.add("email")
		return nil, invalid.err()
	}

	if !h.Auth.Authorize(req.BearerToken(), email) {
		return nil, authError()
	}

	var user models.User
	if err := h.Users.Read(email, &user); err != nil {
		// An authorized token implies the user existed; this is unexpected.
		return nil, fmt.Errorf("read user %s: %w", email, err)
	}
	user.HashedPassword = ""

	return api.OK(user), nil
}

// Update applies a partial update. At least one updatable field must be
// present; a new password is hashed before it is persisted.
func (h *UserHandler) Update(ctx context.Context, req *api.Request) (*api.Response, error) {
	var body struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Street    *string `json:"street"`
		Zip       *string `json:"zip"`
		City      *string `json:"city"`
		Password  *string `json:"password"`
	}
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			return nil, api.BadRequest("invalid request body")
		}
	}

	var invalid fieldErrors
	email := strings.TrimSpace(req.Query["email"])
	if !validEmail(email) {
		invalid.add("email")
	}

	fields := make(map[string]any)
	trimmed := func(name string, value *string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			invalid.add(name)
			return
		}
		fields[name] = v
	}
	trimmed("firstName", body.FirstName)
	trimmed("lastName", body.LastName)
	trimmed("street", body.Street)
	trimmed("city", body.City)
	if body.Zip != nil {
		zip := strings.TrimSpace(*body.Zip)
		if !validZip(zip) {
			invalid.add("zip")
		} else {
			fields["zip"] = zip
		}
	}
	if body.Password != nil {
		if len(*body.Password) < minPasswordLength {
			invalid.add("password")
		}
	}
	if err := invalid.err(); err != nil {
		return nil, err
	}

	if !h.Auth.Authorize(req.BearerToken(), email) {
		return nil, authError()
	}

	exists, err := h.Users.Exists(email)
	if err != nil {
		return nil, fmt.Errorf("check user existence: %w", err)
	}
	if !exists {
		return nil, api.BadRequest("user does not exist")
	}

	if body.Password != nil {
		hashed, err := utils.HashPassword(*body.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["hashedPassword"] = hashed
	}

	if len(fields) == 0 {
		return nil, api.BadRequest("You must provide at least one value to be updated")
	}

	if err := h.Users.Update(email, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, api.BadRequest("user does not exist")
		}
		return nil, fmt.Errorf("update user %s: %w", email, err)
	}

	return api.NoContent(), nil
}

// Delete removes the account document. Tokens and carts belonging to the
// user are left behind, a known limitation.
func (h *UserHandler) Delete(ctx context.Context, req *api.Request) (*api.Response, error) {
	email := strings.TrimSpace(req.Query["email"])
	if !validEmail(email) {
		var invalid fieldErrors
		invalid.add("email")
		return nil, invalid.err()
	}

	if !h.Auth.Authorize(req.BearerToken(), email) {
		return nil, authError()
	}

	if err := h.Users.Delete(email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, api.BadRequest("user does not exist")
		}
		return nil, fmt.Errorf("delete user %s: %w", email, err)
	}

	return api.NoContent(), nil
}

// Login exchanges email and password for a fresh token.
func (h *UserHandler) Login(ctx context.Context, req *api.Request) (*api.Response, error) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			return nil, api.BadRequest("invalid request body")
		}
	}

	var invalid fieldErrors
	email := strings.TrimSpace(body.Email)
	if !validEmail(email) {
		invalid.add("email")
	}
	if body.Password == "" {
		invalid.add("password")
	}
	if err := invalid.err(); err != nil {
		return nil, err
	}

	var user models.User
	if err := h.Users.Read(email, &user); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.Log.WithError(err).WithField("email", email).Error("could not read user during login")
		}
		return nil, api.BadRequest("wrong email or password")
	}
	if !utils.CheckPassword(user.HashedPassword, body.Password) {
		return nil, api.BadRequest("wrong email or password")
	}

	token, err := h.Auth.Issue(email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return api.OK(token), nil
}

// Logout revokes the caller's token.
func (h *UserHandler) Logout(ctx context.Context, req *api.Request) (*api.Response, error) {
	tokenID := req.BearerToken()
	if tokenID == "" {
		return nil, authError()
	}

	if err := h.Auth.Revoke(tokenID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, authError()
		}
		return nil, fmt.Errorf("revoke token: %w", err)
	}

	return api.NoContent(), nil
}
