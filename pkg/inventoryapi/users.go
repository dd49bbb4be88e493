package inventoryapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
)

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	IsNewUser bool   `json:"is_new_user"`
}

type loginResponse struct {
	Access string `json:"access"`
	UserID int64  `json:"user_id"`
}

// Login exchanges credentials for a backend access token.
func (c *API) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	var out loginResponse
	if err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "user/login",
		body:     loginRequest{Email: email, Password: password},
	}, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "login response missing access token")
	}
	return out.Access, nil
}

// FirstLogin asks the backend for the id of a user that has no password yet.
func (c *API) FirstLogin(ctx context.Context, email string) (int64, error) {
	if strings.TrimSpace(email) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	var out loginResponse
	if err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "user/login",
		body:     loginRequest{Email: email, IsNewUser: true},
	}, &out); err != nil {
		return 0, err
	}
	if out.UserID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "first login response missing user id")
	}
	return out.UserID, nil
}

// UpdatePassword sets the password of a first-login user.
func (c *API) UpdatePassword(ctx context.Context, userID int64, password string) error {
	if userID <= 0 || password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and password are required")
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "user/update-password",
		body: map[string]string{
			"user_id":  strconv.FormatInt(userID, 10),
			"password": password,
		},
	}, nil)
}

// Me returns the user the token belongs to.
func (c *API) Me(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "user/me", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) ListUsers(ctx context.Context, token string, params ListParams) (*Page[User], error) {
	var out Page[User]
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "user/users", token: token, query: params.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *API) CreateUser(ctx context.Context, token string, in CreateUserRequest) error {
	return c.do(ctx, request{method: http.MethodPost, endpoint: "user/create-user", token: token, body: in}, nil)
}

func (c *API) ListActivities(ctx context.Context, token string, params ListParams) (*Page[Activity], error) {
	var out Page[Activity]
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "user/activities-log", token: token, query: params.values()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
