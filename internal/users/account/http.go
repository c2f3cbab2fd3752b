// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/warden/internal/platform/middleware"
	requestutil "github.com/taibuivan/warden/internal/platform/request"
	"github.com/taibuivan/warden/internal/platform/respond"
	"github.com/taibuivan/warden/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the /users HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the account directory routes.
//
// # Endpoints
//   - GET    /      : Lists accounts (view_all_users).
//   - POST   /      : Creates an account (create_user).
//   - GET    /{id}  : Reads an account (self or view_all_users).
//   - PATCH  /{id}  : Partially updates an account (field-level grants).
//   - DELETE /{id}  : Deletes an account (delete_user).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listAccounts)
	router.Post("/", handler.createAccount)
	router.Get("/{id}", handler.getAccount)
	router.Patch("/{id}", handler.updateAccount)
	router.Delete("/{id}", handler.deleteAccount)

	return router
}

// # Request Payloads

type createRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
	IsActive        *bool  `json:"is_active"`
}

type updateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

// # Handlers

/*
GET /api/v1/users

Response:
  - 200: []Account with pagination meta
  - 401/403: missing identity or view_all_users
*/
func (handler *Handler) listAccounts(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	accounts, total, err := handler.service.ListAccounts(request.Context(), requestutil.Principal(request), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, accounts, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/users

Response:
  - 201: Account
  - 403: missing create_user, or a privileged role/is_active value
  - 422: validation failure or duplicate email
*/
func (handler *Handler) createAccount(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.service.CreateAccount(request.Context(), requestutil.Principal(request), CreateInput{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Password:        input.Password,
		PasswordConfirm: input.PasswordConfirm,
		Role:            input.Role,
		IsActive:        input.IsActive,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account)
}

/*
GET /api/v1/users/{id}
*/
func (handler *Handler) getAccount(writer http.ResponseWriter, request *http.Request) {
	account, err := handler.service.GetAccount(request.Context(), requestutil.Principal(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
PATCH /api/v1/users/{id}

Description: only the supplied keys are applied. A single disallowed field
rejects the whole request with 403 and nothing is written.
*/
func (handler *Handler) updateAccount(writer http.ResponseWriter, request *http.Request) {
	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.service.UpdateAccount(request.Context(), requestutil.Principal(request), requestutil.ID(request, "id"), UpdateInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
DELETE /api/v1/users/{id}
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteAccount(request.Context(), requestutil.Principal(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
