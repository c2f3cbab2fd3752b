// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/warden/internal/platform/middleware"
	requestutil "github.com/taibuivan/warden/internal/platform/request"
	"github.com/taibuivan/warden/internal/platform/respond"
	"github.com/taibuivan/warden/internal/platform/validate"
	"github.com/taibuivan/warden/internal/users/account"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the credential entry points (login, registration,
// password change and reset). The caller's own profile and permission list
// are served here too.
type Handler struct {
	authService    *Service
	accountService *account.Service
}

// NewHandler constructs a new [Handler] with its service dependencies.
func NewHandler(authService *Service, accountService *account.Service) *Handler {
	return &Handler{authService: authService, accountService: accountService}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /token                  : Exchanges credentials for an access token.
//   - POST /register               : Creates an employee account.
//   - GET  /permissions            : Lists the caller's permissions (empty when anonymous).
//   - POST /reset-password/request : Emails a reset link; never reveals whether the email exists.
//   - POST /reset-password         : Consumes a reset token.
//   - GET  /me                     : Returns the caller's own account.
//   - POST /change-password        : Replaces the caller's password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/token", handler.login)
	router.Post("/register", handler.register)
	router.Get("/permissions", handler.permissions)
	router.Post("/reset-password/request", handler.requestPasswordReset)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
		r.Post("/change-password", handler.changePassword)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// resetRequestMessage is returned whether or not the email is registered.
const resetRequestMessage = "If the email is registered, a password reset link has been sent"

/*
POST /api/v1/auth/token

Description: accepts either a JSON body {email, password} or an OAuth2
password-grant form (username, password).

Response:
  - 200: LoginSession
  - 401: Unauthenticated
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := request.ParseForm(); err != nil {
			respond.Error(writer, request, validate.ErrInvalidJSON)
			return
		}
		input.Email = request.PostForm.Get("username")
		input.Password = request.PostForm.Get("password")
	} else if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(account.FieldEmail, input.Email).Required(account.FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, session)
}

/*
POST /api/v1/auth/register

Response:
  - 201: Account
  - 422: validation failure or duplicate email
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Register(request.Context(), account.CreateInput{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Password:        input.Password,
		PasswordConfirm: input.PasswordConfirm,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
GET /api/v1/auth/me
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.accountService.GetSelf(request.Context(), requestutil.Principal(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GET /api/v1/auth/permissions
*/
func (handler *Handler) permissions(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.accountService.Permissions(requestutil.Principal(request)))
}

/*
POST /api/v1/auth/reset-password/request

Response:
  - 200: the same generic message for known and unknown emails
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input resetRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, resetRequestMessage)
}

/*
POST /api/v1/auth/reset-password

Response:
  - 200: message
  - 422: weak password, or an invalid, expired, consumed or superseded token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.ResetPassword(request.Context(), input.Token, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password updated successfully")
}

/*
POST /api/v1/auth/change-password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.accountService.ChangePassword(request.Context(), requestutil.Principal(request), input.CurrentPassword, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password updated successfully")
}
