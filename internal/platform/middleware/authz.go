// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/warden/internal/platform/constants"
	"github.com/taibuivan/warden/internal/platform/ctxutil"
	"github.com/taibuivan/warden/internal/platform/respond"
	"github.com/taibuivan/warden/internal/platform/sec"
	"github.com/taibuivan/warden/internal/users/session"
)

// PrincipalResolver turns a raw bearer token into an identity, or nil.
type PrincipalResolver interface {
	Resolve(context context.Context, rawToken string) *session.Principal
}

// Authenticate resolves the bearer token of every request into a principal.
//
// # Flow
//  1. Read 'Authorization: Bearer <token>'.
//  2. Resolve it through [PrincipalResolver].
//  3. Inject the [*session.Principal] into the request context.
//
// A missing, malformed or rejected token never fails the request here; the
// request proceeds as anonymous and protected routes refuse it later.
func Authenticate(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			rawToken := session.BearerToken(request.Header.Get(constants.HeaderAuthorization))
			if rawToken == "" {
				next.ServeHTTP(writer, request)
				return
			}

			principal := resolver.Resolve(request.Context(), rawToken)
			if principal == nil {
				next.ServeHTTP(writer, request)
				return
			}

			// Downstream log lines carry the caller identity
			logger := ctxutil.GetLogger(request.Context()).With(slog.String("user_id", principal.AccountID))

			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			ctx = ctxutil.WithLogger(ctx, logger)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks anonymous requests with 401.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return RequirePermission()(next)
}

// RequirePermission blocks requests whose principal lacks any of permissions.
//
// It implies [RequireAuth]: anonymous callers get 401, authenticated callers
// missing a permission get 403.
func RequirePermission(permissions ...sec.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if _, err := session.Require(ctxutil.GetPrincipal(request.Context()), permissions...); err != nil {
				respond.Error(writer, request, err)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
