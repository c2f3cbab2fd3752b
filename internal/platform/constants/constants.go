// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: IP tracking TTLs for the optional edge limiter.
  - Security: token issuer, password policy, reset flow timing.
  - Mail Outbox: Redis keys and worker timing.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "warden-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "warden"

	// TokenTypeBearer is the token_type returned by the login endpoint.
	TokenTypeBearer = "bearer"

	// PasswordMinLength is the shortest password accepted anywhere.
	PasswordMinLength = 8

	// PasswordMaxBytes is bcrypt's input limit, counted in UTF-8 bytes.
	PasswordMaxBytes = 72

	// NameMaxLength bounds first and last names.
	NameMaxLength = 100

	// EmailMaxLength bounds stored email addresses.
	EmailMaxLength = 254

	// ResetRequestFloor is the minimum duration of a reset request, so known
	// and unknown emails take the same time to answer.
	ResetRequestFloor = 250 * time.Millisecond

	// ResetPasswordPath is appended to FRONTEND_URL to build reset links.
	ResetPasswordPath = "/auth/reset-password"
)

// # Mail Outbox

const (
	// RedisKeyMailOutbox is the Redis list that queues outbound emails.
	RedisKeyMailOutbox = "mail:outbox"

	// MailDequeueTimeout is how long the dispatcher blocks on an empty outbox.
	MailDequeueTimeout = 5 * time.Second

	// MailSendTimeout bounds a single SMTP delivery.
	MailSendTimeout = 15 * time.Second
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # HTTP Headers

const (
	HeaderXRequestID      = "X-Request-ID"
	HeaderXRealIP         = "X-Real-IP"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderOrigin          = "Origin"
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
)

// # Database Schemas

const (
	SchemaUsers = "users"
)
