package testutil

import (
	"net/http"

	id "vendora/pkg/domain"
	"vendora/pkg/requestcontext"
)

// WithActor adds an actor ID and role to the request context. This simulates
// what the auth middleware would do for an authenticated request. An invalid
// actor ID is silently ignored.
func WithActor(req *http.Request, actorID, role string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(actorID); err == nil {
		ctx = requestcontext.WithActorID(ctx, parsed)
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithLocale adds a language code to the request context, as the client
// metadata middleware would from the Accept-Language header.
func WithLocale(req *http.Request, locale string) *http.Request {
	return req.WithContext(requestcontext.WithLocale(req.Context(), locale))
}
