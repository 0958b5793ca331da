package testutil

import (
	"net/http"

	id "signet/pkg/domain"
	"signet/pkg/requestcontext"
)

// WithUserID adds an authenticated user ID to the request context, simulating
// what the auth middleware does. Invalid UUIDs are silently ignored.
func WithUserID(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithCaller adds both the user ID and email of the authenticated caller.
// Invalid IDs are silently ignored.
func WithCaller(req *http.Request, userID, email string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if email != "" {
		ctx = requestcontext.WithUserEmail(ctx, email)
	}
	return req.WithContext(ctx)
}
