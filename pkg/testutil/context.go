package testutil

import (
	"net/http"
	"time"

	id "carematch/pkg/domain"
	"carematch/pkg/requestcontext"
)

// As puts the caller on the request the way the auth middleware does, and
// pins the request time so date checks are stable.
func As(req *http.Request, userID id.UserID, role id.Role, now time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), now)
	if !userID.IsNil() {
		ctx = requestcontext.WithUserID(ctx, userID)
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}
