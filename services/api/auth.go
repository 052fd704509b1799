package api

import (
	"context"
	"net/http"
)

// staffIdentity is the trusted identity injected by the edge proxy for staff
// routes. Candidate routes authenticate by interview token instead.
type staffIdentity struct {
	UserID string
	OrgID  string
}

type staffCtxKey struct{}

func (a *API) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := staffIdentity{
			UserID: r.Header.Get("X-User-ID"),
			OrgID:  r.Header.Get("X-Org-ID"),
		}
		if id.UserID == "" || id.OrgID == "" {
			respondError(w, http.StatusUnauthorized, "missing identity headers")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), staffCtxKey{}, id)))
	})
}

func staffFrom(ctx context.Context) (staffIdentity, bool) {
	id, ok := ctx.Value(staffCtxKey{}).(staffIdentity)
	return id, ok
}
