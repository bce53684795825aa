package handler

import (
	"net/http"

	"github.com/go-credential-api/internal/transport/http/middleware"
)

// GetSession echoes the claims of the presented session token.
func GetSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	env := SessionEnvelope{UserID: claims.UserID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		env.ExpiresAt = claims.ExpiresAt.Unix()
	}
	writeJSON(w, http.StatusOK, env)
}
