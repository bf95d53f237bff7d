package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskboard-service/logging"
	"taskboard-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionCookieName is the cookie the client holds between requests.
const SessionCookieName = "token"

type contextKey string

const userIDKey contextKey = "userID"

// RequireSession validates the session token before any business logic
// runs. The token is read from the session cookie, with an Authorization
// bearer header accepted as a fallback. Validation is pure signature and
// expiry checking; the document store is never touched here. On success the
// caller's user ID is placed in the request context.
func RequireSession(jwtService *services.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				logging.Logger.Warnf("Event ID: AUTH_MISSING_TOKEN, Description: No session token on request to %s %s", r.Method, r.URL.Path)
				writeUnauthenticated(w)
				return
			}

			claims, err := jwtService.ValidateSessionToken(tokenStr)
			if err != nil {
				logging.Logger.Warnf("Event ID: AUTH_INVALID_TOKEN, Description: Rejected session token on request to %s %s: %v", r.Method, r.URL.Path, err)
				writeUnauthenticated(w)
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				logging.Logger.Warnf("Event ID: AUTH_MALFORMED_SUBJECT, Description: Session token carries malformed user ID on request to %s %s", r.Method, r.URL.Path)
				writeUnauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// ContextWithUserID attaches the authenticated caller's ID to the context.
func ContextWithUserID(ctx context.Context, userID primitive.ObjectID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated caller's ID placed there by
// RequireSession.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(userIDKey).(primitive.ObjectID)
	return id, ok
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message": "Unauthenticated"}`))
}
