package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard-service/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func protectedRouter(jwtService *services.JWTService) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequireSession(jwtService))
	r.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(userID.Hex()))
	}).Methods(http.MethodGet)
	return r
}

func TestRequireSessionAcceptsValidCookie(t *testing.T) {
	jwtService := services.NewJWTService("test-secret", time.Hour)
	userID := primitive.NewObjectID()

	token, err := jwtService.GenerateSessionToken(userID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()

	protectedRouter(jwtService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.Hex(), rec.Body.String())
}

func TestRequireSessionAcceptsBearerHeader(t *testing.T) {
	jwtService := services.NewJWTService("test-secret", time.Hour)
	userID := primitive.NewObjectID()

	token, err := jwtService.GenerateSessionToken(userID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedRouter(jwtService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.Hex(), rec.Body.String())
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()

	protectedRouter(jwtService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message": "Unauthenticated"}`, rec.Body.String())
}

func TestRequireSessionRejectsGarbageToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()

	protectedRouter(jwtService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionRejectsExpiredToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret", -time.Minute)
	userID := primitive.NewObjectID()

	token, err := jwtService.GenerateSessionToken(userID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()

	protectedRouter(jwtService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionRejectsMalformedSubject(t *testing.T) {
	jwtService := services.NewJWTService("test-secret", time.Hour)

	token, err := jwtService.GenerateSessionToken("not-a-hex-object-id")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()

	protectedRouter(jwtService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
