// file: router/router_test.go

package router_test

import (
	"context"
	"go-bank-ledger/handler"
	"go-bank-ledger/logger"
	"go-bank-ledger/model"
	"go-bank-ledger/router"
	"go-bank-ledger/service"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	logger.Log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// stubIdentity accepts the tokens "user" and "admin"; neither has a client profile.
type stubIdentity struct{}

func (stubIdentity) ParseToken(token string) (*model.AppClaims, error) {
	switch token {
	case "user":
		return &model.AppClaims{UserID: uuid.NewString(), Role: model.RoleUser}, nil
	case "admin":
		return &model.AppClaims{UserID: uuid.NewString(), Role: model.RoleAdmin}, nil
	}
	return nil, service.ErrInvalidToken
}

func (stubIdentity) ResolveClientID(context.Context, uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, service.ErrClientNotFound
}

// newTestRouter builds the router with nil handlers. Only routes that are
// answered before reaching a handler can be exercised.
func newTestRouter() http.Handler {
	return router.NewRouter(nil, nil, nil, nil, handler.AuthMiddleware(stubIdentity{}))
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	expectedBody := `{"status":"API is healthy and running"}`
	assert.JSONEq(t, expectedBody, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestSwaggerDocument(t *testing.T) {
	req := httptest.NewRequest("GET", "/swagger/doc.json", nil)
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/api/transactions/transfer")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	routes := []struct{ method, path string }{
		{"POST", "/api/accounts"},
		{"GET", "/api/accounts"},
		{"GET", "/api/accounts/" + uuid.NewString()},
		{"GET", "/api/accounts/" + uuid.NewString() + "/transactions"},
		{"POST", "/api/transactions/deposit"},
		{"POST", "/api/transactions/withdraw"},
		{"POST", "/api/transactions/transfer"},
		{"POST", "/api/transactions/pix"},
		{"POST", "/api/pix-keys"},
		{"GET", "/api/admin/accounts"},
	}
	r := newTestRouter()

	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, strings.NewReader(`{}`))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, route.method+" "+route.path)
	}
}

func TestAdminRoutes(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/admin/accounts", nil)
	req.Header.Set("Authorization", "Bearer user")
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUnknownMethodIsRejected(t *testing.T) {
	req := httptest.NewRequest("PATCH", "/api/transactions/deposit", nil)
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
