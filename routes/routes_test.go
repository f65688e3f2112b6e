package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"tallyfest/config"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(&config.Config{
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", body["status"])
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter()

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/me"},
		{"GET", "/api/contests"},
		{"GET", "/api/contests/000000000000000000000000/posts"},
		{"POST", "/api/posts/000000000000000000000000/reactions"},
		{"POST", "/api/posts/000000000000000000000000/comments"},
		{"POST", "/api/admin/contests"},
		{"POST", "/api/admin/migrate-upvotes"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401 without token, got %d", w.Code)
			}
		})
	}
}

func TestUnknownAPIRouteReturnsJSON404(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest("GET", "/api/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON 404 body, got: %s", w.Body.String())
	}
	if body["error"] == nil {
		t.Errorf("Expected error field in 404 body, got %v", body)
	}
}
