package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS_AllowAll(t *testing.T) {
	handler := CORS(CORSAllowAll)(okHandler)

	req := httptest.NewRequest("GET", "/_matrix/client/versions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin *, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(CORSAllowAll)(okHandler)

	req := httptest.NewRequest("OPTIONS", "/_matrix/client/v3/rooms/x/send/m.room.message/1", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("unexpected Access-Control-Allow-Methods %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "X-Requested-With, Content-Type, Authorization" {
		t.Errorf("unexpected Access-Control-Allow-Headers %q", got)
	}
}

func TestCORS_SpecificOrigin(t *testing.T) {
	handler := CORS(&CORSConfig{
		AllowOrigins: []string{"https://allowed.example.com"},
	})(okHandler)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://allowed.example.com", "https://allowed.example.com"},
		{"https://other.example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.want, got)
			}
			if tt.want != "" && w.Header().Get("Vary") != "Origin" {
				t.Error("expected Vary: Origin")
			}
		})
	}
}

func TestCORS_WildcardWithCredentials(t *testing.T) {
	handler := CORS(&CORSConfig{AllowCredentials: true})(okHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected origin to be echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected Access-Control-Allow-Credentials true, got %q", got)
	}
}

func TestCORS_MaxAgeAndExposedHeaders(t *testing.T) {
	handler := CORS(&CORSConfig{
		MaxAge:        3600,
		ExposeHeaders: []string{"Content-Disposition"},
	})(okHandler)

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Errorf("expected Access-Control-Max-Age 3600, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Content-Disposition" {
		t.Errorf("expected Access-Control-Expose-Headers, got %q", got)
	}
}
