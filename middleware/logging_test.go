package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/broady/mxapi"
)

type pingRequest struct{}

type pingResponse struct {
	Pong bool `json:"pong"`
}

var ping = mxapi.MustDefine[pingRequest, pingResponse](mxapi.Metadata{
	Name:   "ping",
	Method: http.MethodGet,
	History: mxapi.History{
		mxapi.Since("1.0", "/_test/r0/ping"),
		mxapi.Since("1.1", "/_test/v3/ping"),
	},
})

func testContext() mxapi.Context {
	return mxapi.NewContext(context.Background(), ping, mxapi.MustParseVersion("1.1"))
}

func TestLoggingInterceptor_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	interceptor := LoggingInterceptor(logger)

	handler := func(ctx context.Context, req any) (any, error) {
		return "response", nil
	}

	result, err := interceptor(testContext(), "request", handler)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if result != "response" {
		t.Errorf("expected response, got %v", result)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request started") {
		t.Error("expected 'request started' in log output")
	}
	if !strings.Contains(logOutput, "request completed") {
		t.Error("expected 'request completed' in log output")
	}
	if !strings.Contains(logOutput, `"endpoint":"ping"`) {
		t.Error("expected endpoint ID in log output")
	}
	if !strings.Contains(logOutput, `"version":"1.1"`) {
		t.Error("expected version in log output")
	}
}

func TestLoggingInterceptor_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	interceptor := LoggingInterceptor(logger)

	testErr := errors.New("test error")
	handler := func(ctx context.Context, req any) (any, error) {
		return nil, testErr
	}

	result, err := interceptor(testContext(), "request", handler)

	if err != testErr {
		t.Errorf("expected test error, got %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request failed") {
		t.Error("expected 'request failed' in log output")
	}
	if !strings.Contains(logOutput, "test error") {
		t.Error("expected error message in log output")
	}
}

func TestLoggingInterceptor_NilLogger(t *testing.T) {
	// Should not panic with nil logger, should use default
	interceptor := LoggingInterceptor(nil)

	handler := func(ctx context.Context, req any) (any, error) {
		return "response", nil
	}

	result, err := interceptor(testContext(), "request", handler)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if result != "response" {
		t.Errorf("expected response, got %v", result)
	}
}

func TestLoggingInterceptor_InApp(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := mxapi.NewApp().WithUnaryInterceptor(LoggingInterceptor(logger))
	app.Register(mxapi.NewHandler(ping, func(ctx context.Context, req *pingRequest) (*pingResponse, error) {
		return &pingResponse{Pong: true}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/_test/r0/ping", nil)
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), `"version":"1.0"`) {
		t.Errorf("expected the matched history version in log output, got %s", buf.String())
	}
}
