package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestCORSMiddleware_Preflight はOPTIONSプリフライトに204が返ることを検証する。
func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := NewCORSMiddleware("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Errorf("Allow-Headers = %q, want %q", got, "Content-Type, Authorization")
	}
}

// TestSecurityHeadersMiddleware はセキュリティヘッダーが付与されることを検証する。
func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := NewSecurityHeadersMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", got, "DENY")
	}
}

// TestLoggingMiddleware_RecordsStatus は構造化ログにステータスコードが記録されることを検証する。
func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts/missing", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want %d", entry["status"], http.StatusNotFound)
	}
	if entry["method"] != http.MethodGet {
		t.Errorf("method = %v, want %q", entry["method"], http.MethodGet)
	}
	if entry["user_id"] != "user-1" {
		t.Errorf("user_id = %v, want %q", entry["user_id"], "user-1")
	}
}

// TestRecoveryMiddleware はpanicが500レスポンスに変換されることを検証する。
func TestRecoveryMiddleware(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

// TestMetricsMiddleware はステータスコードとレイテンシが記録されることを検証する。
func TestMetricsMiddleware(t *testing.T) {
	recorder := &mockRequestRecorder{}
	handler := NewMetricsMiddleware(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", nil))

	if recorder.statusCode != http.StatusCreated {
		t.Errorf("recorded status = %d, want %d", recorder.statusCode, http.StatusCreated)
	}
	if !recorder.latencyRecorded {
		t.Error("expected latency to be recorded")
	}
}

type mockRequestRecorder struct {
	statusCode      int
	latencyRecorded bool
}

func (m *mockRequestRecorder) RecordHTTPStatus(statusCode int) { m.statusCode = statusCode }
func (m *mockRequestRecorder) RecordRequestLatency(d time.Duration) {
	m.latencyRecorded = true
}

// TestStatusRecorder_DefaultOK はWriteHeader未呼び出しで200が記録されることを検証する。
func TestStatusRecorder_DefaultOK(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}

	if _, err := sr.Write([]byte("body")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if sr.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want %d", sr.statusCode, http.StatusOK)
	}
}

// TestStatusRecorder_FirstWriteHeaderWins は最初のWriteHeaderのみ記録されることを検証する。
func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}

	sr.WriteHeader(http.StatusConflict)
	sr.WriteHeader(http.StatusOK)

	if sr.statusCode != http.StatusConflict {
		t.Errorf("statusCode = %d, want %d", sr.statusCode, http.StatusConflict)
	}
}
