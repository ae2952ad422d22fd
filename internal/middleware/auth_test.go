package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/microblog/internal/model"
)

// --- モック ---

type mockTokenVerifier struct {
	verifyFn func(tokenString string) (string, error)
}

func (m *mockTokenVerifier) VerifyToken(tokenString string) (string, error) {
	return m.verifyFn(tokenString)
}

// --- テスト ---

// TestAuthMiddleware_ValidToken は有効なトークンでユーザーIDがコンテキストに注入されることを検証する。
func TestAuthMiddleware_ValidToken(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (string, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return "user-1", nil
		},
	}

	var gotUserID string
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext returned error: %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-1")
	}
}

// TestAuthMiddleware_MissingHeader はAuthorizationヘッダーが無い場合に401を返すことを検証する。
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (string, error) {
			t.Error("VerifyToken should not be called")
			return "", nil
		},
	}

	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	// 401も統一エラーフォーマットで返る
	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

// TestAuthMiddleware_InvalidScheme はBearer以外のスキームが拒否されることを検証する。
func TestAuthMiddleware_InvalidScheme(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (string, error) {
			t.Error("VerifyToken should not be called")
			return "", nil
		},
	}

	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestAuthMiddleware_InvalidToken は検証に失敗したトークンが401になることを検証する。
func TestAuthMiddleware_InvalidToken(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(tokenString string) (string, error) {
			return "", errors.New("token expired")
		},
	}

	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestUserIDFromContext_Missing はユーザーIDが無いコンテキストでエラーになることを検証する。
func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Fatal("expected error for context without user ID, got nil")
	}
}

// TestContextWithUserID はテスト用のコンテキスト注入ヘルパーを検証する。
func TestContextWithUserID(t *testing.T) {
	ctx := ContextWithUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "user-9")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext returned error: %v", err)
	}
	if userID != "user-9" {
		t.Errorf("userID = %q, want %q", userID, "user-9")
	}
}
