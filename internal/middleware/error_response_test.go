package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/microblog/internal/model"
)

// TestWriteErrorResponse は統一エラーフォーマットのレスポンスを検証する。
func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteErrorResponse(rec, http.StatusUnprocessableEntity, model.NewContentTooLongError(280))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Code != model.ErrCodeContentTooLong {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeContentTooLong)
	}
	if body.Category != "validation" {
		t.Errorf("category = %q, want %q", body.Category, "validation")
	}
	if body.Field != "content" {
		t.Errorf("field = %q, want %q", body.Field, "content")
	}
}

// TestWriteErrorResponse_OmitsEmptyField はフィールド情報の無いエラーでfieldキーが省略されることを検証する。
func TestWriteErrorResponse_OmitsEmptyField(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteErrorResponse(rec, http.StatusNotFound, model.NewUserNotFoundError())

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if _, ok := raw["field"]; ok {
		t.Error("expected field key to be omitted when empty")
	}
}

// TestWriteInternalServerError は内部エラーの統一レスポンスを検証する。
func TestWriteInternalServerError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteInternalServerError(rec)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "INTERNAL_ERROR")
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want %q", body.Category, "system")
	}
}
