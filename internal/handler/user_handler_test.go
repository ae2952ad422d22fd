package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/identity"
	"github.com/hitoshi/microblog/internal/media"
	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
)

// --- モック ---

type mockUserService struct {
	registerFn           func(ctx context.Context, in identity.RegisterInput) (*model.User, error)
	updateProfileFn      func(ctx context.Context, userID string, in identity.UpdateInput) (*model.User, error)
	setProfileImageKeyFn func(ctx context.Context, userID, key string) (*model.User, error)
	getUserFn            func(ctx context.Context, id string) (*model.User, error)
	listUsersFn          func(ctx context.Context, nickname string) ([]*model.User, error)
}

func (m *mockUserService) Register(ctx context.Context, in identity.RegisterInput) (*model.User, error) {
	return m.registerFn(ctx, in)
}
func (m *mockUserService) UpdateProfile(ctx context.Context, userID string, in identity.UpdateInput) (*model.User, error) {
	return m.updateProfileFn(ctx, userID, in)
}
func (m *mockUserService) SetProfileImageKey(ctx context.Context, userID, key string) (*model.User, error) {
	if m.setProfileImageKeyFn != nil {
		return m.setProfileImageKeyFn(ctx, userID, key)
	}
	return &model.User{ID: userID, ProfileImageKey: key}, nil
}
func (m *mockUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return m.getUserFn(ctx, id)
}
func (m *mockUserService) ListUsers(ctx context.Context, nickname string) ([]*model.User, error) {
	return m.listUsersFn(ctx, nickname)
}

type mockMediaStore struct {
	presignFn func(ctx context.Context, prefix, contentType string) (*media.Upload, error)
}

func (m *mockMediaStore) PresignUpload(ctx context.Context, prefix, contentType string) (*media.Upload, error) {
	return m.presignFn(ctx, prefix, contentType)
}

func sampleUser() *model.User {
	return &model.User{
		ID:          "user-1",
		Email:       "alice@example.com",
		Nickname:    "alice",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Biography:   "hello",
		CreatedAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func authedReq(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

// --- テスト ---

// TestUserHandler_Register はユーザー登録の成功レスポンスを検証する。
func TestUserHandler_Register(t *testing.T) {
	var gotInput identity.RegisterInput
	service := &mockUserService{
		registerFn: func(ctx context.Context, in identity.RegisterInput) (*model.User, error) {
			gotInput = in
			return sampleUser(), nil
		},
	}
	h := NewUserHandler(service, nil)

	body := `{"email":"alice@example.com","password":"secret","nickname":"alice","date_of_birth":"1990-01-01","biography":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if gotInput.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", gotInput.Email, "alice@example.com")
	}
	if !gotInput.DateOfBirth.Equal(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateOfBirth = %v, want 1990-01-01", gotInput.DateOfBirth)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["id"] != "user-1" {
		t.Errorf("id = %v, want %q", resp["id"], "user-1")
	}
	if resp["date_of_birth"] != "1990-01-01" {
		t.Errorf("date_of_birth = %v, want %q", resp["date_of_birth"], "1990-01-01")
	}
	if _, ok := resp["password_hash"]; ok {
		t.Error("response must not contain password_hash")
	}
}

// TestUserHandler_Register_InvalidDateFormat は不正な生年月日フォーマットが400になることを検証する。
func TestUserHandler_Register_InvalidDateFormat(t *testing.T) {
	service := &mockUserService{
		registerFn: func(ctx context.Context, in identity.RegisterInput) (*model.User, error) {
			t.Error("Register should not be called")
			return nil, nil
		},
	}
	h := NewUserHandler(service, nil)

	body := `{"email":"a@example.com","password":"secret","nickname":"a","date_of_birth":"01/01/1990"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestUserHandler_Register_EmailTaken はメールアドレス重複が409とフィールド情報を返すことを検証する。
func TestUserHandler_Register_EmailTaken(t *testing.T) {
	service := &mockUserService{
		registerFn: func(ctx context.Context, in identity.RegisterInput) (*model.User, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := NewUserHandler(service, nil)

	body := `{"email":"taken@example.com","password":"secret","nickname":"a","date_of_birth":"1990-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	if resp.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeEmailTaken)
	}
	if resp.Field != "email" {
		t.Errorf("field = %q, want %q", resp.Field, "email")
	}
}

// TestUserHandler_Me は認証済みユーザー自身のプロフィール取得を検証する。
func TestUserHandler_Me(t *testing.T) {
	service := &mockUserService{
		getUserFn: func(ctx context.Context, id string) (*model.User, error) {
			if id != "user-1" {
				t.Errorf("id = %q, want %q", id, "user-1")
			}
			return sampleUser(), nil
		},
	}
	h := NewUserHandler(service, nil)

	rec := httptest.NewRecorder()
	h.Me(rec, authedReq(http.MethodGet, "/api/users/me", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestUserHandler_Me_Unauthenticated は未認証リクエストが401になることを検証する。
func TestUserHandler_Me_Unauthenticated(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, nil)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestUserHandler_UpdateMe は部分更新の入力がサービスに渡ることを検証する。
func TestUserHandler_UpdateMe(t *testing.T) {
	var gotInput identity.UpdateInput
	service := &mockUserService{
		updateProfileFn: func(ctx context.Context, userID string, in identity.UpdateInput) (*model.User, error) {
			gotInput = in
			return sampleUser(), nil
		},
	}
	h := NewUserHandler(service, nil)

	rec := httptest.NewRecorder()
	h.UpdateMe(rec, authedReq(http.MethodPut, "/api/users/me", `{"nickname":"alice2"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotInput.Nickname == nil || *gotInput.Nickname != "alice2" {
		t.Error("expected Nickname to be set")
	}
	if gotInput.Email != nil {
		t.Error("expected Email to be nil for partial update")
	}
}

// TestUserHandler_CreateProfileImageUploadURL_MediaDisabled はストレージ未設定時に503を返すことを検証する。
func TestUserHandler_CreateProfileImageUploadURL_MediaDisabled(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, nil)

	rec := httptest.NewRecorder()
	h.CreateProfileImageUploadURL(rec, authedReq(http.MethodPost, "/api/users/me/image", `{"content_type":"image/png"}`))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestUserHandler_CreateProfileImageUploadURL はアップロードURL発行とキー保存を検証する。
func TestUserHandler_CreateProfileImageUploadURL(t *testing.T) {
	var savedKey string
	service := &mockUserService{
		setProfileImageKeyFn: func(ctx context.Context, userID, key string) (*model.User, error) {
			savedKey = key
			return sampleUser(), nil
		},
	}
	store := &mockMediaStore{
		presignFn: func(ctx context.Context, prefix, contentType string) (*media.Upload, error) {
			if prefix != "profiles" {
				t.Errorf("prefix = %q, want %q", prefix, "profiles")
			}
			return &media.Upload{
				UploadURL: "https://s3.example.com/signed",
				Key:       "profiles/key-1",
				ExpiresIn: 300,
			}, nil
		},
	}
	h := NewUserHandler(service, store)

	rec := httptest.NewRecorder()
	h.CreateProfileImageUploadURL(rec, authedReq(http.MethodPost, "/api/users/me/image", `{"content_type":"image/png"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if savedKey != "profiles/key-1" {
		t.Errorf("saved key = %q, want %q", savedKey, "profiles/key-1")
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.UploadURL != "https://s3.example.com/signed" {
		t.Errorf("UploadURL = %q", resp.UploadURL)
	}
}

// TestUserHandler_GetUser はユーザーIDによる取得を検証する。
func TestUserHandler_GetUser(t *testing.T) {
	service := &mockUserService{
		getUserFn: func(ctx context.Context, id string) (*model.User, error) {
			if id == "user-1" {
				return sampleUser(), nil
			}
			return nil, model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(service, nil)

	r := chi.NewRouter()
	r.Get("/api/users/{id}", h.GetUser)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, authedReq(http.MethodGet, "/api/users/user-1", ""))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, authedReq(http.MethodGet, "/api/users/missing", ""))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status for missing user = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// TestUserHandler_ListUsers はニックネーム絞り込みクエリの受け渡しを検証する。
func TestUserHandler_ListUsers(t *testing.T) {
	var gotNickname string
	service := &mockUserService{
		listUsersFn: func(ctx context.Context, nickname string) ([]*model.User, error) {
			gotNickname = nickname
			return []*model.User{sampleUser()}, nil
		},
	}
	h := NewUserHandler(service, nil)

	rec := httptest.NewRecorder()
	h.ListUsers(rec, authedReq(http.MethodGet, "/api/users?nickname=alice", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotNickname != "alice" {
		t.Errorf("nickname = %q, want %q", gotNickname, "alice")
	}

	var resp []userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 user, got %d", len(resp))
	}
}
