// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/identity"
	"github.com/hitoshi/microblog/internal/media"
	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
)

// dateOfBirthLayout は生年月日の入出力フォーマット。
const dateOfBirthLayout = "2006-01-02"

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register は新規ユーザーを作成する。
	Register(ctx context.Context, in identity.RegisterInput) (*model.User, error)
	// UpdateProfile は自分自身のプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, userID string, in identity.UpdateInput) (*model.User, error)
	// SetProfileImageKey はプロフィール画像のオブジェクトキーを設定する。
	SetProfileImageKey(ctx context.Context, userID, key string) (*model.User, error)
	// GetUser は指定IDのユーザーを取得する。
	GetUser(ctx context.Context, id string) (*model.User, error)
	// ListUsers はユーザー一覧を返す。nicknameが空でない場合は完全一致で絞り込む。
	ListUsers(ctx context.Context, nickname string) ([]*model.User, error)
}

// MediaStoreInterface は画像アップロードURL発行のインターフェース。
// media.Storeの部分集合として定義する。nilの場合は画像機能が無効。
type MediaStoreInterface interface {
	PresignUpload(ctx context.Context, prefix, contentType string) (*media.Upload, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service    UserServiceInterface
	mediaStore MediaStoreInterface
}

// NewUserHandler はUserHandlerを生成する。
// mediaStoreがnilの場合、プロフィール画像関連の操作はMEDIA_DISABLEDを返す。
func NewUserHandler(service UserServiceInterface, mediaStore MediaStoreInterface) *UserHandler {
	return &UserHandler{
		service:    service,
		mediaStore: mediaStore,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Nickname    string `json:"nickname"`
	DateOfBirth string `json:"date_of_birth"`
	Biography   string `json:"biography"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// nilフィールドは変更しない。
type updateProfileRequest struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	Nickname    *string `json:"nickname"`
	DateOfBirth *string `json:"date_of_birth"`
	Biography   *string `json:"biography"`
}

// profileImageRequest はプロフィール画像アップロードURL発行リクエストのボディ。
type profileImageRequest struct {
	ContentType string `json:"content_type"`
}

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュは含まない。
type userResponse struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Nickname        string `json:"nickname"`
	DateOfBirth     string `json:"date_of_birth"`
	Biography       string `json:"biography"`
	ProfileImageKey string `json:"profile_image_key,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// uploadResponse は署名付きアップロードURL発行のAPIレスポンス。
type uploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// Register はユーザー登録を処理する。
// POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	dob, apiErr := parseDateOfBirth(req.DateOfBirth)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	user, err := h.service.Register(r.Context(), identity.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Nickname:    req.Nickname,
		DateOfBirth: dob,
		Biography:   req.Biography,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Me は自分自身のプロフィールを取得する。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// UpdateMe は自分自身のプロフィールを部分更新する。
// PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	in := identity.UpdateInput{
		Email:     req.Email,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Biography: req.Biography,
	}
	if req.DateOfBirth != nil {
		dob, apiErr := parseDateOfBirth(*req.DateOfBirth)
		if apiErr != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
			return
		}
		in.DateOfBirth = &dob
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// CreateProfileImageUploadURL はプロフィール画像の署名付きアップロードURLを発行し、
// 発行したオブジェクトキーをプロフィールに保存する。
// POST /api/users/me/image
func (h *UserHandler) CreateProfileImageUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if h.mediaStore == nil {
		handleServiceError(w, model.NewMediaDisabledError())
		return
	}

	var req profileImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.ContentType == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("content_type", "Content-Typeは必須です"))
		return
	}

	upload, err := h.mediaStore.PresignUpload(r.Context(), "profiles", req.ContentType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if _, err := h.service.SetProfileImageKey(r.Context(), userID, upload.Key); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(uploadResponse{
		UploadURL: upload.UploadURL,
		Key:       upload.Key,
		ExpiresIn: upload.ExpiresIn,
	})
}

// GetUser は指定IDのユーザーを取得する。
// GET /api/users/:id
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// ListUsers はユーザー一覧を取得する。
// GET /api/users?nickname=alice
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	nickname := r.URL.Query().Get("nickname")

	users, err := h.service.ListUsers(r.Context(), nickname)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- ヘルパー関数 ---

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:              user.ID,
		Email:           user.Email,
		Nickname:        user.Nickname,
		DateOfBirth:     user.DateOfBirth.Format(dateOfBirthLayout),
		Biography:       user.Biography,
		ProfileImageKey: user.ProfileImageKey,
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       user.UpdatedAt.Format(time.RFC3339),
	}
}

// parseDateOfBirth は"YYYY-MM-DD"形式の生年月日を解析する。
func parseDateOfBirth(value string) (time.Time, *model.APIError) {
	if value == "" {
		return time.Time{}, model.NewValidationError("date_of_birth", "生年月日は必須です")
	}
	dob, err := time.Parse(dateOfBirthLayout, value)
	if err != nil {
		return time.Time{}, model.NewValidationError("date_of_birth", "生年月日はYYYY-MM-DD形式で指定してください")
	}
	return dob, nil
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Field    string `json:"field,omitempty"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Field:    apiErr.Field,
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗の統一レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeAgeRestriction, model.ErrCodeContentTooLong, model.ErrCodeCommentTooLong:
		return http.StatusUnprocessableEntity
	case model.ErrCodeEmailTaken, model.ErrCodeNicknameTaken, model.ErrCodeDuplicateFollow:
		return http.StatusConflict
	case model.ErrCodeUserNotFound, model.ErrCodePostNotFound:
		return http.StatusNotFound
	case model.ErrCodePermissionDenied:
		return http.StatusForbidden
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeMediaDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
