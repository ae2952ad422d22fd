package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
)

// FollowServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type FollowServiceInterface interface {
	// Follow はactorからfolloweeへのフォローエッジを作成する。
	Follow(ctx context.Context, actorID, followerID, followeeID string) (*model.FollowEdge, error)
	// Unfollow はactorの発信エッジを削除する。エッジが無い場合も成功する。
	Unfollow(ctx context.Context, actorID, followerID, followeeID string) error
	// ListFollowing はユーザーの発信エッジ一覧を返す。
	ListFollowing(ctx context.Context, userID string) ([]*model.FollowEdge, error)
	// ListFollowerIDs はユーザーをフォローしているユーザーIDの集合を返す。
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// FollowHandler はフォローグラフのHTTPハンドラー。
type FollowHandler struct {
	service FollowServiceInterface
}

// NewFollowHandler はFollowHandlerを生成する。
func NewFollowHandler(service FollowServiceInterface) *FollowHandler {
	return &FollowHandler{
		service: service,
	}
}

// followRequest はフォロー作成リクエストのボディ。
type followRequest struct {
	FolloweeID string `json:"followee_id"`
}

// followResponse はフォローエッジのAPIレスポンス。
type followResponse struct {
	ID         string `json:"id"`
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
	CreatedAt  string `json:"created_at"`
}

// followerIDsResponse はフォロワーID集合のAPIレスポンス。
type followerIDsResponse struct {
	FollowerIDs []string `json:"follower_ids"`
}

// Follow はフォローエッジの作成を処理する。
// パス上のユーザーがフォロワーとなる。認証ユーザーと異なる場合は403。
// POST /api/users/:id/followings
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	followerID := chi.URLParam(r, "id")

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.FolloweeID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("followee_id", "フォロイーIDは必須です"))
		return
	}

	edge, err := h.service.Follow(r.Context(), actorID, followerID, req.FolloweeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFollowResponse(edge))
}

// Unfollow はフォローエッジの削除を処理する。エッジが無い場合も204を返す。
// DELETE /api/users/:id/followings/:followeeID
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	followerID := chi.URLParam(r, "id")
	followeeID := chi.URLParam(r, "followeeID")

	if err := h.service.Unfollow(r.Context(), actorID, followerID, followeeID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFollowings はユーザーの発信エッジ一覧を取得する。
// GET /api/users/:id/followings
func (h *FollowHandler) ListFollowings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	edges, err := h.service.ListFollowing(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]followResponse, 0, len(edges))
	for _, edge := range edges {
		resp = append(resp, toFollowResponse(edge))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListFollowers はユーザーをフォローしているユーザーIDの集合を取得する。
// GET /api/users/:id/followers
func (h *FollowHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	ids, err := h.service.ListFollowerIDs(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(followerIDsResponse{FollowerIDs: ids})
}

// toFollowResponse はmodel.FollowEdgeからAPIレスポンスに変換する。
func toFollowResponse(edge *model.FollowEdge) followResponse {
	return followResponse{
		ID:         edge.ID,
		FollowerID: edge.FollowerID,
		FolloweeID: edge.FolloweeID,
		CreatedAt:  edge.CreatedAt.Format(time.RFC3339),
	}
}
