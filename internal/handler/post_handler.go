package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/feed"
	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とする投稿サービスインターフェース。
type PostServiceInterface interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, ownerID, content, imageKey string) (*model.Post, error)
	// Update は投稿の本文を更新する。所有者のみ。
	Update(ctx context.Context, actorID, postID, content string) (*model.Post, error)
	// SetImageKey は投稿画像のオブジェクトキーを設定する。所有者のみ。
	SetImageKey(ctx context.Context, actorID, postID, key string) (*model.Post, error)
	// Delete は投稿を削除する。所有者のみ。
	Delete(ctx context.Context, actorID, postID string) error
}

// FeedServiceInterface は投稿ハンドラーが必要とするフィードサービスインターフェース。
type FeedServiceInterface interface {
	// ListFeed は閲覧者の可視集合内の投稿一覧を返す。
	ListFeed(ctx context.Context, viewerID string, q feed.Query) ([]model.PostWithMeta, error)
	// GetPost は投稿詳細をコメント一覧付きで返す。
	GetPost(ctx context.Context, viewerID, postID string) (*feed.PostDetail, error)
}

// EngagementServiceInterface は投稿ハンドラーが必要とするエンゲージメントサービスインターフェース。
type EngagementServiceInterface interface {
	// Like は対象へのいいねを冪等に付与する。
	Like(ctx context.Context, actorID string, target model.LikeTarget) (*model.LikeRecord, error)
	// Unlike は対象へのいいねを解除する。いいねが無い場合も成功する。
	Unlike(ctx context.Context, actorID string, target model.LikeTarget) error
	// Comment は投稿にコメントを作成する。
	Comment(ctx context.Context, actorID, postID, body string) (*model.Comment, error)
	// ListOwnComments はアクター自身が付けたコメント一覧を返す。
	ListOwnComments(ctx context.Context, actorID string) ([]model.Comment, error)
	// DeleteOwnComments は投稿に対する自分のコメントを一括削除し、件数を返す。
	DeleteOwnComments(ctx context.Context, actorID, postID string) (int, error)
}

// PostHandler は投稿・フィード・エンゲージメントのHTTPハンドラー。
type PostHandler struct {
	postService       PostServiceInterface
	feedService       FeedServiceInterface
	engagementService EngagementServiceInterface
	mediaStore        MediaStoreInterface
}

// NewPostHandler はPostHandlerを生成する。
// mediaStoreがnilの場合、投稿画像関連の操作はMEDIA_DISABLEDを返す。
func NewPostHandler(
	postService PostServiceInterface,
	feedService FeedServiceInterface,
	engagementService EngagementServiceInterface,
	mediaStore MediaStoreInterface,
) *PostHandler {
	return &PostHandler{
		postService:       postService,
		feedService:       feedService,
		engagementService: engagementService,
		mediaStore:        mediaStore,
	}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Content string `json:"content"`
}

// updatePostRequest は投稿更新リクエストのボディ。
type updatePostRequest struct {
	Content string `json:"content"`
}

// createCommentRequest はコメント作成リクエストのボディ。
type createCommentRequest struct {
	Body string `json:"body"`
}

// postImageRequest は投稿画像アップロードURL発行リクエストのボディ。
type postImageRequest struct {
	ContentType string `json:"content_type"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	ImageKey  string `json:"image_key,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// postMetaResponse はフィード表示用の集計値付き投稿のAPIレスポンス。
// 一覧ビューはコメントを含まない。
type postMetaResponse struct {
	postResponse
	AuthorNickname string `json:"author_nickname"`
	AuthorEmail    string `json:"author_email"`
	LikeCount      int    `json:"like_count"`
	LikedByViewer  bool   `json:"liked_by_viewer"`
}

// postDetailResponse は投稿詳細のAPIレスポンス。コメント一覧を含む。
type postDetailResponse struct {
	postMetaResponse
	Comments []commentResponse `json:"comments"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	PostID         string `json:"post_id"`
	Body           string `json:"body"`
	AuthorNickname string `json:"author_nickname,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// likeResponse はいいねのAPIレスポンス。
type likeResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	CreatedAt  string `json:"created_at"`
}

// deletedCommentsResponse はコメント一括削除のAPIレスポンス。
// 削除対象が0件でも成功として件数0を返す。
type deletedCommentsResponse struct {
	Deleted int `json:"deleted"`
}

// ListFeed はフィード一覧を取得する。
// hashtagは本文の部分一致フィルタ、liked=trueで自分がいいね済みの投稿に絞り込む。
// GET /api/posts?hashtag=go&liked=true&limit=20
func (h *PostHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	q := feed.Query{
		Hashtag:   r.URL.Query().Get("hashtag"),
		LikedOnly: r.URL.Query().Get("liked") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("limit", "limitは0以上の整数で指定してください"))
			return
		}
		q.Limit = limit
	}

	posts, err := h.feedService.ListFeed(r.Context(), viewerID, q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]postMetaResponse, 0, len(posts))
	for i := range posts {
		resp = append(resp, toPostMetaResponse(&posts[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetPost は投稿詳細をコメント一覧付きで取得する。
// GET /api/posts/:id
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	detail, err := h.feedService.GetPost(r.Context(), viewerID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	comments := make([]commentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, toCommentWithAuthorResponse(&detail.Comments[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(postDetailResponse{
		postMetaResponse: toPostMetaResponse(&detail.PostWithMeta),
		Comments:         comments,
	})
}

// CreatePost は投稿の作成を処理する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req.Content, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toPostResponse(post))
}

// UpdatePost は投稿本文の更新を処理する。所有者のみ。
// PUT /api/posts/:id
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	post, err := h.postService.Update(r.Context(), userID, postID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostResponse(post))
}

// DeletePost は投稿の削除を処理する。所有者のみ。
// DELETE /api/posts/:id
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreatePostImageUploadURL は投稿画像の署名付きアップロードURLを発行し、
// 発行したオブジェクトキーを投稿に保存する。所有者のみ。
// POST /api/posts/:id/image
func (h *PostHandler) CreatePostImageUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if h.mediaStore == nil {
		handleServiceError(w, model.NewMediaDisabledError())
		return
	}

	postID := chi.URLParam(r, "id")

	var req postImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.ContentType == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("content_type", "Content-Typeは必須です"))
		return
	}

	upload, err := h.mediaStore.PresignUpload(r.Context(), "posts", req.ContentType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if _, err := h.postService.SetImageKey(r.Context(), userID, postID, upload.Key); err != nil {
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

// LikePost は投稿へのいいね付与を処理する。既にいいね済みでも200を返す（冪等）。
// POST /api/posts/:id/like
func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	like, err := h.engagementService.Like(r.Context(), userID, model.LikeTarget{
		Type: model.LikeTargetPost,
		ID:   postID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(likeResponse{
		ID:         like.ID,
		UserID:     like.UserID,
		TargetType: string(like.TargetType),
		TargetID:   like.TargetID,
		CreatedAt:  like.CreatedAt.Format(time.RFC3339),
	})
}

// UnlikePost は投稿へのいいね解除を処理する。いいねが無い場合も204を返す（冪等）。
// DELETE /api/posts/:id/like
func (h *PostHandler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	err = h.engagementService.Unlike(r.Context(), userID, model.LikeTarget{
		Type: model.LikeTargetPost,
		ID:   postID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateComment は投稿へのコメント作成を処理する。
// POST /api/posts/:id/comments
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	comment, err := h.engagementService.Comment(r.Context(), userID, postID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(commentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		PostID:    comment.PostID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	})
}

// ListMyComments は自分が付けたコメント一覧を取得する。
// GET /api/comments
func (h *PostHandler) ListMyComments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	comments, err := h.engagementService.ListOwnComments(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]commentResponse, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		resp = append(resp, commentResponse{
			ID:        c.ID,
			UserID:    c.UserID,
			PostID:    c.PostID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// DeleteOwnComments は投稿に対する自分のコメントの一括削除を処理する。
// 他ユーザーのコメントには影響せず、削除件数を返す。
// DELETE /api/posts/:id/comments
func (h *PostHandler) DeleteOwnComments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	deleted, err := h.engagementService.DeleteOwnComments(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deletedCommentsResponse{Deleted: deleted})
}

// --- ヘルパー関数 ---

// toPostResponse はmodel.PostからAPIレスポンスに変換する。
func toPostResponse(post *model.Post) postResponse {
	return postResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		Content:   post.Content,
		ImageKey:  post.ImageKey,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}

// toPostMetaResponse はmodel.PostWithMetaからAPIレスポンスに変換する。
func toPostMetaResponse(post *model.PostWithMeta) postMetaResponse {
	return postMetaResponse{
		postResponse:   toPostResponse(&post.Post),
		AuthorNickname: post.AuthorNickname,
		AuthorEmail:    post.AuthorEmail,
		LikeCount:      post.LikeCount,
		LikedByViewer:  post.LikedByViewer,
	}
}

// toCommentWithAuthorResponse はmodel.CommentWithAuthorからAPIレスポンスに変換する。
func toCommentWithAuthorResponse(comment *model.CommentWithAuthor) commentResponse {
	return commentResponse{
		ID:             comment.ID,
		UserID:         comment.UserID,
		PostID:         comment.PostID,
		Body:           comment.Body,
		AuthorNickname: comment.AuthorNickname,
		CreatedAt:      comment.CreatedAt.Format(time.RFC3339),
	}
}
