package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/microblog/internal/model"
)

// --- モック ---

type mockPostRepo struct {
	findVisibleByIDFn func(ctx context.Context, viewerID, postID string) (*model.PostWithMeta, error)
	listVisibleFn     func(ctx context.Context, viewerID, hashtag string, likedOnly bool, limit int) ([]model.PostWithMeta, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error { return nil }
func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) FindVisibleByID(ctx context.Context, viewerID, postID string) (*model.PostWithMeta, error) {
	if m.findVisibleByIDFn != nil {
		return m.findVisibleByIDFn(ctx, viewerID, postID)
	}
	return nil, nil
}
func (m *mockPostRepo) ListVisible(ctx context.Context, viewerID, hashtag string, likedOnly bool, limit int) ([]model.PostWithMeta, error) {
	if m.listVisibleFn != nil {
		return m.listVisibleFn(ctx, viewerID, hashtag, likedOnly, limit)
	}
	return nil, nil
}
func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error { return nil }
func (m *mockPostRepo) Delete(ctx context.Context, id string) error        { return nil }

type mockCommentRepo struct {
	listByPostFn func(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error { return nil }
func (m *mockCommentRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	if m.listByPostFn != nil {
		return m.listByPostFn(ctx, postID)
	}
	return nil, nil
}
func (m *mockCommentRepo) ListByUser(ctx context.Context, userID string) ([]model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) DeleteByUserAndPost(ctx context.Context, userID, postID string) (int, error) {
	return 0, nil
}

// --- テスト ---

// TestService_ListFeed はフィード取得条件がリポジトリに渡ることを検証する。
func TestService_ListFeed(t *testing.T) {
	var gotViewerID, gotHashtag string
	var gotLikedOnly bool
	var gotLimit int
	postRepo := &mockPostRepo{
		listVisibleFn: func(ctx context.Context, viewerID, hashtag string, likedOnly bool, limit int) ([]model.PostWithMeta, error) {
			gotViewerID, gotHashtag, gotLikedOnly, gotLimit = viewerID, hashtag, likedOnly, limit
			return []model.PostWithMeta{
				{Post: model.Post{ID: "post-1", Content: "hello #golang"}},
			}, nil
		},
	}
	svc := NewService(postRepo, &mockCommentRepo{})

	posts, err := svc.ListFeed(context.Background(), "viewer-1", Query{
		Hashtag:   "#golang",
		LikedOnly: true,
		Limit:     20,
	})
	if err != nil {
		t.Fatalf("ListFeed returned error: %v", err)
	}
	if gotViewerID != "viewer-1" {
		t.Errorf("viewerID = %q, want %q", gotViewerID, "viewer-1")
	}
	if gotHashtag != "#golang" {
		t.Errorf("hashtag = %q, want %q", gotHashtag, "#golang")
	}
	if !gotLikedOnly {
		t.Error("expected likedOnly = true")
	}
	if gotLimit != 20 {
		t.Errorf("limit = %d, want 20", gotLimit)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
}

// TestService_ListFeed_LimitClamping は取得件数の丸めを検証する。
// 0以下はデフォルト、上限超過は上限に丸める。
func TestService_ListFeed_LimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"ゼロはデフォルト", 0, defaultLimit},
		{"負数はデフォルト", -10, defaultLimit},
		{"範囲内はそのまま", 30, 30},
		{"上限ちょうど", maxLimit, maxLimit},
		{"上限超過は丸める", 1000, maxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			postRepo := &mockPostRepo{
				listVisibleFn: func(ctx context.Context, viewerID, hashtag string, likedOnly bool, limit int) ([]model.PostWithMeta, error) {
					gotLimit = limit
					return nil, nil
				},
			}
			svc := NewService(postRepo, &mockCommentRepo{})

			if _, err := svc.ListFeed(context.Background(), "viewer-1", Query{Limit: tt.limit}); err != nil {
				t.Fatalf("ListFeed returned error: %v", err)
			}
			if gotLimit != tt.want {
				t.Errorf("limit passed to repo = %d, want %d", gotLimit, tt.want)
			}
		})
	}
}

// TestService_GetPost は投稿詳細にコメント一覧が含まれることを検証する。
func TestService_GetPost(t *testing.T) {
	now := time.Now()
	postRepo := &mockPostRepo{
		findVisibleByIDFn: func(ctx context.Context, viewerID, postID string) (*model.PostWithMeta, error) {
			return &model.PostWithMeta{
				Post:           model.Post{ID: postID, UserID: "author-1", Content: "hello"},
				AuthorNickname: "alice",
				LikeCount:      2,
				LikedByViewer:  true,
			}, nil
		},
	}
	commentRepo := &mockCommentRepo{
		listByPostFn: func(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
			return []model.CommentWithAuthor{
				{Comment: model.Comment{ID: "comment-1", PostID: postID, Body: "nice", CreatedAt: now}, AuthorNickname: "bob"},
			}, nil
		},
	}
	svc := NewService(postRepo, commentRepo)

	detail, err := svc.GetPost(context.Background(), "viewer-1", "post-1")
	if err != nil {
		t.Fatalf("GetPost returned error: %v", err)
	}
	if detail.LikeCount != 2 {
		t.Errorf("LikeCount = %d, want 2", detail.LikeCount)
	}
	if !detail.LikedByViewer {
		t.Error("expected LikedByViewer = true")
	}
	if len(detail.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(detail.Comments))
	}
	if detail.Comments[0].AuthorNickname != "bob" {
		t.Errorf("comment author = %q, want %q", detail.Comments[0].AuthorNickname, "bob")
	}
}

// TestService_GetPost_Invisible は可視集合外の投稿の詳細取得がPOST_NOT_FOUNDになることを検証する。
func TestService_GetPost_Invisible(t *testing.T) {
	svc := NewService(&mockPostRepo{}, &mockCommentRepo{})

	_, err := svc.GetPost(context.Background(), "viewer-1", "post-hidden")
	if err == nil {
		t.Fatal("expected POST_NOT_FOUND error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != model.ErrCodePostNotFound {
		t.Fatalf("error code = %q, want %q", apiErr.Code, model.ErrCodePostNotFound)
	}
}
