// Package feed はフォローグラフにスコープされたフィード合成を提供する。
package feed

import (
	"context"
	"fmt"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

const (
	// defaultLimit はフィード1回の取得件数（デフォルト）。
	defaultLimit = 50
	// maxLimit はフィード1回の取得件数の上限。
	maxLimit = 100
)

// Query はフィード取得の条件。
type Query struct {
	// Hashtag は本文の部分一致フィルタ（大文字小文字無視）。空なら全件。
	Hashtag string
	// LikedOnly は閲覧者がいいね済みの投稿に絞り込む。
	LikedOnly bool
	// Limit は取得件数。0以下はデフォルト、上限超過は上限に丸める。
	Limit int
}

// PostDetail は投稿詳細（コメント一覧付き）。
// 一覧ビューはコメントを含まず、詳細ビューのみが含む。
type PostDetail struct {
	model.PostWithMeta
	Comments []model.CommentWithAuthor
}

// Service はフィード合成のサービス層。
//
// 可視集合（閲覧者がフォローしている投稿者 ∪ 閲覧者自身）の解決、
// ハッシュタグ絞り込み、いいね集計の付与はすべてリポジトリの
// 単一JOINクエリに委譲する。いいね済みフィルタも結合で解決し、
// 可視集合の全件走査は行わない。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, commentRepo repository.CommentRepository) *Service {
	return &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

// ListFeed は閲覧者の可視集合内の投稿一覧を返す。
// 並び順はcreated_at降順、同時刻はid降順で呼び出しごとに決定的。
func (s *Service) ListFeed(ctx context.Context, viewerID string, q Query) ([]model.PostWithMeta, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	posts, err := s.postRepo.ListVisible(ctx, viewerID, q.Hashtag, q.LikedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}
	return posts, nil
}

// GetPost は投稿詳細をコメント一覧付きで返す。
// 可視集合外の投稿はPOST_NOT_FOUND（存在の有無は区別しない）。
func (s *Service) GetPost(ctx context.Context, viewerID, postID string) (*PostDetail, error) {
	post, err := s.postRepo.FindVisibleByID(ctx, viewerID, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}

	return &PostDetail{
		PostWithMeta: *post,
		Comments:     comments,
	}, nil
}
