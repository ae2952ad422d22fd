// Package engagement はいいねとコメントのドメインロジックを提供する。
package engagement

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
	"github.com/hitoshi/microblog/internal/security"
)

// PostFinder は可視集合スコープ付きの投稿検索インターフェース。
// repository.PostRepositoryの部分集合として定義する。
type PostFinder interface {
	FindVisibleByID(ctx context.Context, viewerID, postID string) (*model.PostWithMeta, error)
}

// EngagementCounter はいいね・コメント数のメトリクス記録インターフェース。
type EngagementCounter interface {
	RecordLikeCreated()
	RecordCommentCreated()
}

// Service はいいねとコメントのサービス層。
// いいねの冪等な付与・解除、コメントの作成・自分のコメントの一括削除を提供する。
type Service struct {
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	postFinder  PostFinder
	sanitizer   security.ContentSanitizerService
	metrics     EngagementCounter
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	postFinder PostFinder,
	sanitizer security.ContentSanitizerService,
	metrics EngagementCounter,
) *Service {
	return &Service{
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		postFinder:  postFinder,
		sanitizer:   sanitizer,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Like は対象へのいいねを冪等に付与する。
// 既にいいね済みの場合はエラーにせず既存レコードを返す
// （アクター×対象ごとに最大1件のポリシーであり、競合はエラーではない）。
// 対象が投稿の場合、アクターの可視集合外ならPOST_NOT_FOUND。
func (s *Service) Like(ctx context.Context, actorID string, target model.LikeTarget) (*model.LikeRecord, error) {
	if err := s.checkTargetVisible(ctx, actorID, target); err != nil {
		return nil, err
	}

	like := &model.LikeRecord{
		ID:         uuid.New().String(),
		UserID:     actorID,
		TargetType: target.Type,
		TargetID:   target.ID,
		CreatedAt:  s.now().UTC(),
	}

	record, created, err := s.likeRepo.GetOrCreate(ctx, like)
	if err != nil {
		return nil, err
	}

	if created && s.metrics != nil {
		s.metrics.RecordLikeCreated()
	}

	return record, nil
}

// Unlike は対象へのいいねを解除する。いいねが存在しない場合も成功する（冪等）。
func (s *Service) Unlike(ctx context.Context, actorID string, target model.LikeTarget) error {
	if err := s.checkTargetVisible(ctx, actorID, target); err != nil {
		return err
	}
	return s.likeRepo.Delete(ctx, actorID, target)
}

// CountLikes は対象へのいいね数を返す。
func (s *Service) CountLikes(ctx context.Context, target model.LikeTarget) (int, error) {
	return s.likeRepo.CountByTarget(ctx, target)
}

// Comment は投稿にコメントを作成する。
// 本文は1〜350文字（ちょうど350文字は許容）。投稿の所有者以外もコメントできる。
// 投稿がアクターの可視集合外ならPOST_NOT_FOUND。
func (s *Service) Comment(ctx context.Context, actorID, postID, body string) (*model.Comment, error) {
	post, err := s.postFinder.FindVisibleByID(ctx, actorID, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	if s.sanitizer != nil {
		body = s.sanitizer.Sanitize(body)
	}
	if body == "" {
		return nil, model.NewValidationError("body", "コメント本文は必須です")
	}
	if utf8.RuneCountInString(body) > model.MaxCommentLength {
		return nil, model.NewCommentTooLongError(model.MaxCommentLength)
	}

	comment := &model.Comment{
		ID:        uuid.New().String(),
		UserID:    actorID,
		PostID:    postID,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCommentCreated()
	}

	return comment, nil
}

// ListOwnComments はアクター自身が付けたコメント一覧を作成日時降順で返す。
func (s *Service) ListOwnComments(ctx context.Context, actorID string) ([]model.Comment, error) {
	comments, err := s.commentRepo.ListByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// DeleteOwnComments は指定投稿に対するアクター自身のコメントのみを一括削除し、
// 削除件数を返す。他ユーザーのコメントには影響しない。
// 削除対象が0件の場合もエラーではなく、件数0を返す。
func (s *Service) DeleteOwnComments(ctx context.Context, actorID, postID string) (int, error) {
	post, err := s.postFinder.FindVisibleByID(ctx, actorID, postID)
	if err != nil {
		return 0, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return 0, model.NewPostNotFoundError(postID)
	}

	deleted, err := s.commentRepo.DeleteByUserAndPost(ctx, actorID, postID)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// checkTargetVisible はいいね対象がアクターから見えることを検証する。
// 対象種別ごとに可視性の解決方法を切り替える。
func (s *Service) checkTargetVisible(ctx context.Context, actorID string, target model.LikeTarget) error {
	switch target.Type {
	case model.LikeTargetPost:
		post, err := s.postFinder.FindVisibleByID(ctx, actorID, target.ID)
		if err != nil {
			return fmt.Errorf("投稿の取得に失敗しました: %w", err)
		}
		if post == nil {
			return model.NewPostNotFoundError(target.ID)
		}
		return nil
	default:
		return model.NewValidationError("target_type",
			fmt.Sprintf("未対応のいいね対象です: %s", target.Type))
	}
}
