// Package post は投稿管理のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
	"github.com/hitoshi/microblog/internal/security"
)

// PostCounter は投稿作成数のメトリクス記録インターフェース。
type PostCounter interface {
	RecordPostCreated()
}

// Service は投稿管理のサービス層。
// 作成・更新・削除と所有者チェックを提供する。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
	metrics   PostCounter
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.ContentSanitizerService, metrics PostCounter) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Create は投稿を作成する。本文は1〜280文字（ちょうど280文字は許容）。
func (s *Service) Create(ctx context.Context, ownerID, content, imageKey string) (*model.Post, error) {
	content, err := s.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &model.Post{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Content:   content,
		ImageKey:  imageKey,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated()
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("user_id", ownerID),
	)

	return post, nil
}

// Update は投稿の本文を更新する。所有者のみが実行できる。
// アクターの可視集合外の投稿はPOST_NOT_FOUND、
// 可視だが他人の投稿はPERMISSION_DENIED。
func (s *Service) Update(ctx context.Context, actorID, postID, content string) (*model.Post, error) {
	post, err := s.findOwned(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	content, err = s.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	post.Content = content
	post.UpdatedAt = s.now().UTC()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// SetImageKey は投稿画像のオブジェクトキーを設定する。所有者のみが実行できる。
func (s *Service) SetImageKey(ctx context.Context, actorID, postID, key string) (*model.Post, error) {
	post, err := s.findOwned(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	post.ImageKey = key
	post.UpdatedAt = s.now().UTC()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete は投稿を削除する。所有者のみが実行できる。
func (s *Service) Delete(ctx context.Context, actorID, postID string) error {
	post, err := s.findOwned(ctx, actorID, postID)
	if err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, post.ID)
}

// findOwned はアクターが所有する投稿を取得する。
// 可視集合外はPOST_NOT_FOUND、可視だが非所有はPERMISSION_DENIEDを返す。
func (s *Service) findOwned(ctx context.Context, actorID, postID string) (*model.Post, error) {
	visible, err := s.postRepo.FindVisibleByID(ctx, actorID, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if visible == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if visible.UserID != actorID {
		return nil, model.NewPermissionDeniedError()
	}
	return &visible.Post, nil
}

func (s *Service) normalizeContent(content string) (string, error) {
	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}
	if content == "" {
		return "", model.NewValidationError("content", "投稿本文は必須です")
	}
	if utf8.RuneCountInString(content) > model.MaxPostContentLength {
		return "", model.NewContentTooLongError(model.MaxPostContentLength)
	}
	return content, nil
}
