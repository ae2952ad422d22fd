// Package social はフォローグラフのドメインロジックを提供する。
package social

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

// FollowCounter はフォロー作成数のメトリクス記録インターフェース。
type FollowCounter interface {
	RecordFollowCreated()
}

// Service はフォローグラフのサービス層。
// エッジの作成・削除とフォロー/フォロワー集合の取得を提供する。
type Service struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	metrics    FollowCounter
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(followRepo repository.FollowRepository, userRepo repository.UserRepository, metrics FollowCounter) *Service {
	return &Service{
		followRepo: followRepo,
		userRepo:   userRepo,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Follow はactorからfolloweeへのフォローエッジを作成する。
// 自分以外のフォロワーとしてエッジを作ることはできない（PERMISSION_DENIED）。
// 既存エッジはDUPLICATE_FOLLOW、フォロイー不明はUSER_NOT_FOUND。
// 重複判定はDBのUNIQUE制約によるもので、同時リクエスト下でも
// 2本のエッジが残ることはない。
func (s *Service) Follow(ctx context.Context, actorID, followerID, followeeID string) (*model.FollowEdge, error) {
	if actorID != followerID {
		return nil, model.NewPermissionDeniedError()
	}

	followee, err := s.userRepo.FindByID(ctx, followeeID)
	if err != nil {
		return nil, fmt.Errorf("フォロイーの取得に失敗しました: %w", err)
	}
	if followee == nil {
		return nil, model.NewUserNotFoundError()
	}

	edge := &model.FollowEdge{
		ID:         uuid.New().String(),
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.followRepo.Create(ctx, edge); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordFollowCreated()
	}

	slog.Info("follow edge created",
		slog.String("follower_id", followerID),
		slog.String("followee_id", followeeID),
	)

	return edge, nil
}

// Unfollow はactorの発信エッジを削除する。エッジが存在しない場合も成功する（冪等）。
// 他人のエッジは削除できない（PERMISSION_DENIED）。
func (s *Service) Unfollow(ctx context.Context, actorID, followerID, followeeID string) error {
	if actorID != followerID {
		return model.NewPermissionDeniedError()
	}

	if err := s.followRepo.Delete(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("フォロー解除に失敗しました: %w", err)
	}
	return nil
}

// ListFollowing はユーザーの発信エッジ一覧を返す。
func (s *Service) ListFollowing(ctx context.Context, userID string) ([]*model.FollowEdge, error) {
	edges, err := s.followRepo.ListByFollower(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}
	return edges, nil
}

// ListFollowingIDs はユーザーがフォローしているユーザーIDの集合を返す。
// フィード合成の可視集合解決に使用されるプリミティブ。
func (s *Service) ListFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.followRepo.ListFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フォロイーID集合の取得に失敗しました: %w", err)
	}
	return ids, nil
}

// ListFollowerIDs はユーザーをフォローしているユーザーIDの集合を返す。
func (s *Service) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.followRepo.ListFollowerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フォロワーID集合の取得に失敗しました: %w", err)
	}
	return ids, nil
}
