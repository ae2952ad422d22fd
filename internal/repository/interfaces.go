// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/microblog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// email/nicknameのUNIQUE制約違反はそれぞれEMAIL_TAKEN/NICKNAME_TAKENの
	// APIErrorとして返す（同時リクエスト下でも制約がレースを防ぐ）。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザー情報を全フィールド上書きで更新する。
	// UNIQUE制約違反の扱いはCreateと同様。
	Update(ctx context.Context, user *model.User) error

	// List はユーザー一覧を返す。nicknameが空でない場合は完全一致で絞り込む。
	List(ctx context.Context, nickname string) ([]*model.User, error)
}

// FollowRepository はフォローエッジの永続化インターフェース。
type FollowRepository interface {
	// Create はフォローエッジを作成する。
	// (follower, followee)のUNIQUE制約違反はDUPLICATE_FOLLOWのAPIErrorとして返す。
	Create(ctx context.Context, edge *model.FollowEdge) error

	// Delete は指定ペアのエッジを削除する。存在しない場合も成功扱い（冪等）。
	Delete(ctx context.Context, followerID, followeeID string) error

	// ListByFollower はフォロワーの発信エッジ一覧を作成日時降順で返す。
	ListByFollower(ctx context.Context, followerID string) ([]*model.FollowEdge, error)

	// ListFolloweeIDs はフォロワーがフォローしているユーザーIDの集合を返す。
	ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error)

	// ListFollowerIDs はフォロイーをフォローしているユーザーIDの集合を返す。
	ListFollowerIDs(ctx context.Context, followeeID string) ([]string, error)
}

// PostRepository は投稿データの永続化インターフェース。
// 閲覧範囲（フォロー中の投稿者と自分自身）のスコープ付き読み取りを提供する。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの投稿を閲覧範囲に関係なく取得する。見つからない場合はnilを返す。
	// 所有者チェックを行う更新・削除系の内部処理でのみ使用する。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindVisibleByID は閲覧者の可視集合内にある投稿を集計値付きで取得する。
	// 投稿が存在しない場合も可視集合外の場合もnilを返す（区別しない）。
	FindVisibleByID(ctx context.Context, viewerID, postID string) (*model.PostWithMeta, error)

	// ListVisible は閲覧者の可視集合内の投稿一覧を集計値付きで返す。
	// hashtagが空でない場合は本文の部分一致（大文字小文字無視）で絞り込む。
	// likedOnlyがtrueの場合は閲覧者がいいね済みの投稿のみ返す（JOINで解決）。
	// 並び順はcreated_at降順、同時刻はid降順で決定的。
	ListVisible(ctx context.Context, viewerID, hashtag string, likedOnly bool, limit int) ([]model.PostWithMeta, error)

	// Update は投稿の本文と画像キーを更新する。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定IDの投稿を削除する。
	Delete(ctx context.Context, id string) error
}

// LikeRepository はいいねデータの永続化インターフェース。
type LikeRepository interface {
	// GetOrCreate はいいねを冪等に作成する。
	// UNIQUE(user_id, target_type, target_id)制約を利用した
	// INSERT ON CONFLICT DO NOTHINGの単一アトミック操作で実装され、
	// 既存レコードがある場合はそれを返す（createdはfalse）。
	GetOrCreate(ctx context.Context, like *model.LikeRecord) (*model.LikeRecord, bool, error)

	// Delete は指定ユーザーの対象へのいいねを削除する。存在しない場合も成功扱い（冪等）。
	Delete(ctx context.Context, userID string, target model.LikeTarget) error

	// CountByTarget は対象へのいいね数を返す。
	CountByTarget(ctx context.Context, target model.LikeTarget) (int, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByPost は投稿のコメント一覧を投稿者情報付きで作成日時昇順で返す。
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)

	// ListByUser は指定ユーザーが付けたコメント一覧を作成日時降順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Comment, error)

	// DeleteByUserAndPost は指定ユーザーが指定投稿に付けたコメントのみを削除し、
	// 削除件数を返す。0件は正常な結果であってエラーではない。
	DeleteByUserAndPost(ctx context.Context, userID, postID string) (int, error)
}
