package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/microblog/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローエッジリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Create はフォローエッジを作成する。
// UNIQUE(follower_id, followee_id)制約違反はDUPLICATE_FOLLOWとして返す。
// 同一エッジの同時作成リクエストは制約側で直列化されるため、
// アプリケーション側の存在チェックは行わない。
func (r *PostgresFollowRepo) Create(ctx context.Context, edge *model.FollowEdge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (id, follower_id, followee_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		edge.ID, edge.FollowerID, edge.FolloweeID, edge.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.NewDuplicateFollowError()
		}
		return fmt.Errorf("フォローエッジの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ペアのエッジを削除する。存在しない場合も成功扱い（冪等）。
func (r *PostgresFollowRepo) Delete(ctx context.Context, followerID, followeeID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("フォローエッジの削除に失敗しました: %w", err)
	}
	return nil
}

// ListByFollower はフォロワーの発信エッジ一覧を作成日時降順で返す。
func (r *PostgresFollowRepo) ListByFollower(ctx context.Context, followerID string) ([]*model.FollowEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, follower_id, followee_id, created_at
		 FROM follows WHERE follower_id = $1
		 ORDER BY created_at DESC, id DESC`,
		followerID,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var edges []*model.FollowEdge
	for rows.Next() {
		edge := &model.FollowEdge{}
		if err := rows.Scan(&edge.ID, &edge.FollowerID, &edge.FolloweeID, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("フォロー行の読み取りに失敗しました: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フォロー一覧の走査に失敗しました: %w", err)
	}
	return edges, nil
}

// ListFolloweeIDs はフォロワーがフォローしているユーザーIDの集合を返す。
func (r *PostgresFollowRepo) ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = $1`, followerID)
}

// ListFollowerIDs はフォロイーをフォローしているユーザーIDの集合を返す。
func (r *PostgresFollowRepo) ListFollowerIDs(ctx context.Context, followeeID string) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT follower_id FROM follows WHERE followee_id = $1`, followeeID)
}

func (r *PostgresFollowRepo) listIDs(ctx context.Context, query, param string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, param)
	if err != nil {
		return nil, fmt.Errorf("ユーザーID集合の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ユーザーID行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザーID集合の走査に失敗しました: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
