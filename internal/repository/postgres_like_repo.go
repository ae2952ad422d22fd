package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/microblog/internal/model"
)

// PostgresLikeRepo はPostgreSQLを使用したいいねリポジトリ。
type PostgresLikeRepo struct {
	db *sql.DB
}

// NewPostgresLikeRepo はPostgresLikeRepoを生成する。
func NewPostgresLikeRepo(db *sql.DB) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

// GetOrCreate はいいねを冪等に作成する。
// UNIQUE(user_id, target_type, target_id)制約を利用した
// INSERT ON CONFLICT DO NOTHINGで実装する。
// 存在チェックとINSERTの間のレース窓は存在しない。
func (r *PostgresLikeRepo) GetOrCreate(ctx context.Context, like *model.LikeRecord) (*model.LikeRecord, bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (id, user_id, target_type, target_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, target_type, target_id) DO NOTHING`,
		like.ID, like.UserID, like.TargetType, like.TargetID, like.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("いいねの作成に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("作成結果の取得に失敗しました: %w", err)
	}
	if rowsAffected > 0 {
		return like, true, nil
	}

	// 競合した場合は既存レコードを返す
	existing := &model.LikeRecord{}
	err = r.db.QueryRowContext(ctx,
		`SELECT id, user_id, target_type, target_id, created_at
		 FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`,
		like.UserID, like.TargetType, like.TargetID,
	).Scan(&existing.ID, &existing.UserID, &existing.TargetType, &existing.TargetID, &existing.CreatedAt)
	if err == sql.ErrNoRows {
		// INSERTと並行するDELETEに挟まれた場合のみ到達する
		return like, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("既存いいねの取得に失敗しました: %w", err)
	}

	return existing, false, nil
}

// Delete は指定ユーザーの対象へのいいねを削除する。存在しない場合も成功扱い（冪等）。
func (r *PostgresLikeRepo) Delete(ctx context.Context, userID string, target model.LikeTarget) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = $3`,
		userID, target.Type, target.ID,
	)
	if err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return nil
}

// CountByTarget は対象へのいいね数を返す。
func (r *PostgresLikeRepo) CountByTarget(ctx context.Context, target model.LikeTarget) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE target_type = $1 AND target_id = $2`,
		target.Type, target.ID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("いいね数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ LikeRepository = (*PostgresLikeRepo)(nil)
