package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/microblog/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, user_id, post_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.UserID, comment.PostID, comment.Body, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListByPost は投稿のコメント一覧を投稿者情報付きで作成日時昇順で返す。
func (r *PostgresCommentRepo) ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.post_id, c.body, c.created_at, u.nickname, u.email
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = $1
		 ORDER BY c.created_at ASC, c.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithAuthor
	for rows.Next() {
		var c model.CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.UserID, &c.PostID, &c.Body, &c.CreatedAt, &c.AuthorNickname, &c.AuthorEmail); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}
	return comments, nil
}

// ListByUser は指定ユーザーが付けたコメント一覧を作成日時降順で返す。
func (r *PostgresCommentRepo) ListByUser(ctx context.Context, userID string) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, post_id, body, created_at
		 FROM comments
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by user: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.PostID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}
	return comments, nil
}

// DeleteByUserAndPost は指定ユーザーが指定投稿に付けたコメントのみを削除し、削除件数を返す。
// 他ユーザーのコメントには影響しない。0件は正常な結果。
func (r *PostgresCommentRepo) DeleteByUserAndPost(ctx context.Context, userID, postID string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

var _ CommentRepository = (*PostgresCommentRepo)(nil)
