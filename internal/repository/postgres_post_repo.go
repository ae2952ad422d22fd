package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/microblog/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
// 可視集合（フォロー中の投稿者 ∪ 自分自身）のスコープ、ハッシュタグ絞り込み、
// いいね集計を単一クエリで解決する。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, content, image_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.UserID, post.Content, post.ImageKey, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を閲覧範囲に関係なく取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, image_key, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.UserID, &post.Content, &post.ImageKey, &post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// postMetaSelect は投稿と集計値のSELECT句。$1は閲覧者ID。
// いいね数は対象ごとのLEFT JOIN集計、いいね済みフラグはEXISTSの
// メンバーシップ判定として同一クエリ内で解決する。
const postMetaSelect = `
	SELECT p.id, p.user_id, p.content, p.image_key, p.created_at, p.updated_at,
	       u.nickname, u.email,
	       COALESCE(lc.cnt, 0),
	       EXISTS (
	           SELECT 1 FROM likes ml
	           WHERE ml.target_type = 'post' AND ml.target_id = p.id AND ml.user_id = $1
	       )
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN (
	    SELECT target_id, COUNT(*) AS cnt
	    FROM likes WHERE target_type = 'post'
	    GROUP BY target_id
	) lc ON lc.target_id = p.id`

// visibleClause は可視集合の絞り込み条件。$1は閲覧者ID。
const visibleClause = `
	(p.user_id = $1 OR p.user_id IN (
	    SELECT followee_id FROM follows WHERE follower_id = $1
	))`

func scanPostWithMeta(rows interface{ Scan(...any) error }) (model.PostWithMeta, error) {
	var p model.PostWithMeta
	err := rows.Scan(
		&p.ID, &p.UserID, &p.Content, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorNickname, &p.AuthorEmail,
		&p.LikeCount, &p.LikedByViewer,
	)
	return p, err
}

// FindVisibleByID は閲覧者の可視集合内にある投稿を集計値付きで取得する。
// 投稿が存在しない場合も可視集合外の場合もnilを返す（区別しない）。
func (r *PostgresPostRepo) FindVisibleByID(ctx context.Context, viewerID, postID string) (*model.PostWithMeta, error) {
	row := r.db.QueryRowContext(ctx,
		postMetaSelect+` WHERE `+visibleClause+` AND p.id = $2`,
		viewerID, postID,
	)

	p, err := scanPostWithMeta(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return &p, nil
}

// ListVisible は閲覧者の可視集合内の投稿一覧を集計値付きで返す。
// hashtagはILIKEの部分一致（ワイルドカードはエスケープ済みで渡る）。
// likedOnlyは閲覧者のいいねをEXISTSで結合して絞り込む。
func (r *PostgresPostRepo) ListVisible(ctx context.Context, viewerID, hashtag string, likedOnly bool, limit int) ([]model.PostWithMeta, error) {
	rows, err := r.db.QueryContext(ctx, listVisibleQuery(likedOnly), viewerID, likePattern(hashtag), limit)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []model.PostWithMeta
	for rows.Next() {
		p, err := scanPostWithMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の走査に失敗しました: %w", err)
	}
	return posts, nil
}

// Update は投稿の本文と画像キーを更新する。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET content = $2, image_key = $3, updated_at = $4 WHERE id = $1`,
		post.ID, post.Content, post.ImageKey, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPostNotFoundError(post.ID)
	}
	return nil
}

// Delete は指定IDの投稿を削除する。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPostNotFoundError(id)
	}
	return nil
}

// listVisibleQuery はフィード一覧クエリを構築する。
// $1は閲覧者ID、$2はILIKEパターン、$3は取得上限。
func listVisibleQuery(likedOnly bool) string {
	query := postMetaSelect + ` WHERE ` + visibleClause + `
	 AND p.content ILIKE $2 ESCAPE '\'`

	if likedOnly {
		query += `
	 AND EXISTS (
	     SELECT 1 FROM likes vl
	     WHERE vl.target_type = 'post' AND vl.target_id = p.id AND vl.user_id = $1
	 )`
	}

	// created_at降順、同時刻はid降順で決定的な並び
	query += `
	 ORDER BY p.created_at DESC, p.id DESC
	 LIMIT $3`

	return query
}

// likePattern は部分一致検索用のILIKEパターンを構築する。
// 検索語に含まれるワイルドカード文字はリテラルとして扱う。
// 空文字列の場合は全件にマッチするパターンを返す。
func likePattern(term string) string {
	if term == "" {
		return "%"
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
