package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/microblog/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, nickname, password_hash, date_of_birth, biography, profile_image_key, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Nickname, &user.PasswordHash,
		&user.DateOfBirth, &user.Biography, &user.ProfileImageKey,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// UNIQUE制約違反はフィールドを特定したAPIErrorに変換して返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, nickname, password_hash, date_of_birth, biography, profile_image_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Nickname, user.PasswordHash,
		user.DateOfBirth, user.Biography, user.ProfileImageKey,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if apiErr := mapUserUniqueViolation(err); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はユーザー情報を全フィールド上書きで更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $2, nickname = $3, password_hash = $4, date_of_birth = $5,
		     biography = $6, profile_image_key = $7, updated_at = $8
		 WHERE id = $1`,
		user.ID, user.Email, user.Nickname, user.PasswordHash,
		user.DateOfBirth, user.Biography, user.ProfileImageKey, user.UpdatedAt,
	)
	if err != nil {
		if apiErr := mapUserUniqueViolation(err); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}
	return nil
}

// List はユーザー一覧を返す。nicknameが空でない場合は完全一致で絞り込む。
func (r *PostgresUserRepo) List(ctx context.Context, nickname string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE $1 = '' OR nickname = $1
		 ORDER BY created_at ASC`,
		nickname,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// mapUserUniqueViolation はusersテーブルのUNIQUE制約違反をAPIErrorに変換する。
// 制約違反でないエラーにはnilを返す。
func mapUserUniqueViolation(err error) *model.APIError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "users_email_unique":
		return model.NewEmailTakenError()
	case "users_nickname_unique":
		return model.NewNicknameTakenError()
	default:
		return nil
	}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
