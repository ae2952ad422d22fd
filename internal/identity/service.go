// Package identity はユーザー管理のドメインロジックを提供する。
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
	"github.com/hitoshi/microblog/internal/security"
)

const (
	// minPasswordLength はパスワードの最低文字数。
	minPasswordLength = 5
	// maxNicknameLength はニックネームの最大文字数。
	maxNicknameLength = 15
	// maxBiographyLength は自己紹介の最大文字数。
	maxBiographyLength = 400
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email       string
	Password    string
	Nickname    string
	DateOfBirth time.Time
	Biography   string
}

// UpdateInput はプロフィール更新の入力。
// nilフィールドは変更しない部分更新を行う。
type UpdateInput struct {
	Email       *string
	Password    *string
	Nickname    *string
	DateOfBirth *time.Time
	Biography   *string
}

// UserCounter はユーザー登録数のメトリクス記録インターフェース。
type UserCounter interface {
	RecordUserRegistered()
}

// Service はユーザー管理のサービス層。
// 登録・プロフィール更新・パスワード設定のビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer security.ContentSanitizerService
	metrics   UserCounter
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sanitizer security.ContentSanitizerService, metrics UserCounter) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Register は新規ユーザーを作成する。
// パスワードは必ずbcryptでハッシュ化してから保存する。
// email/nicknameの一意性はDBのUNIQUE制約が保証し、
// 違反はリポジトリ層でフィールド付きAPIErrorに変換される。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateNickname(in.Nickname); err != nil {
		return nil, err
	}
	if err := s.validateDateOfBirth(in.DateOfBirth); err != nil {
		return nil, err
	}

	biography := in.Biography
	if s.sanitizer != nil {
		biography = s.sanitizer.Sanitize(biography)
	}
	if err := validateBiography(biography); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Nickname:     in.Nickname,
		PasswordHash: string(hash),
		DateOfBirth:  in.DateOfBirth,
		Biography:    biography,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordUserRegistered()
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("nickname", user.Nickname),
	)

	return user, nil
}

// UpdateProfile は自分自身のプロフィールを部分更新する。
// Passwordが指定された場合は必ずハッシュ化してから保存する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if in.Email != nil {
		if err := validateEmail(*in.Email); err != nil {
			return nil, err
		}
		user.Email = *in.Email
	}
	if in.Nickname != nil {
		if err := validateNickname(*in.Nickname); err != nil {
			return nil, err
		}
		user.Nickname = *in.Nickname
	}
	if in.DateOfBirth != nil {
		if err := s.validateDateOfBirth(*in.DateOfBirth); err != nil {
			return nil, err
		}
		user.DateOfBirth = *in.DateOfBirth
	}
	if in.Biography != nil {
		biography := *in.Biography
		if s.sanitizer != nil {
			biography = s.sanitizer.Sanitize(biography)
		}
		if err := validateBiography(biography); err != nil {
			return nil, err
		}
		user.Biography = biography
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SetProfileImageKey はプロフィール画像のオブジェクトキーを設定する。
// 画像本体はオブジェクトストレージが保持し、ここでは参照のみを保存する。
func (s *Service) SetProfileImageKey(ctx context.Context, userID, key string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	user.ProfileImageKey = key
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser は指定IDのユーザーを取得する。見つからない場合はUSER_NOT_FOUNDを返す。
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ListUsers はユーザー一覧を返す。nicknameが空でない場合は完全一致で絞り込む。
func (s *Service) ListUsers(ctx context.Context, nickname string) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, nickname)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// --- バリデーション ---

func validateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("email", "メールアドレスは必須です")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("email", "メールアドレスの形式が不正です")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.NewValidationError("password",
			fmt.Sprintf("パスワードは%d文字以上で指定してください", minPasswordLength))
	}
	return nil
}

func validateNickname(nickname string) error {
	if nickname == "" {
		return model.NewValidationError("nickname", "ニックネームは必須です")
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return model.NewValidationError("nickname",
			fmt.Sprintf("ニックネームは%d文字以内で指定してください", maxNicknameLength))
	}
	return nil
}

func validateBiography(biography string) error {
	if utf8.RuneCountInString(biography) > maxBiographyLength {
		return model.NewValidationError("biography",
			fmt.Sprintf("自己紹介は%d文字以内で指定してください", maxBiographyLength))
	}
	return nil
}

// validateDateOfBirth は生年月日が必須かつ最低年齢を満たすことを検証する。
// ちょうど5歳の誕生日当日は通過し、その前日は拒否される。
func (s *Service) validateDateOfBirth(dob time.Time) error {
	if dob.IsZero() {
		return model.NewValidationError("date_of_birth", "生年月日は必須です")
	}
	if !model.OldEnough(dob, s.now()) {
		return model.NewAgeRestrictionError()
	}
	return nil
}
